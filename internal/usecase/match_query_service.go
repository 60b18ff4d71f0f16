package usecase

import (
	"context"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/jonboulle/clockwork"
)

const queryDateLayout = "2006-01-02"

// MatchQueryInput carries raw query-string values. Empty means not set.
type MatchQueryInput struct {
	League   string
	Team     string
	DateFrom string
	DateTo   string
	Lat      string
	Lon      string
	RadiusKm string
}

type MatchQueryService struct {
	matchRepo match.Repository
	clock     clockwork.Clock
	logger    *logging.Logger
}

func NewMatchQueryService(matchRepo match.Repository, clock clockwork.Clock, logger *logging.Logger) *MatchQueryService {
	if logger == nil {
		logger = logging.Default()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &MatchQueryService{
		matchRepo: matchRepo,
		clock:     clock,
		logger:    logger,
	}
}

// Query returns upcoming matches ordered by date. Past matches are never returned.
func (s *MatchQueryService) Query(ctx context.Context, input MatchQueryInput) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.MatchQueryService.Query")
	defer span.End()

	filter, err := s.buildFilter(ctx, input)
	if err != nil {
		return nil, err
	}

	items, err := s.matchRepo.Query(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("query matches: %w", err)
	}

	out := items[:0]
	for _, item := range items {
		if !item.Location.Valid() {
			continue
		}
		out = append(out, item)
	}
	return out, nil
}

func (s *MatchQueryService) buildFilter(ctx context.Context, input MatchQueryInput) (match.Filter, error) {
	filter := match.Filter{
		NotBefore: s.clock.Now().UTC(),
		League:    strings.TrimSpace(input.League),
		Team:      strings.TrimSpace(input.Team),
	}

	if raw := strings.TrimSpace(input.DateFrom); raw != "" {
		from, err := parseQueryDate(raw)
		if err != nil {
			return match.Filter{}, fmt.Errorf("%w: dateFrom must be YYYY-MM-DD", ErrInvalidInput)
		}
		filter.From = &from
	}
	if raw := strings.TrimSpace(input.DateTo); raw != "" {
		to, err := parseQueryDate(raw)
		if err != nil {
			return match.Filter{}, fmt.Errorf("%w: dateTo must be YYYY-MM-DD", ErrInvalidInput)
		}
		before := to.AddDate(0, 0, 1)
		filter.Before = &before
	}

	near, ok, reason := parseProximity(input.Lat, input.Lon, input.RadiusKm)
	switch {
	case ok:
		filter.Near = &near
	case reason != "":
		s.logger.WarnContext(ctx, "proximity filter ignored",
			"reason", reason,
			"lat", input.Lat,
			"lon", input.Lon,
			"radius", input.RadiusKm,
		)
	}

	return filter, nil
}

// parseQueryDate accepts a calendar day or an RFC 3339 instant, truncated to its UTC day.
func parseQueryDate(raw string) (time.Time, error) {
	if day, err := time.ParseInLocation(queryDateLayout, raw, time.UTC); err == nil {
		return day, nil
	}
	instant, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, err
	}
	instant = instant.UTC()
	return time.Date(instant.Year(), instant.Month(), instant.Day(), 0, 0, 0, 0, time.UTC), nil
}

// parseProximity applies only a complete, valid triple. reason is empty when nothing was supplied.
func parseProximity(rawLat, rawLon, rawRadius string) (match.Proximity, bool, string) {
	rawLat, rawLon, rawRadius = strings.TrimSpace(rawLat), strings.TrimSpace(rawLon), strings.TrimSpace(rawRadius)
	if rawLat == "" && rawLon == "" && rawRadius == "" {
		return match.Proximity{}, false, ""
	}
	if rawLat == "" || rawLon == "" || rawRadius == "" {
		return match.Proximity{}, false, "lat, lon and radius must be supplied together"
	}

	lat, errLat := strconv.ParseFloat(rawLat, 64)
	lon, errLon := strconv.ParseFloat(rawLon, 64)
	radiusKm, errRadius := strconv.ParseFloat(rawRadius, 64)
	if errLat != nil || errLon != nil || errRadius != nil {
		return match.Proximity{}, false, "lat, lon and radius must be numbers"
	}

	center := stadium.Coordinates{Lat: lat, Lon: lon}
	if !center.Valid() {
		return match.Proximity{}, false, "lat or lon out of range"
	}
	if radiusKm <= 0 || math.IsNaN(radiusKm) || math.IsInf(radiusKm, 0) {
		return match.Proximity{}, false, "radius must be a positive number of kilometres"
	}

	return match.Proximity{Center: center, RadiusMeters: radiusKm * 1000}, true, ""
}
