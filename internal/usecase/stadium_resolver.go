package usecase

import (
	"context"
	"errors"
	"regexp"
	"strings"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/cache"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
)

var citationMarker = regexp.MustCompile(`\[.*?\]`)

var stadiumHeaders = map[string]struct{}{
	"ground":      {},
	"ground(s)":   {},
	"home ground": {},
	"stadium":     {},
}

type StadiumResolverConfig struct {
	// Timeout bounds one full lookup, all search variants included.
	Timeout  time.Duration
	CacheTTL time.Duration
	Clock    clockwork.Clock
}

// StadiumResolver maps team names to stadiums and stadiums to points.
// Failures are logged and reported as not found.
type StadiumResolver struct {
	wiki     WikiSource
	geocoder Geocoder
	memo     *cache.Store
	timeout  time.Duration
	logger   *logging.Logger
}

type resolvedStadium struct {
	name  string
	found bool
}

type resolvedPoint struct {
	point stadium.Coordinates
	found bool
}

func NewStadiumResolver(wiki WikiSource, geocoder Geocoder, cfg StadiumResolverConfig, logger *logging.Logger) *StadiumResolver {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	return &StadiumResolver{
		wiki:     wiki,
		geocoder: geocoder,
		memo:     cache.NewStore(cfg.CacheTTL, cache.WithClock(cfg.Clock)),
		timeout:  cfg.Timeout,
		logger:   logger,
	}
}

func (r *StadiumResolver) ResolveStadium(ctx context.Context, teamName string) (string, bool) {
	teamName = strings.TrimSpace(teamName)
	if teamName == "" {
		return "", false
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.StadiumResolver.ResolveStadium")
	defer span.End()
	span.SetAttributes(attribute.String("team", teamName))

	value, err := r.memo.GetOrLoad(ctx, "stadium:"+strings.ToLower(teamName), func(ctx context.Context) (any, error) {
		name, found, err := r.lookupStadium(ctx, teamName)
		if err != nil {
			return nil, err
		}
		return resolvedStadium{name: name, found: found}, nil
	})
	if err != nil {
		r.logger.WarnContext(ctx, "stadium lookup failed", "team", teamName, "error", err)
		return "", false
	}

	res, _ := value.(resolvedStadium)
	return res.name, res.found
}

func (r *StadiumResolver) ResolveCoordinates(ctx context.Context, stadiumName string) (stadium.Coordinates, bool) {
	stadiumName = strings.TrimSpace(stadiumName)
	if stadiumName == "" {
		return stadium.Coordinates{}, false
	}

	ctx, span := startUsecaseSpan(ctx, "usecase.StadiumResolver.ResolveCoordinates")
	defer span.End()
	span.SetAttributes(attribute.String("stadium", stadiumName))

	value, err := r.memo.GetOrLoad(ctx, "geo:"+strings.ToLower(stadiumName), func(ctx context.Context) (any, error) {
		ctx, cancel := context.WithTimeout(ctx, r.timeout)
		defer cancel()

		point, found, err := r.geocoder.Geocode(ctx, stadiumName)
		if err != nil {
			return nil, err
		}
		if found && !point.Valid() {
			r.logger.WarnContext(ctx, "geocoder returned out-of-range point", "stadium", stadiumName, "lat", point.Lat, "lon", point.Lon)
			found = false
		}
		return resolvedPoint{point: point, found: found}, nil
	})
	if err != nil {
		if errors.Is(err, ErrMissingCredential) {
			r.logger.WarnContext(ctx, "geocoding skipped: api key is not configured", "stadium", stadiumName)
		} else {
			r.logger.WarnContext(ctx, "geocoding failed", "stadium", stadiumName, "error", err)
		}
		return stadium.Coordinates{}, false
	}

	res, _ := value.(resolvedPoint)
	if !res.found {
		return stadium.Coordinates{}, false
	}
	return res.point, true
}

func (r *StadiumResolver) lookupStadium(ctx context.Context, teamName string) (string, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	for _, query := range stadiumSearchQueries(teamName) {
		title, hit, err := r.wiki.SearchFirstTitle(ctx, query)
		if err != nil {
			return "", false, err
		}
		if !hit {
			continue
		}

		rows, err := r.wiki.FetchInfobox(ctx, title)
		if err != nil {
			return "", false, err
		}
		name, found := stadiumFromInfobox(rows)
		if !found {
			r.logger.DebugContext(ctx, "article has no stadium row", "team", teamName, "title", title)
		}
		return name, found, nil
	}

	return "", false, nil
}

// stadiumSearchQueries lists search variants in the order they are tried.
func stadiumSearchQueries(teamName string) []string {
	return []string{
		teamName,
		teamName + " Football Club",
		teamName + " (football club)",
		teamName + " Association Football Club",
		teamName + " cf",
		teamName + " F.C",
	}
}

func stadiumFromInfobox(rows []stadium.InfoboxRow) (string, bool) {
	for _, row := range rows {
		header := strings.ToLower(strings.TrimSpace(row.Header))
		if _, ok := stadiumHeaders[header]; !ok {
			continue
		}

		value := citationMarker.ReplaceAllString(row.Value, "")
		value, _, _ = strings.Cut(value, "\n")
		value = strings.TrimSpace(value)
		if value == "" {
			return "", false
		}
		return value, true
	}
	return "", false
}
