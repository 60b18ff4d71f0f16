package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/id"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
)

// Layouts accepted for match_date. Inputs without a zone are read as UTC.
var matchDateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
}

type AdminMatchInput struct {
	TeamHome        string
	TeamAway        string
	CompetitionName string
	MatchDate       string
	StadiumName     string
}

type AdminMatchService struct {
	matchRepo       match.Repository
	competitionRepo competition.Repository
	resolver        VenueResolver
	matchIDs        id.Generator
	competitionIDs  id.Generator
	logger          *logging.Logger
}

func NewAdminMatchService(
	matchRepo match.Repository,
	competitionRepo competition.Repository,
	resolver VenueResolver,
	matchIDs id.Generator,
	competitionIDs id.Generator,
	logger *logging.Logger,
) *AdminMatchService {
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminMatchService{
		matchRepo:       matchRepo,
		competitionRepo: competitionRepo,
		resolver:        resolver,
		matchIDs:        matchIDs,
		competitionIDs:  competitionIDs,
		logger:          logger,
	}
}

// List returns every stored match, past ones included, ordered by date.
func (s *AdminMatchService) List(ctx context.Context) ([]match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminMatchService.List")
	defer span.End()

	items, err := s.matchRepo.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	return items, nil
}

func (s *AdminMatchService) Get(ctx context.Context, matchID string) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminMatchService.Get")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	item, exists, err := s.matchRepo.GetByID(ctx, matchID)
	if err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	}
	if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	return item, nil
}

func (s *AdminMatchService) Create(ctx context.Context, input AdminMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminMatchService.Create")
	defer span.End()

	item, err := s.prepare(ctx, input)
	if err != nil {
		return match.Match{}, err
	}

	matchID, err := s.matchIDs.NewID()
	if err != nil {
		return match.Match{}, fmt.Errorf("generate match id: %w", err)
	}
	item.ID = matchID

	if err := s.matchRepo.Create(ctx, item); err != nil {
		return match.Match{}, fmt.Errorf("create match: %w", err)
	}
	s.logger.InfoContext(ctx, "match created", "match_id", item.ID, "competition", item.CompetitionName)
	return item, nil
}

func (s *AdminMatchService) Update(ctx context.Context, matchID string, input AdminMatchInput) (match.Match, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminMatchService.Update")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return match.Match{}, fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}
	if _, err := parseAdminInput(input); err != nil {
		return match.Match{}, err
	}

	// Checked before geocoding so a missing row never creates a competition.
	if _, exists, err := s.matchRepo.GetByID(ctx, matchID); err != nil {
		return match.Match{}, fmt.Errorf("get match: %w", err)
	} else if !exists {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}

	item, err := s.prepare(ctx, input)
	if err != nil {
		return match.Match{}, err
	}
	item.ID = matchID

	updated, err := s.matchRepo.Update(ctx, item)
	if err != nil {
		return match.Match{}, fmt.Errorf("update match: %w", err)
	}
	if !updated {
		return match.Match{}, fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	s.logger.InfoContext(ctx, "match updated", "match_id", item.ID)
	return item, nil
}

func (s *AdminMatchService) Delete(ctx context.Context, matchID string) error {
	ctx, span := startUsecaseSpan(ctx, "usecase.AdminMatchService.Delete")
	defer span.End()

	matchID = strings.TrimSpace(matchID)
	if matchID == "" {
		return fmt.Errorf("%w: match id is required", ErrInvalidInput)
	}

	deleted, err := s.matchRepo.Delete(ctx, matchID)
	if err != nil {
		return fmt.Errorf("delete match: %w", err)
	}
	if !deleted {
		return fmt.Errorf("%w: match=%s", ErrNotFound, matchID)
	}
	s.logger.InfoContext(ctx, "match deleted", "match_id", matchID)
	return nil
}

// prepare validates input, geocodes the stadium and resolves the competition, in that order.
func (s *AdminMatchService) prepare(ctx context.Context, input AdminMatchInput) (match.Match, error) {
	item, err := parseAdminInput(input)
	if err != nil {
		return match.Match{}, err
	}

	point, ok := s.resolver.ResolveCoordinates(ctx, item.StadiumName)
	if !ok {
		return match.Match{}, fmt.Errorf("%w: could not geocode stadium %q", ErrInvalidInput, item.StadiumName)
	}
	item.Location = point

	comp, err := s.resolveCompetition(ctx, item.CompetitionName)
	if err != nil {
		return match.Match{}, err
	}
	item.CompetitionID = comp.ID
	item.CompetitionName = comp.Name
	return item, nil
}

func (s *AdminMatchService) resolveCompetition(ctx context.Context, name string) (competition.Competition, error) {
	comp, exists, err := s.competitionRepo.GetByName(ctx, name)
	if err != nil {
		return competition.Competition{}, fmt.Errorf("get competition by name: %w", err)
	}
	if exists {
		return comp, nil
	}

	competitionID, err := s.competitionIDs.NewID()
	if err != nil {
		return competition.Competition{}, fmt.Errorf("generate competition id: %w", err)
	}
	comp = competition.Competition{ID: competitionID, Name: name}
	if err := s.competitionRepo.Create(ctx, comp); err != nil {
		return competition.Competition{}, fmt.Errorf("create competition: %w", err)
	}
	s.logger.InfoContext(ctx, "competition created", "competition_id", comp.ID, "competition", comp.Name)
	return comp, nil
}

func parseAdminInput(input AdminMatchInput) (match.Match, error) {
	item := match.Match{
		HomeTeam:        strings.TrimSpace(input.TeamHome),
		AwayTeam:        strings.TrimSpace(input.TeamAway),
		CompetitionName: strings.TrimSpace(input.CompetitionName),
		StadiumName:     strings.TrimSpace(input.StadiumName),
	}
	rawDate := strings.TrimSpace(input.MatchDate)

	var missing []string
	for _, field := range []struct{ name, value string }{
		{"team_home", item.HomeTeam},
		{"team_away", item.AwayTeam},
		{"competition_name", item.CompetitionName},
		{"match_date", rawDate},
		{"stadium_name", item.StadiumName},
	} {
		if field.value == "" {
			missing = append(missing, field.name)
		}
	}
	if len(missing) > 0 {
		return match.Match{}, fmt.Errorf("%w: missing required fields: %s", ErrInvalidInput, strings.Join(missing, ", "))
	}

	date, err := parseMatchDate(rawDate)
	if err != nil {
		return match.Match{}, fmt.Errorf("%w: match_date must be an RFC 3339 timestamp", ErrInvalidInput)
	}
	item.Date = date
	return item, nil
}

func parseMatchDate(raw string) (time.Time, error) {
	var lastErr error
	for _, layout := range matchDateLayouts {
		t, err := time.ParseInLocation(layout, raw, time.UTC)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, lastErr
}
