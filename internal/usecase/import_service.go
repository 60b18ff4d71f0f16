package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
	"github.com/jonboulle/clockwork"
	"github.com/panjf2000/ants/v2"
	"go.opentelemetry.io/otel/attribute"
)

const defaultImportHorizon = 15 * 24 * time.Hour

type ImportConfig struct {
	// Horizon is how far ahead of now fixtures are kept.
	Horizon time.Duration
	Workers int
	Clock   clockwork.Clock
}

// ImportResult counts what one run did. Fixture counters are summed over competitions.
type ImportResult struct {
	CompetitionsSynced  int           `json:"competitions_synced"`
	CompetitionsScanned int           `json:"competitions_scanned"`
	CompetitionsFailed  int           `json:"competitions_failed"`
	CompetitionsSkipped int           `json:"competitions_skipped"`
	FixturesFetched     int           `json:"fixtures_fetched"`
	OutOfWindow         int           `json:"out_of_window"`
	AlreadyStored       int           `json:"already_stored"`
	Unresolved          int           `json:"unresolved"`
	Inserted            int           `json:"inserted"`
	Duplicates          int           `json:"duplicates"`
	InsertFailed        int           `json:"insert_failed"`
	Duration            time.Duration `json:"duration"`
}

type ImportService struct {
	provider        FixtureProvider
	competitionRepo competition.Repository
	matchRepo       match.Repository
	resolver        VenueResolver
	horizon         time.Duration
	workers         int
	clock           clockwork.Clock
	logger          *logging.Logger
}

func NewImportService(
	provider FixtureProvider,
	competitionRepo competition.Repository,
	matchRepo match.Repository,
	resolver VenueResolver,
	cfg ImportConfig,
	logger *logging.Logger,
) *ImportService {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Horizon <= 0 {
		cfg.Horizon = defaultImportHorizon
	}
	if cfg.Workers < 1 {
		cfg.Workers = 4
	}
	if cfg.Clock == nil {
		cfg.Clock = clockwork.NewRealClock()
	}

	return &ImportService{
		provider:        provider,
		competitionRepo: competitionRepo,
		matchRepo:       matchRepo,
		resolver:        resolver,
		horizon:         cfg.Horizon,
		workers:         cfg.Workers,
		clock:           cfg.Clock,
		logger:          logger,
	}
}

// Run syncs competitions, then matches. Only top-level failures are returned.
func (s *ImportService) Run(ctx context.Context) (ImportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.Run")
	defer span.End()

	start := s.clock.Now()
	synced, err := s.SyncCompetitions(ctx)
	if err != nil {
		s.logger.ErrorContext(ctx, "import aborted", "phase", "competitions", "error", err)
		return ImportResult{}, err
	}

	result, err := s.SyncMatches(ctx)
	result.CompetitionsSynced = synced
	result.Duration = s.clock.Since(start)
	if err != nil {
		s.logger.ErrorContext(ctx, "import aborted", "phase", "matches", "error", err)
		return result, err
	}

	span.SetAttributes(
		attribute.Int("import.inserted", result.Inserted),
		attribute.Int("import.unresolved", result.Unresolved),
	)
	s.logger.InfoContext(ctx, "import finished",
		"competitions_synced", result.CompetitionsSynced,
		"competitions_scanned", result.CompetitionsScanned,
		"competitions_failed", result.CompetitionsFailed,
		"competitions_skipped", result.CompetitionsSkipped,
		"fixtures_fetched", result.FixturesFetched,
		"out_of_window", result.OutOfWindow,
		"already_stored", result.AlreadyStored,
		"unresolved", result.Unresolved,
		"inserted", result.Inserted,
		"duplicates", result.Duplicates,
		"insert_failed", result.InsertFailed,
		"duration", result.Duration,
	)
	return result, nil
}

// SyncCompetitions upserts every provider competition by id, overwriting names.
func (s *ImportService) SyncCompetitions(ctx context.Context) (int, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.SyncCompetitions")
	defer span.End()

	items, err := s.provider.ListCompetitions(ctx)
	if err != nil {
		return 0, fmt.Errorf("list provider competitions: %w", err)
	}

	out := make([]competition.Competition, 0, len(items))
	for _, item := range items {
		name := strings.TrimSpace(item.Name)
		if item.ExternalID <= 0 || name == "" {
			s.logger.WarnContext(ctx, "skip provider competition without id or name", "external_id", item.ExternalID)
			continue
		}
		out = append(out, competition.Competition{
			ID:   strconv.FormatInt(item.ExternalID, 10),
			Name: name,
		})
	}
	if len(out) == 0 {
		return 0, nil
	}

	if err := s.competitionRepo.UpsertMany(ctx, out); err != nil {
		return 0, fmt.Errorf("upsert competitions: %w", err)
	}
	s.logger.InfoContext(ctx, "competitions synced", "count", len(out))
	return len(out), nil
}

// SyncMatches imports upcoming fixtures for every stored competition.
func (s *ImportService) SyncMatches(ctx context.Context) (ImportResult, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ImportService.SyncMatches")
	defer span.End()

	var result ImportResult

	competitions, err := s.competitionRepo.List(ctx)
	if err != nil {
		return result, fmt.Errorf("list stored competitions: %w", err)
	}

	pool, err := ants.NewPool(s.workers)
	if err != nil {
		return result, fmt.Errorf("create worker pool: %w", err)
	}
	defer pool.Release()

	for _, comp := range competitions {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		result.CompetitionsScanned++

		counts, err := s.syncCompetitionMatches(ctx, pool, comp)
		result.add(counts)
		switch {
		case err == nil:
		case errors.Is(err, ErrMissingCredential):
			return result, fmt.Errorf("competition=%s: %w", comp.ID, err)
		case errors.Is(err, ErrNotFound):
			result.CompetitionsSkipped++
			s.logger.DebugContext(ctx, "competition unknown to provider", "competition_id", comp.ID, "competition", comp.Name)
		default:
			result.CompetitionsFailed++
			s.logger.WarnContext(ctx, "competition import failed", "competition_id", comp.ID, "competition", comp.Name, "error", err)
		}
	}

	return result, nil
}

type fixtureCounts struct {
	fetched, outOfWindow, alreadyStored, unresolved, inserted, duplicates, insertFailed int
}

func (r *ImportResult) add(c fixtureCounts) {
	r.FixturesFetched += c.fetched
	r.OutOfWindow += c.outOfWindow
	r.AlreadyStored += c.alreadyStored
	r.Unresolved += c.unresolved
	r.Inserted += c.inserted
	r.Duplicates += c.duplicates
	r.InsertFailed += c.insertFailed
}

func (s *ImportService) syncCompetitionMatches(ctx context.Context, pool *ants.Pool, comp competition.Competition) (fixtureCounts, error) {
	var counts fixtureCounts

	fixtures, err := s.provider.ListMatches(ctx, comp.ID)
	if err != nil {
		return counts, fmt.Errorf("list provider matches: %w", err)
	}
	counts.fetched = len(fixtures)

	now := s.clock.Now().UTC()
	until := now.Add(s.horizon)

	candidates := make([]ExternalMatch, 0, len(fixtures))
	ids := make([]string, 0, len(fixtures))
	for _, fx := range fixtures {
		if fx.KickoffAt.Before(now) || fx.KickoffAt.After(until) {
			counts.outOfWindow++
			continue
		}
		candidates = append(candidates, fx)
		ids = append(ids, strconv.FormatInt(fx.ExternalID, 10))
	}
	if len(candidates) == 0 {
		return counts, nil
	}

	stored, err := s.matchRepo.ExistingIDs(ctx, ids)
	if err != nil {
		return counts, fmt.Errorf("load stored match ids: %w", err)
	}

	var unresolved, inserted, duplicates, insertFailed atomic.Int32
	var workers sync.WaitGroup
	for i, fx := range candidates {
		if _, ok := stored[ids[i]]; ok {
			counts.alreadyStored++
			continue
		}

		fx := fx
		matchID := ids[i]
		workers.Add(1)
		if err := pool.Submit(func() {
			defer workers.Done()

			item, ok := s.resolveMatch(ctx, comp, matchID, fx)
			if !ok {
				unresolved.Add(1)
				return
			}

			created, err := s.matchRepo.InsertIfAbsent(ctx, item)
			switch {
			case err != nil:
				insertFailed.Add(1)
				s.logger.WarnContext(ctx, "insert match failed", "match_id", matchID, "error", err)
			case created:
				inserted.Add(1)
			default:
				duplicates.Add(1)
			}
		}); err != nil {
			workers.Done()
			workers.Wait()
			return counts, fmt.Errorf("submit fixture to worker pool: %w", err)
		}
	}
	workers.Wait()

	counts.unresolved = int(unresolved.Load())
	counts.inserted = int(inserted.Load())
	counts.duplicates = int(duplicates.Load())
	counts.insertFailed = int(insertFailed.Load())
	return counts, nil
}

func (s *ImportService) resolveMatch(ctx context.Context, comp competition.Competition, matchID string, fx ExternalMatch) (match.Match, bool) {
	stadiumName, ok := s.resolver.ResolveStadium(ctx, fx.HomeTeam)
	if !ok {
		s.logger.InfoContext(ctx, "skip match: stadium not found", "match_id", matchID, "home_team", fx.HomeTeam)
		return match.Match{}, false
	}

	point, ok := s.resolver.ResolveCoordinates(ctx, stadiumName)
	if !ok {
		s.logger.InfoContext(ctx, "skip match: stadium not geocoded", "match_id", matchID, "stadium", stadiumName)
		return match.Match{}, false
	}

	return match.Match{
		ID:              matchID,
		HomeTeam:        strings.TrimSpace(fx.HomeTeam),
		AwayTeam:        strings.TrimSpace(fx.AwayTeam),
		CompetitionID:   comp.ID,
		CompetitionName: comp.Name,
		Date:            fx.KickoffAt.UTC(),
		StadiumName:     stadiumName,
		Location:        point,
	}, true
}
