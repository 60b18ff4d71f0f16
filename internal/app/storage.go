package app

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/jonboulle/clockwork"

	"github.com/PrOLmOg/MatchMapProject/internal/config"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	cacherepo "github.com/PrOLmOg/MatchMapProject/internal/infrastructure/repository/cache"
	"github.com/PrOLmOg/MatchMapProject/internal/infrastructure/repository/memory"
	"github.com/PrOLmOg/MatchMapProject/internal/infrastructure/repository/postgres"
	basecache "github.com/PrOLmOg/MatchMapProject/internal/platform/cache"
	"github.com/PrOLmOg/MatchMapProject/internal/platform/logging"
)

type repositories struct {
	competitions competition.Repository
	matches      match.Repository
	db           *sqlx.DB
}

func newRepositories(cfg config.Config, clock clockwork.Clock, logger *logging.Logger) (repositories, error) {
	var out repositories

	switch cfg.StorageDriver {
	case config.StorageDriverMemory:
		comps := memory.NewCompetitionRepository(memory.SeedCompetitions())
		out.competitions = comps
		out.matches = memory.NewMatchRepository(comps, memory.SeedMatches(clock.Now()))
		logger.Warn("using in-memory storage; data is lost on restart")
	case config.StorageDriverPostgres:
		db, err := openDB(cfg, logger)
		if err != nil {
			return repositories{}, err
		}
		out.db = db
		out.competitions = postgres.NewCompetitionRepository(db)
		out.matches = postgres.NewMatchRepository(db)
	default:
		return repositories{}, fmt.Errorf("unsupported storage driver %q", cfg.StorageDriver)
	}

	if cfg.CacheEnabled {
		store := basecache.NewStore(cfg.CacheTTL, basecache.WithClock(clock))
		out.competitions = cacherepo.NewCompetitionRepository(out.competitions, store)
	}
	return out, nil
}
