package cache

import (
	"context"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
	basecache "github.com/PrOLmOg/MatchMapProject/internal/platform/cache"
)

const competitionKeyPrefix = "competition:"

// CompetitionRepository caches competition reads. Matches are not cached because
// their queries are relative to the current time.
type CompetitionRepository struct {
	next  competition.Repository
	cache *basecache.Store
}

func NewCompetitionRepository(next competition.Repository, cache *basecache.Store) *CompetitionRepository {
	return &CompetitionRepository{next: next, cache: cache}
}

func (r *CompetitionRepository) List(ctx context.Context) ([]competition.Competition, error) {
	v, err := r.cache.GetOrLoad(ctx, competitionKeyPrefix+"list", func(ctx context.Context) (any, error) {
		items, err := r.next.List(ctx)
		if err != nil {
			return nil, err
		}
		return append([]competition.Competition(nil), items...), nil
	})
	if err != nil {
		return nil, err
	}

	items, _ := v.([]competition.Competition)
	return append([]competition.Competition(nil), items...), nil
}

func (r *CompetitionRepository) GetByName(ctx context.Context, name string) (competition.Competition, bool, error) {
	key := competitionKeyPrefix + "name:" + name
	v, err := r.cache.GetOrLoad(ctx, key, func(ctx context.Context) (any, error) {
		item, exists, err := r.next.GetByName(ctx, name)
		if err != nil {
			return nil, err
		}
		return cachedCompetition{value: item, exists: exists}, nil
	})
	if err != nil {
		return competition.Competition{}, false, err
	}

	cached, _ := v.(cachedCompetition)
	return cached.value, cached.exists, nil
}

func (r *CompetitionRepository) Create(ctx context.Context, item competition.Competition) error {
	if err := r.next.Create(ctx, item); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, competitionKeyPrefix)
	return nil
}

func (r *CompetitionRepository) UpsertMany(ctx context.Context, items []competition.Competition) error {
	if err := r.next.UpsertMany(ctx, items); err != nil {
		return err
	}
	r.cache.DeletePrefix(ctx, competitionKeyPrefix)
	return nil
}

type cachedCompetition struct {
	value  competition.Competition
	exists bool
}
