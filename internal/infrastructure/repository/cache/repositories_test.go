package cache

import (
	"context"
	"testing"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
	"github.com/PrOLmOg/MatchMapProject/internal/infrastructure/repository/memory"
	basecache "github.com/PrOLmOg/MatchMapProject/internal/platform/cache"
)

type countingCompetitionRepo struct {
	competition.Repository
	getByName int
	list      int
}

func (r *countingCompetitionRepo) GetByName(ctx context.Context, name string) (competition.Competition, bool, error) {
	r.getByName++
	return r.Repository.GetByName(ctx, name)
}

func (r *countingCompetitionRepo) List(ctx context.Context) ([]competition.Competition, error) {
	r.list++
	return r.Repository.List(ctx)
}

func TestCompetitionRepository_GetByNameCachesMisses(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := &countingCompetitionRepo{Repository: memory.NewCompetitionRepository(memory.SeedCompetitions())}
	repo := NewCompetitionRepository(next, basecache.NewStore(time.Minute))

	for i := 0; i < 3; i++ {
		if _, exists, err := repo.GetByName(ctx, "Friendlies"); err != nil || exists {
			t.Fatalf("expected cached miss, exists=%v err=%v", exists, err)
		}
	}
	if next.getByName != 1 {
		t.Fatalf("expected one backend lookup, got %d", next.getByName)
	}

	if err := repo.Create(ctx, competition.Competition{ID: "cmp_1", Name: "Friendlies"}); err != nil {
		t.Fatalf("create competition: %v", err)
	}

	item, exists, err := repo.GetByName(ctx, "Friendlies")
	if err != nil || !exists || item.ID != "cmp_1" {
		t.Fatalf("expected fresh lookup after create, got %+v exists=%v err=%v", item, exists, err)
	}
	if next.getByName != 2 {
		t.Fatalf("expected cache invalidation on create, got %d lookups", next.getByName)
	}
}

func TestCompetitionRepository_UpsertInvalidatesList(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	next := &countingCompetitionRepo{Repository: memory.NewCompetitionRepository(memory.SeedCompetitions())}
	repo := NewCompetitionRepository(next, basecache.NewStore(time.Minute))

	items, err := repo.List(ctx)
	if err != nil || len(items) != 2 {
		t.Fatalf("unexpected list: %v err=%v", items, err)
	}
	items[0].Name = "mutated"

	again, _ := repo.List(ctx)
	if again[0].Name == "mutated" || next.list != 1 {
		t.Fatalf("expected isolated cached copy from one load, got %+v loads=%d", again, next.list)
	}

	if err := repo.UpsertMany(ctx, []competition.Competition{{ID: "2002", Name: "Bundesliga"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	items, _ = repo.List(ctx)
	if len(items) != 3 || next.list != 2 {
		t.Fatalf("expected reload after upsert, got %d items loads=%d", len(items), next.list)
	}
}
