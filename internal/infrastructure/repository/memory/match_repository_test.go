package memory

import (
	"context"
	"testing"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
)

func newSeededRepos(now time.Time) (*CompetitionRepository, *MatchRepository) {
	competitions := NewCompetitionRepository(SeedCompetitions())
	return competitions, NewMatchRepository(competitions, SeedMatches(now))
}

func TestMatchRepository_QueryFilters(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	_, repo := newSeededRepos(now)
	ctx := context.Background()

	t.Run("league exact", func(t *testing.T) {
		got, err := repo.Query(ctx, match.Filter{NotBefore: now, League: "Premier League"})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 2 || got[0].ID != "seed-pl-1" || got[1].ID != "seed-pl-2" {
			t.Fatalf("unexpected matches: %+v", got)
		}
		if got[0].CompetitionName != "Premier League" {
			t.Fatalf("competition name not joined: %q", got[0].CompetitionName)
		}
	})

	t.Run("team substring on either side", func(t *testing.T) {
		got, err := repo.Query(ctx, match.Filter{NotBefore: now, Team: "madrid"})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 1 || got[0].ID != "seed-pd-1" {
			t.Fatalf("unexpected matches: %+v", got)
		}
	})

	t.Run("radius around London", func(t *testing.T) {
		got, err := repo.Query(ctx, match.Filter{
			NotBefore: now,
			Near:      &match.Proximity{Center: stadium.Coordinates{Lat: 51.5074, Lon: -0.1278}, RadiusMeters: 25000},
		})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		if len(got) != 1 || got[0].StadiumName != "Emirates Stadium" {
			t.Fatalf("unexpected matches: %+v", got)
		}
	})

	t.Run("past matches excluded", func(t *testing.T) {
		later := now.AddDate(0, 0, 4)
		got, err := repo.Query(ctx, match.Filter{NotBefore: later})
		if err != nil {
			t.Fatalf("query: %v", err)
		}
		for _, m := range got {
			if m.Date.Before(later) {
				t.Fatalf("match %s dated %s is before %s", m.ID, m.Date, later)
			}
		}
	})
}

func TestMatchRepository_InsertIfAbsentIsIdempotent(t *testing.T) {
	t.Parallel()

	competitions := NewCompetitionRepository([]competition.Competition{{ID: "2021", Name: "Premier League"}})
	repo := NewMatchRepository(competitions, nil)
	item := match.Match{ID: "500", CompetitionID: "2021", Date: time.Now().Add(time.Hour)}

	created, err := repo.InsertIfAbsent(context.Background(), item)
	if err != nil || !created {
		t.Fatalf("first insert: created=%v err=%v", created, err)
	}
	created, err = repo.InsertIfAbsent(context.Background(), item)
	if err != nil || created {
		t.Fatalf("second insert: created=%v err=%v", created, err)
	}

	if _, err := repo.InsertIfAbsent(context.Background(), match.Match{ID: "501", CompetitionID: "missing"}); err == nil {
		t.Fatalf("expected error for unknown competition")
	}
}

func TestMatchRepository_UpdateDeleteMissing(t *testing.T) {
	t.Parallel()

	competitions := NewCompetitionRepository([]competition.Competition{{ID: "c1", Name: "Cup"}})
	repo := NewMatchRepository(competitions, nil)

	updated, err := repo.Update(context.Background(), match.Match{ID: "nope", CompetitionID: "c1"})
	if err != nil || updated {
		t.Fatalf("update missing: updated=%v err=%v", updated, err)
	}
	deleted, err := repo.Delete(context.Background(), "nope")
	if err != nil || deleted {
		t.Fatalf("delete missing: deleted=%v err=%v", deleted, err)
	}
}

func TestCompetitionRepository_UpsertOverwritesName(t *testing.T) {
	t.Parallel()

	repo := NewCompetitionRepository(nil)
	ctx := context.Background()
	if err := repo.UpsertMany(ctx, []competition.Competition{{ID: "2021", Name: "EPL"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	if err := repo.UpsertMany(ctx, []competition.Competition{{ID: "2021", Name: "Premier League"}}); err != nil {
		t.Fatalf("upsert: %v", err)
	}

	items, _ := repo.List(ctx)
	if len(items) != 1 || items[0].Name != "Premier League" {
		t.Fatalf("unexpected competitions: %+v", items)
	}
	if _, ok, _ := repo.GetByName(ctx, "EPL"); ok {
		t.Fatalf("old name should no longer resolve")
	}
}
