package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
)

// MatchRepository keeps matches in process memory. Competition names are read
// from the competition repository so renames show up in results.
type MatchRepository struct {
	mu           sync.RWMutex
	items        map[string]match.Match
	competitions *CompetitionRepository
}

func NewMatchRepository(competitions *CompetitionRepository, matches []match.Match) *MatchRepository {
	if competitions == nil {
		competitions = NewCompetitionRepository(nil)
	}
	items := make(map[string]match.Match, len(matches))
	for _, m := range matches {
		items[m.ID] = m
	}
	return &MatchRepository{items: items, competitions: competitions}
}

func (r *MatchRepository) Query(_ context.Context, filter match.Filter) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0)
	for _, item := range r.items {
		item = r.withCompetitionName(item)
		if !item.Location.Valid() || !filter.Matches(item) {
			continue
		}
		out = append(out, item)
	}
	sortByDate(out)
	return out, nil
}

func (r *MatchRepository) List(_ context.Context) ([]match.Match, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]match.Match, 0, len(r.items))
	for _, item := range r.items {
		out = append(out, r.withCompetitionName(item))
	}
	sortByDate(out)
	return out, nil
}

func (r *MatchRepository) GetByID(_ context.Context, matchID string) (match.Match, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	item, ok := r.items[matchID]
	if !ok {
		return match.Match{}, false, nil
	}
	return r.withCompetitionName(item), true, nil
}

func (r *MatchRepository) ExistingIDs(_ context.Context, matchIDs []string) (map[string]struct{}, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make(map[string]struct{}, len(matchIDs))
	for _, id := range matchIDs {
		if _, ok := r.items[id]; ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}

func (r *MatchRepository) InsertIfAbsent(_ context.Context, item match.Match) (bool, error) {
	if err := r.checkCompetition(item); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return false, nil
	}
	r.items[item.ID] = item
	return true, nil
}

func (r *MatchRepository) Create(_ context.Context, item match.Match) error {
	if err := r.checkCompetition(item); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("match %s already exists", item.ID)
	}
	r.items[item.ID] = item
	return nil
}

func (r *MatchRepository) Update(_ context.Context, item match.Match) (bool, error) {
	if err := r.checkCompetition(item); err != nil {
		return false, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; !exists {
		return false, nil
	}
	r.items[item.ID] = item
	return true, nil
}

func (r *MatchRepository) Delete(_ context.Context, matchID string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[matchID]; !exists {
		return false, nil
	}
	delete(r.items, matchID)
	return true, nil
}

func (r *MatchRepository) checkCompetition(item match.Match) error {
	if item.ID == "" {
		return fmt.Errorf("match id is required")
	}
	if !r.competitions.exists(item.CompetitionID) {
		return fmt.Errorf("competition %s does not exist", item.CompetitionID)
	}
	return nil
}

func (r *MatchRepository) withCompetitionName(item match.Match) match.Match {
	if name := r.competitions.nameOf(item.CompetitionID); name != "" {
		item.CompetitionName = name
	}
	return item
}

func sortByDate(items []match.Match) {
	sort.SliceStable(items, func(i, j int) bool {
		if !items[i].Date.Equal(items[j].Date) {
			return items[i].Date.Before(items[j].Date)
		}
		return items[i].ID < items[j].ID
	})
}
