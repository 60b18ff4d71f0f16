package memory

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
)

type CompetitionRepository struct {
	mu     sync.RWMutex
	items  map[string]competition.Competition
	orders []string
}

func NewCompetitionRepository(competitions []competition.Competition) *CompetitionRepository {
	r := &CompetitionRepository{items: make(map[string]competition.Competition, len(competitions))}
	for _, c := range competitions {
		r.put(c)
	}
	return r
}

func (r *CompetitionRepository) List(_ context.Context) ([]competition.Competition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]competition.Competition, 0, len(r.orders))
	for _, id := range r.orders {
		out = append(out, r.items[id])
	}
	return out, nil
}

// GetByName matches exactly. Names are not unique; the earliest inserted row wins.
func (r *CompetitionRepository) GetByName(_ context.Context, name string) (competition.Competition, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, id := range r.orders {
		if c := r.items[id]; c.Name == name {
			return c, true, nil
		}
	}
	return competition.Competition{}, false, nil
}

func (r *CompetitionRepository) Create(_ context.Context, item competition.Competition) error {
	if strings.TrimSpace(item.ID) == "" {
		return fmt.Errorf("competition id is required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.items[item.ID]; exists {
		return fmt.Errorf("competition %s already exists", item.ID)
	}
	r.put(item)
	return nil
}

func (r *CompetitionRepository) UpsertMany(_ context.Context, items []competition.Competition) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, item := range items {
		r.put(item)
	}
	return nil
}

func (r *CompetitionRepository) nameOf(id string) string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.items[id].Name
}

func (r *CompetitionRepository) exists(id string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.items[id]
	return ok
}

// put must be called with mu held for writing.
func (r *CompetitionRepository) put(item competition.Competition) {
	if _, exists := r.items[item.ID]; !exists {
		r.orders = append(r.orders, item.ID)
	}
	r.items[item.ID] = item
}
