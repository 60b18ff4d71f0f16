package match

import "context"

// Repository exposes match storage operations.
type Repository interface {
	Query(ctx context.Context, filter Filter) ([]Match, error)
	List(ctx context.Context) ([]Match, error)
	GetByID(ctx context.Context, matchID string) (Match, bool, error)
	ExistingIDs(ctx context.Context, matchIDs []string) (map[string]struct{}, error)
	InsertIfAbsent(ctx context.Context, item Match) (bool, error)
	Create(ctx context.Context, item Match) error
	Update(ctx context.Context, item Match) (bool, error)
	Delete(ctx context.Context, matchID string) (bool, error)
}
