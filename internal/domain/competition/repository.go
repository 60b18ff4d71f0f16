package competition

import "context"

// Repository exposes competition storage operations.
type Repository interface {
	List(ctx context.Context) ([]Competition, error)
	GetByName(ctx context.Context, name string) (Competition, bool, error)
	Create(ctx context.Context, item Competition) error
	UpsertMany(ctx context.Context, items []Competition) error
}
