package postgres

import (
	"context"
	"fmt"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
	qb "github.com/PrOLmOg/MatchMapProject/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
)

type CompetitionRepository struct {
	db *sqlx.DB
}

func NewCompetitionRepository(db *sqlx.DB) *CompetitionRepository {
	return &CompetitionRepository{db: db}
}

func (r *CompetitionRepository) List(ctx context.Context) ([]competition.Competition, error) {
	query, args, err := qb.Select("*").From("competitions").OrderBy("id").ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select competitions query: %w", err)
	}

	var rows []competitionTableModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select competitions: %w", err)
	}

	out := make([]competition.Competition, 0, len(rows))
	for _, row := range rows {
		out = append(out, competition.Competition{ID: row.ID, Name: row.Name})
	}
	return out, nil
}

// GetByName matches exactly. Names are not unique; the oldest row wins.
func (r *CompetitionRepository) GetByName(ctx context.Context, name string) (competition.Competition, bool, error) {
	query, args, err := qb.Select("*").From("competitions").
		Where(qb.Eq("name", name)).
		OrderBy("created_at", "id").
		Limit(1).
		ToSQL()
	if err != nil {
		return competition.Competition{}, false, fmt.Errorf("build get competition by name query: %w", err)
	}

	var row competitionTableModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return competition.Competition{}, false, nil
		}
		return competition.Competition{}, false, fmt.Errorf("get competition by name: %w", err)
	}
	return competition.Competition{ID: row.ID, Name: row.Name}, true, nil
}

func (r *CompetitionRepository) Create(ctx context.Context, item competition.Competition) error {
	query, args, err := qb.InsertModel("competitions", competitionInsertModel{ID: item.ID, Name: item.Name}, "")
	if err != nil {
		return fmt.Errorf("build insert competition query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("insert competition id=%s: already exists: %w", item.ID, err)
		}
		return fmt.Errorf("insert competition id=%s: %w", item.ID, err)
	}
	return nil
}

// UpsertMany writes all rows in one transaction, overwriting names of existing ids.
func (r *CompetitionRepository) UpsertMany(ctx context.Context, items []competition.Competition) error {
	if len(items) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx upsert competitions: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	for _, item := range items {
		query, args, err := qb.InsertModel("competitions", competitionInsertModel{ID: item.ID, Name: item.Name}, `ON CONFLICT (id)
DO UPDATE SET
    name = EXCLUDED.name,
    updated_at = NOW()`)
		if err != nil {
			return fmt.Errorf("build upsert competition query: %w", err)
		}
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("upsert competition id=%s: %w", item.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit upsert competitions tx: %w", err)
	}
	return nil
}
