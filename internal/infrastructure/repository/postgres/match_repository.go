package postgres

import (
	"context"
	"fmt"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
	qb "github.com/PrOLmOg/MatchMapProject/internal/platform/querybuilder"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

type MatchRepository struct {
	db *sqlx.DB
}

func NewMatchRepository(db *sqlx.DB) *MatchRepository {
	return &MatchRepository{db: db}
}

func (r *MatchRepository) Query(ctx context.Context, filter match.Filter) ([]match.Match, error) {
	query, args, err := buildMatchQuery(filter)
	if err != nil {
		return nil, fmt.Errorf("build query matches: %w", err)
	}
	return r.selectMatches(ctx, query, args)
}

func (r *MatchRepository) List(ctx context.Context) ([]match.Match, error) {
	query, args, err := qb.Select(matchSelectColumns...).
		From(matchFromClause).
		OrderBy("m.match_date ASC", "m.external_id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build list matches query: %w", err)
	}
	return r.selectMatches(ctx, query, args)
}

func (r *MatchRepository) GetByID(ctx context.Context, matchID string) (match.Match, bool, error) {
	query, args, err := qb.Select(matchSelectColumns...).
		From(matchFromClause).
		Where(qb.Eq("m.external_id", matchID)).
		ToSQL()
	if err != nil {
		return match.Match{}, false, fmt.Errorf("build get match query: %w", err)
	}

	var row matchRowModel
	if err := r.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return match.Match{}, false, nil
		}
		return match.Match{}, false, fmt.Errorf("get match external_id=%s: %w", matchID, err)
	}
	return toMatch(row), true, nil
}

func (r *MatchRepository) ExistingIDs(ctx context.Context, matchIDs []string) (map[string]struct{}, error) {
	out := make(map[string]struct{}, len(matchIDs))
	if len(matchIDs) == 0 {
		return out, nil
	}

	query, args, err := qb.Select("external_id").
		From("matches").
		Where(qb.Expr("external_id = ANY(?)", pq.Array(matchIDs))).
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build existing match ids query: %w", err)
	}

	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, args...); err != nil {
		return nil, fmt.Errorf("select existing match ids: %w", err)
	}
	for _, id := range ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// InsertIfAbsent relies on the unique external_id; concurrent importers never duplicate rows.
func (r *MatchRepository) InsertIfAbsent(ctx context.Context, item match.Match) (bool, error) {
	builder, err := matchInsert(item)
	if err != nil {
		return false, fmt.Errorf("build insert match query: %w", err)
	}
	query, args, err := builder.
		Suffix("ON CONFLICT (external_id) DO NOTHING RETURNING external_id").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert match query: %w", err)
	}

	var inserted string
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&inserted); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("insert match external_id=%s: %w", item.ID, err)
	}
	return true, nil
}

func (r *MatchRepository) Create(ctx context.Context, item match.Match) error {
	builder, err := matchInsert(item)
	if err != nil {
		return fmt.Errorf("build create match query: %w", err)
	}
	query, args, err := builder.ToSQL()
	if err != nil {
		return fmt.Errorf("build create match query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("create match external_id=%s: %w", item.ID, err)
	}
	return nil
}

func (r *MatchRepository) Update(ctx context.Context, item match.Match) (bool, error) {
	query, args, err := qb.Update("matches").
		Set("team_home", item.HomeTeam).
		Set("team_away", item.AwayTeam).
		Set("competition_id", item.CompetitionID).
		Set("match_date", item.Date.UTC()).
		Set("stadium_name", item.StadiumName).
		SetExpr("location", pointExpr, item.Location.Lon, item.Location.Lat).
		SetExpr("updated_at", "NOW()").
		Where(qb.Eq("external_id", item.ID)).
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build update match query: %w", err)
	}

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("update match external_id=%s: %w", item.ID, err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("update match rows affected: %w", err)
	}
	return affected > 0, nil
}

func (r *MatchRepository) Delete(ctx context.Context, matchID string) (bool, error) {
	query, args, err := qb.DeleteFrom("matches").
		Where(qb.Eq("external_id", matchID)).
		Suffix("RETURNING external_id").
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build delete match query: %w", err)
	}

	var deleted string
	if err := r.db.QueryRowxContext(ctx, query, args...).Scan(&deleted); err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("delete match external_id=%s: %w", matchID, err)
	}
	return true, nil
}

func (r *MatchRepository) selectMatches(ctx context.Context, query string, args []any) ([]match.Match, error) {
	var rows []matchRowModel
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select matches: %w", err)
	}

	out := make([]match.Match, 0, len(rows))
	for _, row := range rows {
		out = append(out, toMatch(row))
	}
	return out, nil
}

func buildMatchQuery(filter match.Filter) (string, []any, error) {
	conditions := []qb.Condition{qb.Expr("m.location IS NOT NULL")}
	if !filter.NotBefore.IsZero() {
		conditions = append(conditions, qb.Gte("m.match_date", filter.NotBefore.UTC()))
	}
	if filter.League != "" {
		conditions = append(conditions, qb.Eq("c.name", filter.League))
	}
	if filter.Team != "" {
		pattern := containsPattern(filter.Team)
		conditions = append(conditions, qb.Or(
			qb.ILike("m.team_home", pattern),
			qb.ILike("m.team_away", pattern),
		))
	}
	if filter.From != nil {
		conditions = append(conditions, qb.Gte("m.match_date", filter.From.UTC()))
	}
	if filter.Before != nil {
		conditions = append(conditions, qb.Lt("m.match_date", filter.Before.UTC()))
	}
	if filter.Near != nil {
		conditions = append(conditions, qb.Expr(
			"ST_DWithin(m.location, "+pointExpr+", ?)",
			filter.Near.Center.Lon,
			filter.Near.Center.Lat,
			filter.Near.RadiusMeters,
		))
	}

	return qb.Select(matchSelectColumns...).
		From(matchFromClause).
		Where(conditions...).
		OrderBy("m.match_date ASC", "m.external_id").
		ToSQL()
}

func matchInsert(item match.Match) (*qb.InsertBuilder, error) {
	return qb.InsertFromModel("matches", matchInsertModel{
		ExternalID:    item.ID,
		TeamHome:      item.HomeTeam,
		TeamAway:      item.AwayTeam,
		CompetitionID: item.CompetitionID,
		MatchDate:     item.Date.UTC(),
		StadiumName:   item.StadiumName,
		Location:      qb.Expr(pointExpr, item.Location.Lon, item.Location.Lat),
	})
}

func toMatch(row matchRowModel) match.Match {
	out := match.Match{
		ID:              row.ExternalID,
		HomeTeam:        row.TeamHome,
		AwayTeam:        row.TeamAway,
		CompetitionID:   row.CompetitionID,
		CompetitionName: row.CompetitionName,
		Date:            row.MatchDate.UTC(),
		StadiumName:     row.StadiumName,
	}
	if nullFloat64Valid(row.Lat, row.Lon) {
		out.Location = stadium.Coordinates{Lat: row.Lat.Float64, Lon: row.Lon.Float64}
	} else {
		// Unset location reads as invalid so callers drop it.
		out.Location = stadium.Coordinates{Lat: 999, Lon: 999}
	}
	return out
}
