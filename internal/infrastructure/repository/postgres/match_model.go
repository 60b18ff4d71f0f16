package postgres

import (
	"database/sql"
	"time"

	qb "github.com/PrOLmOg/MatchMapProject/internal/platform/querybuilder"
)

// matchRowModel is a matches row joined with its competition name.
// Coordinates are read back from the geography column.
type matchRowModel struct {
	ExternalID      string          `db:"external_id"`
	TeamHome        string          `db:"team_home"`
	TeamAway        string          `db:"team_away"`
	CompetitionID   string          `db:"competition_id"`
	CompetitionName string          `db:"competition_name"`
	MatchDate       time.Time       `db:"match_date"`
	StadiumName     string          `db:"stadium_name"`
	Lat             sql.NullFloat64 `db:"lat"`
	Lon             sql.NullFloat64 `db:"lon"`
}

// matchInsertModel carries the location as a point expression so the
// coordinates stay bound parameters.
type matchInsertModel struct {
	ExternalID    string       `db:"external_id"`
	TeamHome      string       `db:"team_home"`
	TeamAway      string       `db:"team_away"`
	CompetitionID string       `db:"competition_id"`
	MatchDate     time.Time    `db:"match_date"`
	StadiumName   string       `db:"stadium_name"`
	Location      qb.Condition `db:"location"`
}

var matchSelectColumns = []string{
	"m.external_id",
	"m.team_home",
	"m.team_away",
	"m.competition_id",
	"c.name AS competition_name",
	"m.match_date",
	"m.stadium_name",
	"ST_Y(m.location::geometry) AS lat",
	"ST_X(m.location::geometry) AS lon",
}

const matchFromClause = "matches m JOIN competitions c ON c.id = m.competition_id"

// pointExpr renders a WGS84 geography point. PostGIS takes longitude first.
const pointExpr = "ST_SetSRID(ST_MakePoint(?, ?), 4326)::geography"
