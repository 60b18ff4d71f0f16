package postgres

import (
	"strings"
	"testing"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
	"github.com/lib/pq"
)

func TestContainsPatternEscapesWildcards(t *testing.T) {
	got := containsPattern(`50%_off\`)
	if got != `%50\%\_off\\%` {
		t.Fatalf("unexpected pattern: %s", got)
	}
}

func TestIsUniqueViolation(t *testing.T) {
	if !isUniqueViolation(&pq.Error{Code: "23505"}) {
		t.Fatalf("expected unique violation")
	}
	if isUniqueViolation(&pq.Error{Code: "23503"}) {
		t.Fatalf("foreign key violation is not a unique violation")
	}
	if isUniqueViolation(fakeErr("boom")) {
		t.Fatalf("plain error is not a unique violation")
	}
}

func TestBuildMatchQuery_AllFilters(t *testing.T) {
	now := time.Date(2025, 1, 1, 10, 0, 0, 0, time.UTC)
	from := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	before := from.AddDate(0, 0, 1)

	query, args, err := buildMatchQuery(match.Filter{
		NotBefore: now,
		League:    "Premier League",
		Team:      "Arsenal",
		From:      &from,
		Before:    &before,
		Near:      &match.Proximity{Center: stadium.Coordinates{Lat: 51.5, Lon: -0.12}, RadiusMeters: 5000},
	})
	if err != nil {
		t.Fatalf("build query: %v", err)
	}

	wantWhere := "WHERE m.location IS NOT NULL AND m.match_date >= $1 AND c.name = $2 AND " +
		"(m.team_home ILIKE $3 OR m.team_away ILIKE $4) AND m.match_date >= $5 AND m.match_date < $6 AND " +
		"ST_DWithin(m.location, ST_SetSRID(ST_MakePoint($7, $8), 4326)::geography, $9) " +
		"ORDER BY m.match_date ASC, m.external_id"
	if !strings.HasSuffix(query, wantWhere) {
		t.Fatalf("unexpected query:\nwant suffix: %s\ngot:         %s", wantWhere, query)
	}
	if len(args) != 9 {
		t.Fatalf("unexpected args: %+v", args)
	}
	if args[2] != "%Arsenal%" || args[6] != -0.12 || args[7] != 51.5 || args[8] != 5000.0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestBuildMatchQuery_NoFilters(t *testing.T) {
	query, args, err := buildMatchQuery(match.Filter{})
	if err != nil {
		t.Fatalf("build query: %v", err)
	}
	if !strings.Contains(query, "FROM matches m JOIN competitions c ON c.id = m.competition_id WHERE m.location IS NOT NULL ORDER BY") {
		t.Fatalf("unexpected query: %s", query)
	}
	if len(args) != 0 {
		t.Fatalf("unexpected args: %+v", args)
	}
}

func TestMatchInsertPutsLongitudeFirst(t *testing.T) {
	builder, err := matchInsert(match.Match{
		ID:            "1",
		CompetitionID: "2021",
		Location:      stadium.Coordinates{Lat: 51.555, Lon: -0.108},
	})
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}
	query, args, err := builder.Suffix("ON CONFLICT (external_id) DO NOTHING RETURNING external_id").ToSQL()
	if err != nil {
		t.Fatalf("build insert: %v", err)
	}
	if !strings.Contains(query, "ST_MakePoint($7, $8)") {
		t.Fatalf("unexpected query: %s", query)
	}
	if args[6] != -0.108 || args[7] != 51.555 {
		t.Fatalf("expected lon then lat, got %v %v", args[6], args[7])
	}
}

func TestToMatchWithoutLocationIsInvalid(t *testing.T) {
	m := toMatch(matchRowModel{ExternalID: "1"})
	if m.Location.Valid() {
		t.Fatalf("expected invalid location for null coordinates")
	}
}

type fakeErr string

func (e fakeErr) Error() string { return string(e) }
