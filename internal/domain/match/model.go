package match

import (
	"strings"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
)

// Match is one scheduled fixture with a resolved venue.
type Match struct {
	ID              string
	HomeTeam        string
	AwayTeam        string
	CompetitionID   string
	CompetitionName string
	Date            time.Time
	StadiumName     string
	Location        stadium.Coordinates
}

// Proximity restricts results to a radius around a center point.
type Proximity struct {
	Center       stadium.Coordinates
	RadiusMeters float64
}

// Filter is the structured form of a match search. Zero fields are not applied.
// Before is exclusive.
type Filter struct {
	NotBefore time.Time
	League    string
	Team      string
	From      *time.Time
	Before    *time.Time
	Near      *Proximity
}

// Matches reports whether m satisfies every present predicate of f.
func (f Filter) Matches(m Match) bool {
	if !f.NotBefore.IsZero() && m.Date.Before(f.NotBefore) {
		return false
	}
	if f.League != "" && m.CompetitionName != f.League {
		return false
	}
	if f.Team != "" {
		needle := strings.ToLower(f.Team)
		if !strings.Contains(strings.ToLower(m.HomeTeam), needle) &&
			!strings.Contains(strings.ToLower(m.AwayTeam), needle) {
			return false
		}
	}
	if f.From != nil && m.Date.Before(*f.From) {
		return false
	}
	if f.Before != nil && !m.Date.Before(*f.Before) {
		return false
	}
	if f.Near != nil {
		if !m.Location.Valid() {
			return false
		}
		if stadium.DistanceMeters(f.Near.Center, m.Location) > f.Near.RadiusMeters {
			return false
		}
	}
	return true
}
