package usecase

import (
	"context"
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
)

// FixtureProvider lists competitions and scheduled matches from the upstream fixtures API.
type FixtureProvider interface {
	ListCompetitions(ctx context.Context) ([]ExternalCompetition, error)
	ListMatches(ctx context.Context, competitionID string) ([]ExternalMatch, error)
}

type ExternalCompetition struct {
	ExternalID int64
	Name       string
}

type ExternalMatch struct {
	ExternalID    int64
	CompetitionID int64
	HomeTeam      string
	AwayTeam      string
	KickoffAt     time.Time
	Status        string
}

// WikiSource finds an article for a query and returns its infobox rows.
// A page without an infobox yields no rows and no error.
type WikiSource interface {
	SearchFirstTitle(ctx context.Context, query string) (string, bool, error)
	FetchInfobox(ctx context.Context, title string) ([]stadium.InfoboxRow, error)
}

// Geocoder turns a free-form place name into a single point.
type Geocoder interface {
	Geocode(ctx context.Context, query string) (stadium.Coordinates, bool, error)
}

// VenueResolver is the best-effort lookup used by the importer and admin writes.
type VenueResolver interface {
	ResolveStadium(ctx context.Context, teamName string) (string, bool)
	ResolveCoordinates(ctx context.Context, stadiumName string) (stadium.Coordinates, bool)
}
