package memory

import (
	"time"

	"github.com/PrOLmOg/MatchMapProject/internal/domain/competition"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/match"
	"github.com/PrOLmOg/MatchMapProject/internal/domain/stadium"
)

const (
	CompetitionIDPremierLeague = "2021"
	CompetitionIDLaLiga        = "2014"
)

func SeedCompetitions() []competition.Competition {
	return []competition.Competition{
		{ID: CompetitionIDPremierLeague, Name: "Premier League"},
		{ID: CompetitionIDLaLiga, Name: "Primera Division"},
	}
}

// SeedMatches returns upcoming fixtures relative to now so local runs always have results.
func SeedMatches(now time.Time) []match.Match {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, 1)

	return []match.Match{
		{
			ID:            "seed-pl-1",
			HomeTeam:      "Arsenal FC",
			AwayTeam:      "Chelsea FC",
			CompetitionID: CompetitionIDPremierLeague,
			Date:          day.Add(15 * time.Hour),
			StadiumName:   "Emirates Stadium",
			Location:      stadium.Coordinates{Lat: 51.5549, Lon: -0.1084},
		},
		{
			ID:            "seed-pl-2",
			HomeTeam:      "Liverpool FC",
			AwayTeam:      "Everton FC",
			CompetitionID: CompetitionIDPremierLeague,
			Date:          day.AddDate(0, 0, 2).Add(17*time.Hour + 30*time.Minute),
			StadiumName:   "Anfield",
			Location:      stadium.Coordinates{Lat: 53.4308, Lon: -2.9608},
		},
		{
			ID:            "seed-pd-1",
			HomeTeam:      "FC Barcelona",
			AwayTeam:      "Real Madrid CF",
			CompetitionID: CompetitionIDLaLiga,
			Date:          day.AddDate(0, 0, 5).Add(20 * time.Hour),
			StadiumName:   "Camp Nou",
			Location:      stadium.Coordinates{Lat: 41.3809, Lon: 2.1228},
		},
	}
}
