package footballdata

// Wire shapes of the football-data.org v4 API. Only the fields the importer reads are mapped.

type competitionsEnvelope struct {
	Count        int                `json:"count"`
	Competitions []competitionEntry `json:"competitions"`
}

type competitionEntry struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
	Code string `json:"code"`
	Type string `json:"type"`
}

type matchesEnvelope struct {
	Competition competitionEntry `json:"competition"`
	Matches     []matchEntry     `json:"matches"`
}

type matchEntry struct {
	ID          int64            `json:"id"`
	UTCDate     string           `json:"utcDate"` // RFC 3339, always Z
	Status      string           `json:"status"`
	Matchday    *int             `json:"matchday"` // null in cup rounds
	Competition competitionEntry `json:"competition"`
	HomeTeam    teamEntry        `json:"homeTeam"`
	AwayTeam    teamEntry        `json:"awayTeam"`
}

type teamEntry struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"` // null until a knockout slot is decided
	ShortName string `json:"shortName"`
}

type errorEnvelope struct {
	Message   string `json:"message"`
	ErrorCode int    `json:"errorCode"`
}
