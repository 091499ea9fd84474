package seriesstats

// Record is one team's standing row from series_stats.json.
type Record struct {
	LeagueID    string `validate:"required"`
	Series      string `validate:"required"`
	Team        string `validate:"required"`
	Points      *int
	MatchesWon  int `validate:"gte=0"`
	MatchesLost int `validate:"gte=0"`
	MatchesTied int `validate:"gte=0"`
	LinesWon    int `validate:"gte=0"`
	LinesLost   int `validate:"gte=0"`
	LinesFor    int `validate:"gte=0"`
	LinesRet    int `validate:"gte=0"`
	SetsWon     int `validate:"gte=0"`
	SetsLost    int `validate:"gte=0"`
	GamesWon    int `validate:"gte=0"`
	GamesLost   int `validate:"gte=0"`
}
