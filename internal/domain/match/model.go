package match

import "time"

const (
	WinnerHome = "home"
	WinnerAway = "away"
)

// Record is one mapped row of match_history.json.
type Record struct {
	MatchID     *string
	LeagueID    string    `validate:"required"`
	Date        time.Time `validate:"required"`
	HomeTeam    string    `validate:"required"`
	AwayTeam    string    `validate:"required"`
	Scores      string    `validate:"required"`
	Winner      *string   `validate:"omitnil,oneof=home away"`
	HomePlayers [2]*string
	AwayPlayers [2]*string
}

// TeamRefs are the resolved team ids of a match. Either side may stay unresolved.
type TeamRefs struct {
	LeagueID   int64
	HomeTeamID *int64
	AwayTeamID *int64
}
