package playerhistory

import (
	"time"

	"github.com/shopspring/decimal"
)

// Record is one player's entry in player_history.json.
type Record struct {
	PlayerExternalID string `validate:"required"`
	LeagueID         string `validate:"required"`
	Series           string `validate:"required"`
	Entries          []Entry
	// DroppedEntries counts nested matches that could not be parsed.
	DroppedEntries int
}

// Entry is a PTI snapshot after one match.
type Entry struct {
	Date   time.Time
	EndPTI decimal.NullDecimal
}

// CareerStats is derived from the full history of one player.
type CareerStats struct {
	MatchesPlayed  int
	FirstMatchDate *time.Time
	LastMatchDate  *time.Time
	LatestPTI      decimal.NullDecimal
}
