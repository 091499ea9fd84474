package player

import (
	"github.com/shopspring/decimal"
)

// Record is one mapped row of players.json.
type Record struct {
	ExternalID    string              `validate:"required"`
	FirstName     string              `validate:"required"`
	LastName      string              `validate:"required"`
	LeagueID      string              `validate:"required"`
	Club          string              `validate:"required"`
	Series        string              `validate:"required"`
	PTI           decimal.NullDecimal `validate:"-"`
	Wins          *int                `validate:"omitnil,gte=0"`
	Losses        *int                `validate:"omitnil,gte=0"`
	WinPercentage decimal.NullDecimal `validate:"-"`
	Captain       bool
}

// Player is a stored player row. One external id may own several rows,
// one per (league, club, series) it appeared under.
type Player struct {
	ID         int64
	ExternalID string
	LeagueID   int64
	ClubID     int64
	SeriesID   int64
	TeamID     *int64
	SeriesName string
}

// Refs are the resolved surrogate ids a player row points at.
type Refs struct {
	LeagueID int64
	ClubID   int64
	SeriesID int64
	TeamID   *int64
}
