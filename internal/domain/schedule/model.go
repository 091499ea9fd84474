package schedule

import "time"

// Record is one fixture from schedules.json.
type Record struct {
	LeagueID string    `validate:"required"`
	Date     time.Time `validate:"required"`
	Time     *string
	HomeTeam string `validate:"required"`
	AwayTeam string `validate:"required,nefield=HomeTeam"`
	Location *string
}
