package postgres

import (
	"database/sql"
	"time"
)

type playerTableModel struct {
	ID         int64         `db:"id"`
	ExternalID string        `db:"tenniscores_player_id"`
	LeagueID   int64         `db:"league_id"`
	ClubID     int64         `db:"club_id"`
	SeriesID   int64         `db:"series_id"`
	TeamID     sql.NullInt64 `db:"team_id"`
	SeriesName string        `db:"series_name"`
}

type referenceTableModel struct {
	ID          int64         `db:"id"`
	TeamID      sql.NullInt64 `db:"team_id"`
	OwnerUserID sql.NullInt64 `db:"owner_user_id"`
	Text        string        `db:"body"`
	CreatedAt   time.Time     `db:"created_at"`
}

type fixtureTableModel struct {
	ID         int64         `db:"id"`
	LeagueID   int64         `db:"league_id"`
	LeagueCode string        `db:"league_code"`
	HomeTeam   string        `db:"home_team"`
	AwayTeam   string        `db:"away_team"`
	HomeTeamID sql.NullInt64 `db:"home_team_id"`
	AwayTeamID sql.NullInt64 `db:"away_team_id"`
}
