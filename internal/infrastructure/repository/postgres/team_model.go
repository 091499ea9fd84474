package postgres

import (
	"database/sql"
)

// teamTableModel is a teams row joined with its club, series and league names.
type teamTableModel struct {
	ID         int64          `db:"id"`
	ClubID     int64          `db:"club_id"`
	SeriesID   int64          `db:"series_id"`
	LeagueID   int64          `db:"league_id"`
	Name       string         `db:"team_name"`
	Alias      sql.NullString `db:"team_alias"`
	ClubName   string         `db:"club_name"`
	SeriesName string         `db:"series_name"`
	LeagueCode string         `db:"league_code"`
}

type teamInsertModel struct {
	ClubID   int64          `db:"club_id"`
	SeriesID int64          `db:"series_id"`
	LeagueID int64          `db:"league_id"`
	Name     string         `db:"team_name"`
	Alias    sql.NullString `db:"team_alias"`
}
