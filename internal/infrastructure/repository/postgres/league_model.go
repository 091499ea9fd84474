package postgres

import (
	"database/sql"
)

type leagueTableModel struct {
	ID   int64          `db:"id"`
	Code string         `db:"league_id"`
	Name string         `db:"league_name"`
	URL  sql.NullString `db:"league_url"`
}

type leagueInsertModel struct {
	Code string `db:"league_id"`
	Name string `db:"league_name"`
	URL  string `db:"league_url"`
}

type clubTableModel struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type seriesTableModel struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type schemaVersionTableModel struct {
	Version int64 `db:"version"`
	Dirty   bool  `db:"dirty"`
}
