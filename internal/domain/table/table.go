package table

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

const (
	Leagues         = "leagues"
	Clubs           = "clubs"
	Series          = "series"
	ClubLeagues     = "club_leagues"
	SeriesLeagues   = "series_leagues"
	Teams           = "teams"
	Players         = "players"
	PlayerHistory   = "player_history"
	CareerStats     = "player_career_stats"
	Matches         = "match_scores"
	SeriesStats     = "series_stats"
	Schedule        = "schedule"
	Polls           = "polls"
	CaptainMessages = "captain_messages"
)

// ImportOrder is the dependency order tables are written in.
var ImportOrder = []string{
	Leagues,
	Clubs,
	Series,
	ClubLeagues,
	SeriesLeagues,
	Teams,
	Players,
	PlayerHistory,
	CareerStats,
	Matches,
	SeriesStats,
	Schedule,
}

// ClearOrder lists the tables a full refresh empties, children first.
// With preserveEntities the team graph is kept so surrogate ids survive the run.
func ClearOrder(preserveEntities bool) []string {
	out := []string{
		Schedule,
		SeriesStats,
		Matches,
		CareerStats,
		PlayerHistory,
		Players,
	}
	if !preserveEntities {
		out = append(out, Teams, SeriesLeagues, ClubLeagues)
	}
	return out
}

// Row holds values in Spec.Columns order.
type Row []any

// Spec describes an upsert target: its columns and the unique constraint used as conflict key.
type Spec struct {
	Name            string
	Columns         []string
	ConflictColumns []string
	// ConflictWhere is the predicate of a partial unique index, if the key is one.
	ConflictWhere string
	UpdateColumns []string
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return fmt.Errorf("table spec name is required")
	}
	if len(s.Columns) == 0 {
		return fmt.Errorf("table spec %s has no columns", s.Name)
	}
	if len(s.ConflictColumns) == 0 {
		return fmt.Errorf("table spec %s has no conflict columns", s.Name)
	}
	for _, col := range append(append([]string(nil), s.ConflictColumns...), s.UpdateColumns...) {
		if s.ColumnIndex(col) < 0 {
			return fmt.Errorf("table spec %s references unknown column %s", s.Name, col)
		}
	}
	return nil
}

func (s Spec) ColumnIndex(column string) int {
	for idx, col := range s.Columns {
		if col == column {
			return idx
		}
	}
	return -1
}

// Value returns the value of column in row, or nil when the column is unknown.
func (s Spec) Value(row Row, column string) any {
	idx := s.ColumnIndex(column)
	if idx < 0 || idx >= len(row) {
		return nil
	}
	return row[idx]
}

// ConflictKey renders the conflict columns of row as a comparable string.
func (s Spec) ConflictKey(row Row) string {
	parts := make([]string, 0, len(s.ConflictColumns))
	for _, col := range s.ConflictColumns {
		parts = append(parts, KeyPart(s.Value(row, col)))
	}
	return strings.Join(parts, "\x1f")
}

// KeyPart renders a column value for key comparison. NULL renders as "\x00".
func KeyPart(value any) string {
	switch v := value.(type) {
	case nil:
		return "\x00"
	case string:
		return v
	case *string:
		if v == nil {
			return "\x00"
		}
		return *v
	case int64:
		return fmt.Sprintf("%d", v)
	case *int64:
		if v == nil {
			return "\x00"
		}
		return fmt.Sprintf("%d", *v)
	case int:
		return fmt.Sprintf("%d", v)
	case *int:
		if v == nil {
			return "\x00"
		}
		return fmt.Sprintf("%d", *v)
	case time.Time:
		return v.UTC().Format(time.RFC3339)
	case driver.Valuer:
		inner, err := v.Value()
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return KeyPart(inner)
	default:
		return fmt.Sprintf("%v", v)
	}
}
