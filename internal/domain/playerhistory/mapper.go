package playerhistory

import (
	"github.com/riskibarqy/league-sync/internal/domain/naming"
	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/domain/table"
)

var Table = table.Spec{
	Name:            table.PlayerHistory,
	Columns:         []string{"player_id", "league_id", "series", "match_date", "end_pti"},
	ConflictColumns: []string{"player_id", "match_date", "series"},
	UpdateColumns:   []string{"league_id", "end_pti"},
}

var CareerTable = table.Spec{
	Name:            table.CareerStats,
	Columns:         []string{"player_id", "matches_played", "first_match_date", "last_match_date", "latest_pti"},
	ConflictColumns: []string{"player_id"},
	UpdateColumns:   []string{"matches_played", "first_match_date", "last_match_date", "latest_pti"},
}

// MapRecord converts one player_history.json object. Nested matches with a
// bad date are dropped and counted; the rest of the history is kept.
func MapRecord(r rawdata.Record) (Record, error) {
	leagueID, err := r.LeagueID("league_id", "League")
	if err != nil {
		return Record{}, err
	}

	out := Record{
		PlayerExternalID: r.String("player_id", "Player ID"),
		LeagueID:         leagueID,
		Series:           naming.NormalizeSeriesName(leagueID, r.String("series", "Series")),
	}
	if err := rawdata.ValidateStruct(out); err != nil {
		return Record{}, err
	}

	matches, ok := r.Array("matches")
	if !ok {
		return Record{}, &rawdata.SkipError{Reason: rawdata.SkipMissingField, Field: "matches"}
	}
	for _, m := range matches {
		date, err := m.Date("date", "date", "Date")
		if err != nil {
			out.DroppedEntries++
			continue
		}
		endPTI, err := m.Decimal("end_pti", "end_pti", "End PTI")
		if err != nil {
			out.DroppedEntries++
			continue
		}
		out.Entries = append(out.Entries, Entry{Date: date, EndPTI: endPTI})
	}
	return out, nil
}

// Career folds the entries into career totals. LatestPTI is the end PTI of the most recent entry that carries one.
func (r Record) Career() CareerStats {
	stats := CareerStats{MatchesPlayed: len(r.Entries)}
	for i := range r.Entries {
		entry := r.Entries[i]
		if stats.FirstMatchDate == nil || entry.Date.Before(*stats.FirstMatchDate) {
			stats.FirstMatchDate = &entry.Date
		}
		if stats.LastMatchDate == nil || !entry.Date.Before(*stats.LastMatchDate) {
			stats.LastMatchDate = &entry.Date
			if entry.EndPTI.Valid {
				stats.LatestPTI = entry.EndPTI
			}
		}
	}
	return stats
}

// Rows renders one history row per entry for the resolved player row id.
func (r Record) Rows(playerID, leagueID int64) []table.Row {
	rows := make([]table.Row, 0, len(r.Entries))
	for _, entry := range r.Entries {
		rows = append(rows, table.Row{playerID, leagueID, r.Series, entry.Date, entry.EndPTI})
	}
	return rows
}

func (s CareerStats) Row(playerID int64) table.Row {
	return table.Row{playerID, s.MatchesPlayed, s.FirstMatchDate, s.LastMatchDate, s.LatestPTI}
}
