package playerhistory

import (
	"testing"

	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/stretchr/testify/require"
)

func TestMapRecord_DropsBadEntriesAndFoldsCareer(t *testing.T) {
	t.Parallel()

	rec, err := MapRecord(rawdata.Record{
		"player_id": "p-1",
		"league_id": "CNSWPL",
		"series":    "Series 4",
		"matches": []any{
			map[string]any{"date": "10/05/2024", "end_pti": 48.5},
			map[string]any{"date": "not a date", "end_pti": 47.0},
			map[string]any{"date": "2024-11-02", "end_pti": "46.2"},
			map[string]any{"date": "01-Sep-24", "end_pti": "N/A"},
		},
	})
	require.NoError(t, err)
	require.Len(t, rec.Entries, 3)
	require.Equal(t, 1, rec.DroppedEntries)

	career := rec.Career()
	require.Equal(t, 3, career.MatchesPlayed)
	require.Equal(t, "2024-09-01", career.FirstMatchDate.Format("2006-01-02"))
	require.Equal(t, "2024-11-02", career.LastMatchDate.Format("2006-01-02"))
	require.True(t, career.LatestPTI.Valid)
	require.Equal(t, "46.2", career.LatestPTI.Decimal.String())

	rows := rec.Rows(10, 1)
	require.Len(t, rows, 3)
	require.Equal(t, int64(10), Table.Value(rows[0], "player_id"))
	require.Len(t, career.Row(10), len(CareerTable.Columns))
}

func TestMapRecord_RequiresMatchesArray(t *testing.T) {
	t.Parallel()

	_, err := MapRecord(rawdata.Record{"player_id": "p-1", "league_id": "CITA", "series": "Series 1"})
	skip, ok := rawdata.AsSkip(err)
	require.True(t, ok)
	require.Equal(t, rawdata.SkipMissingField, skip.Reason)
}
