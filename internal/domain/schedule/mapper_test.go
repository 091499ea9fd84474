package schedule

import (
	"testing"

	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/stretchr/testify/require"
)

func TestMapRecord(t *testing.T) {
	t.Parallel()

	rec, err := MapRecord(rawdata.Record{
		"League":    "CNSWPL",
		"date":      "11/14/2024",
		"time":      "9:00 AM",
		"home_team": "Hinsdale PC 3",
		"away_team": "Knollwood 3",
		"location":  "",
	})
	require.NoError(t, err)
	require.Equal(t, "2024-11-14", rec.Date.Format("2006-01-02"))
	require.NotNil(t, rec.Time)
	require.Nil(t, rec.Location)

	row := rec.Row(1, nil, nil)
	require.Len(t, row, len(Table.Columns))
	require.NoError(t, Table.Validate())
}

func TestMapRecord_SameTeamBothSidesIsSkipped(t *testing.T) {
	t.Parallel()

	_, err := MapRecord(rawdata.Record{
		"league_id": "CITA",
		"date":      "2024-11-14",
		"home_team": "Midtown 1",
		"away_team": "Midtown 1",
	})
	skip, ok := rawdata.AsSkip(err)
	require.True(t, ok)
	require.Equal(t, rawdata.SkipBadValue, skip.Reason)
}
