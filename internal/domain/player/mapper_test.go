package player

import (
	"testing"

	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/stretchr/testify/require"
)

func TestMapRecord_NormalizesClubAndSeries(t *testing.T) {
	t.Parallel()

	rec, err := MapRecord(rawdata.Record{
		"League":     "apta",
		"Player ID":  "nndz-WkM2eHhybi9qUT09",
		"First Name": "Ross",
		"Last Name":  "Freedman",
		"Club":       "Tennaqua (2)",
		"Series":     "22",
		"PTI":        "41.3",
		"Wins":       "7",
		"Losses":     "N/A",
		"Win %":      "63.6%",
		"Captain":    "Yes",
	})
	require.NoError(t, err)
	require.Equal(t, "APTA_CHICAGO", rec.LeagueID)
	require.Equal(t, "Tennaqua", rec.Club)
	require.Equal(t, "Chicago 22", rec.Series)
	require.Equal(t, "41.3", rec.PTI.Decimal.String())
	require.NotNil(t, rec.Wins)
	require.Equal(t, 7, *rec.Wins)
	require.Nil(t, rec.Losses)
	require.Equal(t, "63.6", rec.WinPercentage.Decimal.String())

	row := rec.Row(Refs{LeagueID: 1, ClubID: 2, SeriesID: 3})
	require.Len(t, row, len(Table.Columns))
	require.Equal(t, true, Table.Value(row, "captain_status"))
	require.NoError(t, Table.Validate())
}

func TestMapRecord_RejectsNegativeCounts(t *testing.T) {
	t.Parallel()

	_, err := MapRecord(rawdata.Record{
		"League":     "NSTF",
		"Player ID":  "p-1",
		"First Name": "A",
		"Last Name":  "B",
		"Club":       "Winnetka",
		"Series":     "Series 1",
		"Wins":       -2,
	})
	skip, ok := rawdata.AsSkip(err)
	require.True(t, ok)
	require.Equal(t, rawdata.SkipBadValue, skip.Reason)
	require.Equal(t, "wins", skip.Field)
}
