package schedule

import (
	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/domain/table"
)

// Table is keyed by league, date and both teams so a fixture is never listed twice.
var Table = table.Spec{
	Name: table.Schedule,
	Columns: []string{
		"league_id", "match_date", "match_time",
		"home_team", "away_team", "home_team_id", "away_team_id", "location",
	},
	ConflictColumns: []string{"league_id", "match_date", "home_team", "away_team"},
	UpdateColumns:   []string{"match_time", "home_team_id", "away_team_id", "location"},
}

func MapRecord(r rawdata.Record) (Record, error) {
	leagueID, err := r.LeagueID("League", "league_id")
	if err != nil {
		return Record{}, err
	}
	date, err := r.Date("date", "date", "Date")
	if err != nil {
		return Record{}, err
	}

	out := Record{
		LeagueID: leagueID,
		Date:     date,
		Time:     r.OptionalString("time", "Time"),
		HomeTeam: r.String("home_team", "Home Team"),
		AwayTeam: r.String("away_team", "Away Team"),
		Location: r.OptionalString("location", "Location"),
	}
	if err := rawdata.ValidateStruct(out); err != nil {
		return Record{}, err
	}
	return out, nil
}

func (r Record) Row(leagueID int64, homeTeamID, awayTeamID *int64) table.Row {
	return table.Row{leagueID, r.Date, r.Time, r.HomeTeam, r.AwayTeam, homeTeamID, awayTeamID, r.Location}
}
