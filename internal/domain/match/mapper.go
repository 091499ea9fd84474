package match

import (
	"strings"

	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/domain/table"
)

var columns = []string{
	"tenniscores_match_id", "league_id", "match_date",
	"home_team", "away_team", "home_team_id", "away_team_id",
	"home_player_1_id", "home_player_2_id", "away_player_1_id", "away_player_2_id",
	"scores", "winner",
}

// TableByMatchID upserts matches that carry a scraper match id.
var TableByMatchID = table.Spec{
	Name:            table.Matches,
	Columns:         columns,
	ConflictColumns: []string{"tenniscores_match_id"},
	ConflictWhere:   "tenniscores_match_id IS NOT NULL",
	UpdateColumns: []string{
		"league_id", "match_date", "home_team", "away_team", "home_team_id", "away_team_id",
		"home_player_1_id", "home_player_2_id", "away_player_1_id", "away_player_2_id",
		"scores", "winner",
	},
}

// TableByNaturalKey upserts matches without a match id on (league, date, teams, scores).
var TableByNaturalKey = table.Spec{
	Name:            table.Matches,
	Columns:         columns,
	ConflictColumns: []string{"league_id", "match_date", "home_team", "away_team", "scores"},
	ConflictWhere:   "tenniscores_match_id IS NULL",
	UpdateColumns: []string{
		"home_team_id", "away_team_id",
		"home_player_1_id", "home_player_2_id", "away_player_1_id", "away_player_2_id",
		"winner",
	},
}

// MapRecord converts one match_history.json object.
// An unrecognized winner is stored as NULL instead of rejecting the match.
func MapRecord(r rawdata.Record) (Record, error) {
	leagueID, err := r.LeagueID("league_id", "League")
	if err != nil {
		return Record{}, err
	}
	date, err := r.Date("date", "Date", "date")
	if err != nil {
		return Record{}, err
	}

	out := Record{
		MatchID:  r.OptionalString("match_id", "Match ID", "tenniscores_match_id"),
		LeagueID: leagueID,
		Date:     date,
		HomeTeam: r.String("Home Team", "home_team"),
		AwayTeam: r.String("Away Team", "away_team"),
		Scores:   r.String("Scores", "scores"),
		HomePlayers: [2]*string{
			r.OptionalString("Home Player 1 ID", "home_player_1_id"),
			r.OptionalString("Home Player 2 ID", "home_player_2_id"),
		},
		AwayPlayers: [2]*string{
			r.OptionalString("Away Player 1 ID", "away_player_1_id"),
			r.OptionalString("Away Player 2 ID", "away_player_2_id"),
		},
	}
	out.Winner = NormalizeWinner(r.String("Winner", "winner"), out.HomeTeam, out.AwayTeam)

	if err := rawdata.ValidateStruct(out); err != nil {
		return Record{}, err
	}
	return out, nil
}

// NormalizeWinner maps a scraped winner value to home, away or nil.
// A value equal to one of the team names is accepted as that side.
func NormalizeWinner(raw, homeTeam, awayTeam string) *string {
	value := strings.ToLower(strings.TrimSpace(raw))
	var winner string
	switch {
	case value == WinnerHome:
		winner = WinnerHome
	case value == WinnerAway:
		winner = WinnerAway
	case value != "" && strings.EqualFold(value, strings.TrimSpace(homeTeam)):
		winner = WinnerHome
	case value != "" && strings.EqualFold(value, strings.TrimSpace(awayTeam)):
		winner = WinnerAway
	default:
		return nil
	}
	return &winner
}

// Spec picks the upsert target by whether the match has an id.
func (r Record) Spec() table.Spec {
	if r.MatchID != nil {
		return TableByMatchID
	}
	return TableByNaturalKey
}

func (r Record) Row(refs TeamRefs) table.Row {
	return table.Row{
		r.MatchID, refs.LeagueID, r.Date,
		r.HomeTeam, r.AwayTeam, refs.HomeTeamID, refs.AwayTeamID,
		r.HomePlayers[0], r.HomePlayers[1], r.AwayPlayers[0], r.AwayPlayers[1],
		r.Scores, r.Winner,
	}
}
