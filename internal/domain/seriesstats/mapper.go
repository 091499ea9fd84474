package seriesstats

import (
	"github.com/riskibarqy/league-sync/internal/domain/naming"
	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/domain/table"
)

var Table = table.Spec{
	Name: table.SeriesStats,
	Columns: []string{
		"league_id", "series", "team", "team_id", "points",
		"matches_won", "matches_lost", "matches_tied",
		"lines_won", "lines_lost", "lines_for", "lines_ret",
		"sets_won", "sets_lost", "games_won", "games_lost",
	},
	ConflictColumns: []string{"league_id", "series", "team"},
	UpdateColumns: []string{
		"team_id", "points",
		"matches_won", "matches_lost", "matches_tied",
		"lines_won", "lines_lost", "lines_for", "lines_ret",
		"sets_won", "sets_lost", "games_won", "games_lost",
	},
}

// MapRecord converts one series_stats.json object. Two shapes exist:
// nested matches/lines/sets/games objects, or flat wins/losses counters.
func MapRecord(r rawdata.Record) (Record, error) {
	leagueID, err := r.LeagueID("league_id", "League")
	if err != nil {
		return Record{}, err
	}

	out := Record{
		LeagueID: leagueID,
		Series:   naming.NormalizeSeriesName(leagueID, r.String("series", "Series")),
		Team:     r.String("team", "Team"),
	}
	if out.Points, err = r.OptionalInt("points", "points", "Points"); err != nil {
		return Record{}, err
	}

	if matches, ok := r.Object("matches"); ok {
		if err := readNested(r, matches, &out); err != nil {
			return Record{}, err
		}
	} else {
		if out.MatchesWon, err = r.IntOrZero("wins", "wins", "Wins"); err != nil {
			return Record{}, err
		}
		if out.MatchesLost, err = r.IntOrZero("losses", "losses", "Losses"); err != nil {
			return Record{}, err
		}
		if out.MatchesTied, err = r.IntOrZero("ties", "ties", "Ties"); err != nil {
			return Record{}, err
		}
	}

	if err := rawdata.ValidateStruct(out); err != nil {
		return Record{}, err
	}
	return out, nil
}

func readNested(r, matches rawdata.Record, out *Record) error {
	targets := []struct {
		section rawdata.Record
		field   string
		key     string
		dst     *int
	}{
		{matches, "matches.won", "won", &out.MatchesWon},
		{matches, "matches.lost", "lost", &out.MatchesLost},
		{matches, "matches.tied", "tied", &out.MatchesTied},
	}

	lines, _ := r.Object("lines")
	sets, _ := r.Object("sets")
	games, _ := r.Object("games")
	targets = append(targets, []struct {
		section rawdata.Record
		field   string
		key     string
		dst     *int
	}{
		{lines, "lines.won", "won", &out.LinesWon},
		{lines, "lines.lost", "lost", &out.LinesLost},
		{lines, "lines.for", "for", &out.LinesFor},
		{lines, "lines.ret", "ret", &out.LinesRet},
		{sets, "sets.won", "won", &out.SetsWon},
		{sets, "sets.lost", "lost", &out.SetsLost},
		{games, "games.won", "won", &out.GamesWon},
		{games, "games.lost", "lost", &out.GamesLost},
	}...)

	for _, target := range targets {
		if target.section == nil {
			continue
		}
		value, err := target.section.IntOrZero(target.field, target.key)
		if err != nil {
			return err
		}
		*target.dst = value
	}
	return nil
}

func (r Record) Row(leagueID int64, teamID *int64) table.Row {
	return table.Row{
		leagueID, r.Series, r.Team, teamID, r.Points,
		r.MatchesWon, r.MatchesLost, r.MatchesTied,
		r.LinesWon, r.LinesLost, r.LinesFor, r.LinesRet,
		r.SetsWon, r.SetsLost, r.GamesWon, r.GamesLost,
	}
}
