package player

import (
	"github.com/riskibarqy/league-sync/internal/domain/naming"
	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/domain/table"
)

// Table is the players upsert target. A player is unique per league, club and series.
var Table = table.Spec{
	Name: table.Players,
	Columns: []string{
		"tenniscores_player_id", "first_name", "last_name",
		"league_id", "club_id", "series_id", "team_id",
		"pti", "wins", "losses", "win_percentage", "captain_status",
	},
	ConflictColumns: []string{"tenniscores_player_id", "league_id", "club_id", "series_id"},
	UpdateColumns: []string{
		"first_name", "last_name", "team_id",
		"pti", "wins", "losses", "win_percentage", "captain_status",
	},
}

// MapRecord converts one players.json object.
func MapRecord(r rawdata.Record) (Record, error) {
	leagueID, err := r.LeagueID("League", "league_id")
	if err != nil {
		return Record{}, err
	}

	out := Record{
		ExternalID: r.String("Player ID", "player_id", "tenniscores_player_id"),
		FirstName:  r.String("First Name", "first_name"),
		LastName:   r.String("Last Name", "last_name"),
		LeagueID:   leagueID,
		Club:       naming.NormalizeClubName(r.String("Club", "club")),
		Series:     naming.NormalizeSeriesName(leagueID, r.String("Series", "series")),
		Captain:    r.Bool("Captain", "captain"),
	}

	if out.PTI, err = r.Decimal("pti", "PTI", "pti"); err != nil {
		return Record{}, err
	}
	if out.Wins, err = r.OptionalInt("wins", "Wins", "wins"); err != nil {
		return Record{}, err
	}
	if out.Losses, err = r.OptionalInt("losses", "Losses", "losses"); err != nil {
		return Record{}, err
	}
	if out.WinPercentage, err = r.Decimal("win_percentage", "Win %", "win_percentage"); err != nil {
		return Record{}, err
	}

	if err := rawdata.ValidateStruct(out); err != nil {
		return Record{}, err
	}
	return out, nil
}

// Row renders the record for Table once its references are resolved.
func (r Record) Row(refs Refs) table.Row {
	return table.Row{
		r.ExternalID, r.FirstName, r.LastName,
		refs.LeagueID, refs.ClubID, refs.SeriesID, refs.TeamID,
		r.PTI, r.Wins, r.Losses, r.WinPercentage, r.Captain,
	}
}
