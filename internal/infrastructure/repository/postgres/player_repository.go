package postgres

import (
	"context"
	"fmt"

	"github.com/riskibarqy/league-sync/internal/domain/player"
	qb "github.com/riskibarqy/league-sync/internal/platform/querybuilder"
)

func (s *Session) ListLeaguePlayers(ctx context.Context, leagueID int64) ([]player.Player, error) {
	tx, err := s.current()
	if err != nil {
		return nil, err
	}

	query, args, err := qb.Select(
		"p.id",
		"p.tenniscores_player_id",
		"p.league_id",
		"p.club_id",
		"p.series_id",
		"p.team_id",
		"s.name AS series_name",
	).
		From("players p JOIN series s ON s.id = p.series_id").
		Where(qb.Eq("p.league_id", leagueID)).
		OrderBy("p.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select league players query: %w", err)
	}

	var rows []playerTableModel
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("select league players: %w", err)
	}

	out := make([]player.Player, 0, len(rows))
	for _, row := range rows {
		out = append(out, player.Player{
			ID:         row.ID,
			ExternalID: row.ExternalID,
			LeagueID:   row.LeagueID,
			ClubID:     row.ClubID,
			SeriesID:   row.SeriesID,
			TeamID:     nullableInt64(row.TeamID),
			SeriesName: row.SeriesName,
		})
	}
	return out, nil
}
