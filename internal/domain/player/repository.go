package player

import "context"

type Repository interface {
	ListLeaguePlayers(ctx context.Context, leagueID int64) ([]Player, error)
}
