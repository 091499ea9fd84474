package team

import "context"

// Repository describes team persistence needs of the resolver and the repair pass.
type Repository interface {
	ListTeamsByLeague(ctx context.Context, leagueID int64) ([]Team, error)
	// CreateTeam inserts t, or returns the existing team holding the same natural key.
	CreateTeam(ctx context.Context, t Team) (Team, bool, error)
	ListOrphanTeams(ctx context.Context) ([]Team, error)
	DeleteTeams(ctx context.Context, ids []int64) (int64, error)
	ListDuplicateTeams(ctx context.Context) ([]DuplicateGroup, error)
	// ListUserTeams returns teams of the players linked to a user account.
	ListUserTeams(ctx context.Context, userID int64) ([]Team, error)
}
