package club

import "context"

type Repository interface {
	FindClubByName(ctx context.Context, name string) (Club, bool, error)
	// EnsureClub inserts the club if absent and re-selects it. created is false when it already existed.
	EnsureClub(ctx context.Context, name string) (c Club, created bool, err error)
	LinkClubLeague(ctx context.Context, clubID, leagueID int64) (bool, error)
}
