package reference

import (
	"context"
	"time"
)

// Kind names a user-content table that points at teams.
type Kind string

const (
	KindPoll           Kind = "polls"
	KindCaptainMessage Kind = "captain_messages"
)

var Kinds = []Kind{KindPoll, KindCaptainMessage}

// Reference is a poll or captain message whose team_id may need relinking.
type Reference struct {
	Kind        Kind
	ID          int64
	TeamID      *int64
	OwnerUserID *int64
	Text        string
	CreatedAt   time.Time
}

// FixtureRef is a schedule or match row whose team ids were left NULL at import time.
type FixtureRef struct {
	Table      string
	ID         int64
	LeagueID   int64
	LeagueCode string
	HomeTeam   string
	AwayTeam   string
	HomeTeamID *int64
	AwayTeamID *int64
}

// Resolved reports whether both sides now carry a team id.
func (f FixtureRef) Resolved() bool {
	return f.HomeTeamID != nil && f.AwayTeamID != nil
}

type Repository interface {
	// ListDanglingReferences returns references pointing at any of teamIDs.
	ListDanglingReferences(ctx context.Context, teamIDs []int64) ([]Reference, error)
	RelinkReference(ctx context.Context, ref Reference, teamID *int64) error
	ListUnlinkedFixtures(ctx context.Context) ([]FixtureRef, error)
	LinkFixture(ctx context.Context, ref FixtureRef) error
}
