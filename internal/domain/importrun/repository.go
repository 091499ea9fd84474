package importrun

import (
	"context"

	"github.com/riskibarqy/league-sync/internal/domain/club"
	"github.com/riskibarqy/league-sync/internal/domain/league"
	"github.com/riskibarqy/league-sync/internal/domain/player"
	"github.com/riskibarqy/league-sync/internal/domain/reference"
	"github.com/riskibarqy/league-sync/internal/domain/series"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/domain/team"
)

// SchemaVersion is the single-row migration version table as read before an import.
type SchemaVersion struct {
	Version uint
	Dirty   bool
	Present bool
}

// Store opens import sessions against the target database.
type Store interface {
	Begin(ctx context.Context, mode Mode) (Session, error)
	SchemaVersion(ctx context.Context) (SchemaVersion, error)
	CountRows(ctx context.Context, tables []string) (map[string]int64, error)
	Ping(ctx context.Context) error
}

// Session is one import run's unit of work over a single connection.
//
// In ModeAtomic everything until Commit is one transaction. In ModeIncremental
// Checkpoint commits the work so far and continues in a fresh transaction.
type Session interface {
	league.Repository
	club.Repository
	series.Repository
	team.Repository
	player.Repository
	reference.Repository

	Mode() Mode
	// UpsertBatch writes rows atomically: either the whole batch lands or none of it does.
	UpsertBatch(ctx context.Context, spec table.Spec, rows []table.Row) (BatchResult, error)
	ClearTables(ctx context.Context, tables []string) (map[string]int64, error)
	SuspendConstraints(ctx context.Context) error
	RestoreConstraints(ctx context.Context) error
	Checkpoint(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
}
