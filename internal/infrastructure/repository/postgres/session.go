package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
	qb "github.com/riskibarqy/league-sync/internal/platform/querybuilder"
)

const (
	batchSavepoint = "upsert_batch"

	// xmax is zero only for tuples created by this statement, so it separates inserts from updates.
	returningInserted = "(xmax = 0) AS inserted"
)

var errSessionClosed = fmt.Errorf("import session is closed")

// clearableTables are the tables ClearTables may empty.
var clearableTables = map[string]struct{}{
	table.Schedule:      {},
	table.SeriesStats:   {},
	table.Matches:       {},
	table.CareerStats:   {},
	table.PlayerHistory: {},
	table.Players:       {},
	table.Teams:         {},
	table.SeriesLeagues: {},
	table.ClubLeagues:   {},
}

// Session runs an import over one dedicated connection. All statements go through tx.
type Session struct {
	conn   *sqlx.Conn
	tx     *sqlx.Tx
	mode   importrun.Mode
	logger *logging.Logger
}

func (s *Session) Mode() importrun.Mode { return s.mode }

func (s *Session) current() (*sqlx.Tx, error) {
	if s.tx == nil {
		return nil, errSessionClosed
	}
	return s.tx, nil
}

// UpsertBatch writes rows with one multi-row INSERT ... ON CONFLICT inside a savepoint,
// so a failed batch leaves the surrounding transaction usable.
func (s *Session) UpsertBatch(ctx context.Context, spec table.Spec, rows []table.Row) (importrun.BatchResult, error) {
	tx, err := s.current()
	if err != nil {
		return importrun.BatchResult{}, err
	}
	if err := spec.Validate(); err != nil {
		return importrun.BatchResult{}, err
	}
	if len(rows) == 0 {
		return importrun.BatchResult{}, nil
	}

	builder := qb.InsertInto(spec.Name).Columns(spec.Columns...)
	for _, row := range rows {
		builder.Values(row...)
	}
	query, args, err := builder.
		OnConflict(spec.ConflictColumns...).
		OnConflictWhere(spec.ConflictWhere).
		DoUpdateSet(spec.UpdateColumns...).
		Returning(returningInserted).
		ToSQL()
	if err != nil {
		return importrun.BatchResult{}, fmt.Errorf("build upsert %s query: %w", spec.Name, err)
	}

	if _, err := tx.ExecContext(ctx, "SAVEPOINT "+batchSavepoint); err != nil {
		return importrun.BatchResult{}, fmt.Errorf("savepoint before upsert %s: %w", spec.Name, err)
	}

	var inserted []bool
	if err := tx.SelectContext(ctx, &inserted, query, args...); err != nil {
		if _, rbErr := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT "+batchSavepoint); rbErr != nil {
			return importrun.BatchResult{}, fmt.Errorf("rollback to savepoint after upsert %s failed (%v): %w", spec.Name, err, rbErr)
		}
		return importrun.BatchResult{}, classifyWriteError(fmt.Errorf("upsert %s: %w", spec.Name, err), spec.Name)
	}

	if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT "+batchSavepoint); err != nil {
		return importrun.BatchResult{}, fmt.Errorf("release savepoint after upsert %s: %w", spec.Name, err)
	}

	var result importrun.BatchResult
	for _, isInsert := range inserted {
		if isInsert {
			result.Inserted++
			continue
		}
		result.Updated++
	}
	// DO NOTHING returns no row for a conflicting tuple.
	result.Unchanged = len(rows) - len(inserted)
	return result, nil
}

func (s *Session) ClearTables(ctx context.Context, tables []string) (map[string]int64, error) {
	tx, err := s.current()
	if err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(tables))
	for _, name := range tables {
		if _, ok := clearableTables[name]; !ok {
			return nil, fmt.Errorf("clear tables: %q may not be cleared", name)
		}

		query, args, err := qb.DeleteFrom(name).ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build clear %s query: %w", name, err)
		}

		res, err := tx.ExecContext(ctx, query, args...)
		if err != nil {
			return nil, fmt.Errorf("clear %s: %w", name, err)
		}
		affected, err := res.RowsAffected()
		if err != nil {
			return nil, fmt.Errorf("read cleared rows for %s: %w", name, err)
		}
		out[name] = affected
	}
	return out, nil
}

// SuspendConstraints disables foreign key triggers until RestoreConstraints or the end of the transaction.
func (s *Session) SuspendConstraints(ctx context.Context) error {
	tx, err := s.current()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "SET LOCAL session_replication_role = replica"); err != nil {
		return fmt.Errorf("suspend constraints: %w", err)
	}
	return nil
}

func (s *Session) RestoreConstraints(ctx context.Context) error {
	tx, err := s.current()
	if err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, "SET LOCAL session_replication_role = DEFAULT"); err != nil {
		return fmt.Errorf("restore constraints: %w", err)
	}
	return nil
}

// Checkpoint commits the work so far and continues in a new transaction. Atomic sessions ignore it.
func (s *Session) Checkpoint(ctx context.Context) error {
	tx, err := s.current()
	if err != nil {
		return err
	}
	if s.mode != importrun.ModeIncremental {
		return nil
	}

	if err := tx.Commit(); err != nil {
		s.tx = nil
		s.close()
		return fmt.Errorf("commit checkpoint: %w", err)
	}

	next, err := s.conn.BeginTxx(ctx, nil)
	if err != nil {
		s.tx = nil
		s.close()
		return fmt.Errorf("begin tx after checkpoint: %w", err)
	}
	s.tx = next
	s.logger.DebugContext(ctx, "checkpoint committed")
	return nil
}

func (s *Session) Commit(ctx context.Context) error {
	tx, err := s.current()
	if err != nil {
		return err
	}
	s.tx = nil
	defer s.close()

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit import tx: %w", err)
	}
	s.logger.DebugContext(ctx, "import session committed")
	return nil
}

// Rollback is a no-op on a session that already committed or rolled back.
func (s *Session) Rollback(ctx context.Context) error {
	if s.tx == nil {
		return nil
	}
	tx := s.tx
	s.tx = nil
	defer s.close()

	if err := tx.Rollback(); err != nil {
		return fmt.Errorf("rollback import tx: %w", err)
	}
	s.logger.DebugContext(ctx, "import session rolled back")
	return nil
}

func (s *Session) close() {
	if s.conn == nil {
		return
	}
	if err := s.conn.Close(); err != nil {
		s.logger.Warn("close import connection failed", "error", err)
	}
	s.conn = nil
}
