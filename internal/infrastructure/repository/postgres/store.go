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

const schemaMigrationsTable = "schema_migrations"

// countableTables guards CountRows against interpolating arbitrary identifiers.
var countableTables = map[string]struct{}{
	table.Leagues:         {},
	table.Clubs:           {},
	table.Series:          {},
	table.ClubLeagues:     {},
	table.SeriesLeagues:   {},
	table.Teams:           {},
	table.Players:         {},
	table.PlayerHistory:   {},
	table.CareerStats:     {},
	table.Matches:         {},
	table.SeriesStats:     {},
	table.Schedule:        {},
	table.Polls:           {},
	table.CaptainMessages: {},
}

type Store struct {
	db     *sqlx.DB
	logger *logging.Logger
}

func NewStore(db *sqlx.DB, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{db: db, logger: logger.Named("postgres")}
}

// Begin pins one pooled connection for the whole run and opens the first transaction on it.
func (s *Store) Begin(ctx context.Context, mode importrun.Mode) (importrun.Session, error) {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire import connection: %w", err)
	}

	tx, err := conn.BeginTxx(ctx, nil)
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("begin import tx: %w", err)
	}

	s.logger.DebugContext(ctx, "import session opened", "mode", mode)
	return &Session{conn: conn, tx: tx, mode: mode, logger: s.logger}, nil
}

func (s *Store) SchemaVersion(ctx context.Context) (importrun.SchemaVersion, error) {
	query, args, err := qb.Select("version", "dirty").
		From(schemaMigrationsTable).
		Limit(1).
		ToSQL()
	if err != nil {
		return importrun.SchemaVersion{}, fmt.Errorf("build select schema version query: %w", err)
	}

	var row schemaVersionTableModel
	if err := s.db.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) || isUndefinedTable(err) {
			return importrun.SchemaVersion{}, nil
		}
		return importrun.SchemaVersion{}, fmt.Errorf("select schema version: %w", err)
	}
	if row.Version < 0 {
		return importrun.SchemaVersion{}, fmt.Errorf("schema version %d is negative", row.Version)
	}

	return importrun.SchemaVersion{
		Version: uint(row.Version),
		Dirty:   row.Dirty,
		Present: true,
	}, nil
}

func (s *Store) CountRows(ctx context.Context, tables []string) (map[string]int64, error) {
	out := make(map[string]int64, len(tables))
	for _, name := range tables {
		if _, ok := countableTables[name]; !ok {
			return nil, fmt.Errorf("count rows: unknown table %q", name)
		}

		query, args, err := qb.Select("COUNT(1)").From(name).ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build count %s query: %w", name, err)
		}

		var count int64
		if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
			return nil, fmt.Errorf("count %s: %w", name, err)
		}
		out[name] = count
	}
	return out, nil
}

func (s *Store) Ping(ctx context.Context) error {
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping database: %w", err)
	}
	return nil
}
