package backup

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
)

// driverOnlyParams are lib/pq connection parameters that libpq tools reject.
var driverOnlyParams = []string{
	"disable_prepared_binary_result",
	"binary_parameters",
	"statement_timeout",
	"idle_in_transaction_session_timeout",
}

// Runner executes an external command and returns its combined output.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, error)

func execRunner(ctx context.Context, name string, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, name, args...).CombinedOutput()
}

type Config struct {
	DBURL       string
	Dir         string
	DumpPath    string
	RestorePath string
}

// Manager snapshots the database with pg_dump and restores it with pg_restore.
type Manager struct {
	cfg    Config
	run    Runner
	now    func() time.Time
	logger *logging.Logger
}

type Option func(*Manager)

func WithRunner(run Runner) Option {
	return func(m *Manager) { m.run = run }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(cfg Config, logger *logging.Logger, opts ...Option) (*Manager, error) {
	if strings.TrimSpace(cfg.DBURL) == "" {
		return nil, fmt.Errorf("backup database url is required")
	}
	if strings.TrimSpace(cfg.Dir) == "" {
		return nil, fmt.Errorf("backup directory is required")
	}
	if cfg.DumpPath == "" {
		cfg.DumpPath = "pg_dump"
	}
	if cfg.RestorePath == "" {
		cfg.RestorePath = "pg_restore"
	}
	if logger == nil {
		logger = logging.Default()
	}

	m := &Manager{
		cfg:    cfg,
		run:    execRunner,
		now:    time.Now,
		logger: logger.Named("backup"),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create writes a custom-format dump into the backup directory.
func (m *Manager) Create(ctx context.Context) (importrun.Backup, error) {
	if err := os.MkdirAll(m.cfg.Dir, 0o750); err != nil {
		return importrun.Backup{}, fmt.Errorf("create backup dir: %w", err)
	}

	createdAt := m.now().UTC()
	path := filepath.Join(m.cfg.Dir, "league-sync-"+createdAt.Format("20060102T150405Z")+".dump")

	out, err := m.run(ctx, m.cfg.DumpPath,
		"--format=custom",
		"--no-owner",
		"--file="+path,
		"--dbname="+ToolURL(m.cfg.DBURL),
	)
	if err != nil {
		if rmErr := os.Remove(path); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			m.logger.WarnContext(ctx, "remove partial backup failed", "path", path, "error", rmErr)
		}
		return importrun.Backup{}, fmt.Errorf("pg_dump: %w: %s", err, strings.TrimSpace(string(out)))
	}

	if _, err := os.Stat(path); err != nil {
		return importrun.Backup{}, fmt.Errorf("pg_dump produced no file: %w", err)
	}

	m.logger.InfoContext(ctx, "backup written", "path", path)
	return importrun.Backup{Path: path, CreatedAt: createdAt}, nil
}

// Restore replaces the database contents with the dump in one transaction.
func (m *Manager) Restore(ctx context.Context, b importrun.Backup) error {
	if _, err := os.Stat(b.Path); err != nil {
		return fmt.Errorf("backup file %s: %w", b.Path, err)
	}

	out, err := m.run(ctx, m.cfg.RestorePath,
		"--clean",
		"--if-exists",
		"--no-owner",
		"--single-transaction",
		"--dbname="+ToolURL(m.cfg.DBURL),
		b.Path,
	)
	if err != nil {
		return fmt.Errorf("pg_restore %s: %w: %s", b.Path, err, strings.TrimSpace(string(out)))
	}

	m.logger.InfoContext(ctx, "backup restored", "path", b.Path)
	return nil
}

// ToolURL drops driver-only parameters so the URL is accepted by pg_dump and pg_restore.
func ToolURL(raw string) string {
	parsed, err := url.Parse(raw)
	if err != nil || parsed == nil || parsed.RawQuery == "" {
		return raw
	}

	query := parsed.Query()
	for _, key := range driverOnlyParams {
		query.Del(key)
	}
	parsed.RawQuery = query.Encode()
	return parsed.String()
}
