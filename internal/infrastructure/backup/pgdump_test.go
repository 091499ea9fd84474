package backup

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
)

type recordedCall struct {
	name string
	args []string
}

type fakeRunner struct {
	calls []recordedCall
	err   error
	// touch creates the --file target, as pg_dump would.
	touch bool
}

func (f *fakeRunner) run(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, recordedCall{name: name, args: args})
	if f.touch {
		for _, arg := range args {
			if path, ok := strings.CutPrefix(arg, "--file="); ok {
				if err := os.WriteFile(path, []byte("PGDMP"), 0o600); err != nil {
					return nil, err
				}
			}
		}
	}
	if f.err != nil {
		return []byte("pg_dump: error: connection refused"), f.err
	}
	return nil, nil
}

func newTestManager(t *testing.T, runner *fakeRunner) (*Manager, string) {
	t.Helper()

	dir := filepath.Join(t.TempDir(), "backups")
	manager, err := NewManager(Config{
		DBURL:    "postgres://u:p@localhost:5432/league?sslmode=disable&statement_timeout=300000",
		Dir:      dir,
		DumpPath: "/usr/bin/pg_dump",
	}, logging.NewNop(),
		WithRunner(runner.run),
		WithClock(func() time.Time { return time.Date(2025, 2, 3, 4, 5, 6, 0, time.UTC) }),
	)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return manager, dir
}

func TestCreateWritesTimestampedDump(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{touch: true}
	manager, dir := newTestManager(t, runner)

	backup, err := manager.Create(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := filepath.Join(dir, "league-sync-20250203T040506Z.dump")
	if backup.Path != want {
		t.Fatalf("expected path %s, got %s", want, backup.Path)
	}
	if len(runner.calls) != 1 || runner.calls[0].name != "/usr/bin/pg_dump" {
		t.Fatalf("unexpected calls: %+v", runner.calls)
	}
	for _, arg := range runner.calls[0].args {
		if strings.Contains(arg, "statement_timeout") {
			t.Fatalf("driver-only parameter leaked to pg_dump: %s", arg)
		}
	}
}

func TestCreateRemovesPartialDumpOnFailure(t *testing.T) {
	t.Parallel()

	runner := &fakeRunner{touch: true, err: errors.New("exit status 1")}
	manager, dir := newTestManager(t, runner)

	if _, err := manager.Create(context.Background()); err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Fatalf("expected pg_dump error with output, got %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("read backup dir: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("expected partial dump removed, found %d files", len(entries))
	}
}

func TestRestore(t *testing.T) {
	t.Parallel()

	t.Run("runs pg_restore on existing dump", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{touch: true}
		manager, _ := newTestManager(t, runner)
		backup, err := manager.Create(context.Background())
		if err != nil {
			t.Fatalf("create: %v", err)
		}

		if err := manager.Restore(context.Background(), backup); err != nil {
			t.Fatalf("restore: %v", err)
		}
		last := runner.calls[len(runner.calls)-1]
		if last.name != "pg_restore" || last.args[len(last.args)-1] != backup.Path {
			t.Fatalf("unexpected restore call: %+v", last)
		}
	})

	t.Run("missing dump fails without running pg_restore", func(t *testing.T) {
		t.Parallel()

		runner := &fakeRunner{}
		manager, dir := newTestManager(t, runner)

		err := manager.Restore(context.Background(), importrun.Backup{Path: filepath.Join(dir, "absent.dump")})
		if err == nil {
			t.Fatalf("expected error")
		}
		if len(runner.calls) != 0 {
			t.Fatalf("expected no commands, got %+v", runner.calls)
		}
	})
}

func TestToolURL(t *testing.T) {
	t.Parallel()

	got := ToolURL("postgres://u:p@db:5432/app?sslmode=require&disable_prepared_binary_result=yes&idle_in_transaction_session_timeout=600000")
	if got != "postgres://u:p@db:5432/app?sslmode=require" {
		t.Fatalf("unexpected tool url: %s", got)
	}
	if ToolURL("host=db dbname=app") != "host=db dbname=app" {
		t.Fatalf("expected keyword/value dsn to pass through")
	}
}

func TestNewManagerRequiresURLAndDir(t *testing.T) {
	t.Parallel()

	if _, err := NewManager(Config{Dir: "x"}, nil); err == nil {
		t.Fatalf("expected missing url error")
	}
	if _, err := NewManager(Config{DBURL: "postgres://localhost/app"}, nil); err == nil {
		t.Fatalf("expected missing dir error")
	}
}
