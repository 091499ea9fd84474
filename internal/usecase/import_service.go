package usecase

import (
	"context"
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/league-sync/internal/config"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/platform/id"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
)

// SourceLoader reads and pre-validates every source file of a data directory.
type SourceLoader interface {
	Load(ctx context.Context, dir string) ([]rawdata.Source, error)
}

// BackupManager snapshots the target database before destructive work.
type BackupManager interface {
	Create(ctx context.Context) (importrun.Backup, error)
	Restore(ctx context.Context, backup importrun.Backup) error
}

// ImportService drives one import run through the state machine
// idle, backing_up, loading_sources, validating, clearing_tables, importing,
// repairing_integrity, committing, done. Any failure after the backup rolls
// back and ends in rolled_back.
type ImportService struct {
	store  importrun.Store
	loader SourceLoader
	backup BackupManager
	repair *RepairService
	ids    id.Generator
	now    func() time.Time
	logger *logging.Logger
}

func NewImportService(
	store importrun.Store,
	loader SourceLoader,
	backup BackupManager,
	ids id.Generator,
	logger *logging.Logger,
) *ImportService {
	if logger == nil {
		logger = logging.Default()
	}
	if ids == nil {
		ids = id.NewTimeOrderedGenerator()
	}
	return &ImportService{
		store:  store,
		loader: loader,
		backup: backup,
		repair: NewRepairService(logger),
		ids:    ids,
		now:    time.Now,
		logger: logger.Named("import"),
	}
}

// CheckReport is the outcome of a connection and schema check.
type CheckReport struct {
	SchemaVersion importrun.SchemaVersion
	Counts        map[string]int64
}

// Check verifies connectivity and the schema version without writing anything.
func (s *ImportService) Check(ctx context.Context, cfg config.ImportConfig) (CheckReport, error) {
	ctx, span := startRootSpan(ctx, "usecase.ImportService.Check")
	defer span.End()

	if err := s.store.Ping(ctx); err != nil {
		return CheckReport{}, fmt.Errorf("ping database: %w", err)
	}
	version, err := s.store.SchemaVersion(ctx)
	if err != nil {
		return CheckReport{}, fmt.Errorf("read schema version: %w", err)
	}
	report := CheckReport{SchemaVersion: version}
	if err := checkSchemaVersion(version, cfg.ExpectedSchemaVersion); err != nil {
		return report, err
	}

	counts, err := s.store.CountRows(ctx, table.ImportOrder)
	if err != nil {
		return report, fmt.Errorf("count rows: %w", err)
	}
	report.Counts = counts

	s.logger.InfoContext(ctx, "database check passed", "schema_version", version.Version, "tables", len(counts))
	return report, nil
}

// Run executes one import. The summary is always returned, also on failure.
func (s *ImportService) Run(ctx context.Context, cfg config.ImportConfig) (importrun.Summary, error) {
	ctx, span := startRootSpan(ctx, "usecase.ImportService.Run")
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		return importrun.Summary{}, fmt.Errorf("generate run id: %w", err)
	}

	summary := importrun.NewSummary(runID, cfg.Mode, s.now())
	summary.Environment = string(cfg.Environment)
	summary.DryRun = cfg.DryRun

	run := &importRun{
		svc:     s,
		cfg:     cfg,
		summary: &summary,
		logger:  s.logger.With("run_id", runID, "mode", cfg.Mode, "environment", cfg.Environment),
	}
	run.logger.InfoContext(ctx, "import started", "data_dir", cfg.DataDir, "batch_size", cfg.BatchSize,
		"preserve_entities", cfg.PreserveEntities, "dry_run", cfg.DryRun)

	err = run.execute(ctx)
	summary.FinishedAt = s.now()
	if err != nil {
		summary.Err = err
		span.RecordError(err)
		run.logger.ErrorContext(ctx, "import failed", "state", summary.State, "error", err)
		return summary, err
	}

	run.logger.InfoContext(ctx, "import finished", "state", summary.State, "duration", summary.Duration())
	return summary, nil
}

// Repair runs only the integrity repair pass, in a single transaction.
func (s *ImportService) Repair(ctx context.Context) (importrun.Summary, error) {
	ctx, span := startRootSpan(ctx, "usecase.ImportService.Repair")
	defer span.End()

	runID, err := s.ids.NewID()
	if err != nil {
		return importrun.Summary{}, fmt.Errorf("generate run id: %w", err)
	}
	summary := importrun.NewSummary(runID, importrun.ModeAtomic, s.now())
	run := &importRun{svc: s, summary: &summary, logger: s.logger.With("run_id", runID, "command", "repair")}

	err = run.repairOnly(ctx)
	summary.FinishedAt = s.now()
	if err != nil {
		summary.Err = err
		span.RecordError(err)
		run.logger.ErrorContext(ctx, "repair failed", "error", err)
	}
	return summary, err
}

func checkSchemaVersion(version importrun.SchemaVersion, expected uint) error {
	switch {
	case !version.Present:
		return importrun.NewSourceValidationError("schema_migrations", "schema version table is empty or missing")
	case version.Dirty:
		return importrun.NewSourceValidationError("schema_migrations", "schema version %d is dirty", version.Version)
	case expected != 0 && version.Version != expected:
		return importrun.NewSourceValidationError("schema_migrations", "schema version %d, expected %d", version.Version, expected)
	}
	return nil
}

// importRun is the mutable state of one Run call.
type importRun struct {
	svc       *ImportService
	cfg       config.ImportConfig
	summary   *importrun.Summary
	logger    *logging.Logger
	session   importrun.Session
	suspended bool
}

func (r *importRun) transition(ctx context.Context, to importrun.State) error {
	from := r.summary.State
	if !importrun.CanTransition(from, to) {
		return crerr.AssertionFailedf("invalid state transition %s -> %s", from, to)
	}
	r.summary.State = to
	r.summary.History = append(r.summary.History, to)
	r.logger.InfoContext(ctx, "state transition", "from", from, "to", to)
	return nil
}

func (r *importRun) execute(ctx context.Context) error {
	if r.cfg.Backup {
		if err := r.transition(ctx, importrun.StateBackingUp); err != nil {
			return err
		}
		if err := r.takeBackup(ctx); err != nil {
			if terr := r.transition(ctx, importrun.StateFailed); terr != nil {
				return terr
			}
			return importrun.Fatal(err, "backup before import")
		}
	}

	if err := r.transition(ctx, importrun.StateLoadingSources); err != nil {
		return err
	}
	sources, err := r.svc.loader.Load(ctx, r.cfg.DataDir)
	if err != nil {
		return r.fail(ctx, err)
	}

	if err := r.transition(ctx, importrun.StateValidating); err != nil {
		return r.fail(ctx, err)
	}
	version, err := r.svc.store.SchemaVersion(ctx)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("read schema version: %w", err))
	}
	if err := checkSchemaVersion(version, r.cfg.ExpectedSchemaVersion); err != nil {
		return r.fail(ctx, err)
	}
	session, err := r.svc.store.Begin(ctx, r.cfg.Mode)
	if err != nil {
		return r.fail(ctx, fmt.Errorf("begin session: %w", err))
	}
	r.session = session

	if r.cfg.Destructive() {
		if err := r.transition(ctx, importrun.StateClearingTables); err != nil {
			return r.fail(ctx, err)
		}
		if err := r.clearTables(ctx); err != nil {
			return r.fail(ctx, err)
		}
	}

	if err := r.transition(ctx, importrun.StateImporting); err != nil {
		return r.fail(ctx, err)
	}
	resolver := NewResolver(session, r.logger)
	if err := r.importSources(ctx, sources, resolver); err != nil {
		return r.fail(ctx, err)
	}

	if err := r.transition(ctx, importrun.StateRepairingIntegrity); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.runRepair(ctx, resolver); err != nil {
		return r.fail(ctx, err)
	}

	if err := r.transition(ctx, importrun.StateCommitting); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.commit(ctx); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.transition(ctx, importrun.StateDone); err != nil {
		return err
	}

	if len(r.summary.FailedFiles) > 0 {
		return crerr.Mark(
			crerr.Newf("%d source files exceeded the error ceiling: %s",
				len(r.summary.FailedFiles), strings.Join(r.summary.FailedFiles, ", ")),
			importrun.ErrErrorCeiling)
	}
	return nil
}

func (r *importRun) repairOnly(ctx context.Context) error {
	session, err := r.svc.store.Begin(ctx, importrun.ModeAtomic)
	if err != nil {
		return fmt.Errorf("begin session: %w", err)
	}
	r.session = session

	if err := r.transition(ctx, importrun.StateRepairingIntegrity); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.runRepair(ctx, NewResolver(session, r.logger)); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.transition(ctx, importrun.StateCommitting); err != nil {
		return r.fail(ctx, err)
	}
	if err := r.commit(ctx); err != nil {
		return r.fail(ctx, err)
	}
	return r.transition(ctx, importrun.StateDone)
}

func (r *importRun) takeBackup(ctx context.Context) error {
	if r.svc.backup == nil {
		return fmt.Errorf("backup requested but no backup manager is configured")
	}
	backup, err := r.svc.backup.Create(ctx)
	if err != nil {
		return err
	}
	r.summary.Backup = &backup
	r.logger.InfoContext(ctx, "backup created", "path", backup.Path)
	return nil
}

func (r *importRun) clearTables(ctx context.Context) error {
	if err := r.session.SuspendConstraints(ctx); err != nil {
		return fmt.Errorf("suspend constraints: %w", err)
	}
	r.suspended = true

	tables := table.ClearOrder(r.cfg.PreserveEntities)
	counts, err := r.session.ClearTables(ctx, tables)
	if err != nil {
		return fmt.Errorf("clear tables: %w", err)
	}
	for _, name := range tables {
		r.summary.Table(name).Cleared = counts[name]
	}
	r.logger.InfoContext(ctx, "tables cleared", "tables", tables, "preserve_entities", r.cfg.PreserveEntities)
	return nil
}

func (r *importRun) runRepair(ctx context.Context, resolver *Resolver) error {
	outcome, err := r.svc.repair.Run(ctx, r.session, resolver)
	r.summary.Repair = outcome.Report
	for _, item := range outcome.Review {
		r.summary.AddReview(item)
	}
	if err != nil {
		return fmt.Errorf("repair integrity: %w", err)
	}
	r.summary.Table(table.Teams).Cleared += outcome.Report.OrphansDeleted
	return nil
}

func (r *importRun) commit(ctx context.Context) error {
	if r.suspended {
		if err := r.session.RestoreConstraints(ctx); err != nil {
			return fmt.Errorf("restore constraints: %w", err)
		}
		r.suspended = false
	}
	if err := r.session.Commit(ctx); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// fail rolls back, restores the backup when writes may have happened, and
// returns cause marked as a transaction failure. A restore error is recorded
// on the summary and never replaces cause.
func (r *importRun) fail(ctx context.Context, cause error) error {
	failedIn := r.summary.State
	err := importrun.TransactionFailure(cause, failedIn)
	cleanupCtx := context.WithoutCancel(ctx)

	if r.session != nil {
		if r.suspended {
			if rerr := r.session.RestoreConstraints(cleanupCtx); rerr != nil {
				r.logger.WarnContext(ctx, "restore constraints after failure", "error", rerr)
			}
			r.suspended = false
		}
		if rbErr := r.session.Rollback(cleanupCtx); rbErr != nil {
			r.logger.ErrorContext(ctx, "rollback failed", "error", rbErr)
		}
	}
	if terr := r.transition(ctx, importrun.StateRolledBack); terr != nil {
		r.logger.WarnContext(ctx, "forcing rolled_back state", "error", terr)
		r.summary.State = importrun.StateRolledBack
		r.summary.History = append(r.summary.History, importrun.StateRolledBack)
	}

	if r.session != nil && r.summary.Backup != nil && r.svc.backup != nil {
		if rerr := r.svc.backup.Restore(cleanupCtx, *r.summary.Backup); rerr != nil {
			r.summary.RestoreErr = rerr
			r.logger.ErrorContext(ctx, "restore from backup failed", "path", r.summary.Backup.Path, "error", rerr)
		} else {
			r.logger.WarnContext(ctx, "database restored from backup", "path", r.summary.Backup.Path)
		}
	}

	if crerr.Is(cause, importrun.ErrErrorCeiling) || crerr.Is(cause, importrun.ErrSourceValidation) {
		return importrun.Fatal(err, "import aborted")
	}
	return err
}
