package app

import (
	"context"
	"fmt"

	"github.com/riskibarqy/league-sync/internal/config"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/infrastructure/backup"
	"github.com/riskibarqy/league-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/league-sync/internal/infrastructure/repository/postgres"
	"github.com/riskibarqy/league-sync/internal/infrastructure/source"
	idgen "github.com/riskibarqy/league-sync/internal/platform/id"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
	"github.com/riskibarqy/league-sync/internal/usecase"
)

// Importer is the wired import engine plus the resources it keeps open.
type Importer struct {
	Service *usecase.ImportService
	closers []func() error
}

// Close releases the database handle, if one was opened.
func (i *Importer) Close() error {
	var firstErr error
	for idx := len(i.closers) - 1; idx >= 0; idx-- {
		if err := i.closers[idx](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	i.closers = nil
	return firstErr
}

// NewImporter wires the engine against PostgreSQL, or against an in-memory store for dry runs.
func NewImporter(ctx context.Context, cfg config.Config, importCfg config.ImportConfig, logger *logging.Logger) (*Importer, error) {
	if logger == nil {
		logger = logging.Default()
	}
	loader := source.NewLoader(logger)

	if importCfg.DryRun {
		store := memory.NewStore()
		if importCfg.ExpectedSchemaVersion != 0 {
			store.SetSchemaVersion(importrun.SchemaVersion{Version: importCfg.ExpectedSchemaVersion, Present: true})
		}
		logger.Info("dry run: writes go to an in-memory store")
		return &Importer{
			Service: usecase.NewImportService(store, loader, nil, idgen.NewTimeOrderedGenerator(), logger),
		}, nil
	}

	db, err := OpenDB(ctx, cfg)
	if err != nil {
		return nil, err
	}

	var backups usecase.BackupManager
	if importCfg.Backup {
		manager, err := backup.NewManager(backup.Config{
			DBURL:       cfg.DBURL,
			Dir:         importCfg.BackupDir,
			DumpPath:    cfg.PGDumpPath,
			RestorePath: cfg.PGRestorePath,
		}, logger)
		if err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("configure backup: %w", err)
		}
		backups = manager
	}

	store := postgres.NewStore(db, logger)
	return &Importer{
		Service: usecase.NewImportService(store, loader, backups, idgen.NewTimeOrderedGenerator(), logger),
		closers: []func() error{db.Close},
	}, nil
}
