package config

import (
	"fmt"
	"strings"
	"time"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
)

const (
	MinBatchSize     = 100
	MaxBatchSize     = 1000
	DefaultBatchSize = 500
)

// Environment is the deployment an import run targets.
type Environment string

const (
	EnvironmentLocal      Environment = "local"
	EnvironmentStaging    Environment = "staging"
	EnvironmentProduction Environment = "production"
)

// ParseEnvironment accepts the CLI names and the APP_ENV short forms.
func ParseEnvironment(raw string) (Environment, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "local", EnvDev, "development":
		return EnvironmentLocal, nil
	case "staging", EnvStage:
		return EnvironmentStaging, nil
	case "production", EnvProd:
		return EnvironmentProduction, nil
	default:
		return "", fmt.Errorf("invalid environment %q: valid values are %s, %s, %s",
			raw, EnvironmentLocal, EnvironmentStaging, EnvironmentProduction)
	}
}

// ImportFlags are the command line options of one importer invocation.
// Zero values fall back to Config.
type ImportFlags struct {
	Environment      string
	Mode             string
	DataDir          string
	BatchSize        int
	NoBackup         bool
	Force            bool
	TestOnly         bool
	DryRun           bool
	PreserveEntities bool
}

// ImportConfig is the validated, immutable description of one run.
type ImportConfig struct {
	Environment           Environment
	Mode                  importrun.Mode
	DataDir               string
	BatchSize             int
	StatementTimeout      time.Duration
	IdleTxTimeout         time.Duration
	Backup                bool
	BackupDir             string
	Force                 bool
	TestOnly              bool
	DryRun                bool
	PreserveEntities      bool
	ErrorCeiling          int
	ExpectedSchemaVersion uint
}

// NewImportConfig merges flags over cfg and enforces the production gate:
// production needs Force and always takes a backup.
func NewImportConfig(cfg Config, flags ImportFlags) (ImportConfig, error) {
	rawEnv := flags.Environment
	if strings.TrimSpace(rawEnv) == "" {
		rawEnv = cfg.AppEnv
	}
	env, err := ParseEnvironment(rawEnv)
	if err != nil {
		return ImportConfig{}, err
	}

	mode, err := importrun.ParseMode(flags.Mode)
	if err != nil {
		return ImportConfig{}, err
	}

	batchSize := flags.BatchSize
	if batchSize == 0 {
		batchSize = cfg.BatchSize
	}
	if batchSize == 0 {
		batchSize = DefaultBatchSize
	}
	if batchSize < MinBatchSize || batchSize > MaxBatchSize {
		return ImportConfig{}, fmt.Errorf("batch size must be between %d and %d, got %d", MinBatchSize, MaxBatchSize, batchSize)
	}

	dataDir := strings.TrimSpace(flags.DataDir)
	if dataDir == "" {
		dataDir = cfg.DataDir
	}
	if dataDir == "" && !flags.TestOnly {
		return ImportConfig{}, fmt.Errorf("data directory is required")
	}

	if env == EnvironmentProduction {
		if !flags.Force {
			return ImportConfig{}, crerr.Mark(
				crerr.Newf("refusing to import into %s without --force", env), importrun.ErrProductionGate)
		}
		if flags.NoBackup {
			return ImportConfig{}, crerr.Mark(
				crerr.Newf("--no-backup is not allowed in %s", env), importrun.ErrProductionGate)
		}
	}

	errorCeiling := cfg.ErrorCeiling
	if errorCeiling <= 0 {
		errorCeiling = 100
	}

	return ImportConfig{
		Environment:           env,
		Mode:                  mode,
		DataDir:               dataDir,
		BatchSize:             batchSize,
		StatementTimeout:      cfg.StatementTimeout,
		IdleTxTimeout:         cfg.IdleTxTimeout,
		Backup:                !flags.NoBackup && !flags.DryRun && !flags.TestOnly,
		BackupDir:             cfg.BackupDir,
		Force:                 flags.Force,
		TestOnly:              flags.TestOnly,
		DryRun:                flags.DryRun,
		PreserveEntities:      flags.PreserveEntities,
		ErrorCeiling:          errorCeiling,
		ExpectedSchemaVersion: cfg.ExpectedSchemaVersion,
	}, nil
}

// Destructive reports whether the run clears tables before importing.
func (c ImportConfig) Destructive() bool {
	return c.Mode == importrun.ModeAtomic && !c.TestOnly
}
