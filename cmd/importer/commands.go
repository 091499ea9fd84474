package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	sonic "github.com/bytedance/sonic"
	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/league-sync/internal/app"
	"github.com/riskibarqy/league-sync/internal/config"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/observability"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

type cli struct {
	stdout   io.Writer
	stderr   io.Writer
	cfg      config.Config
	logger   *logging.Logger
	shutdown func(context.Context) error
}

func newCLI(stdout, stderr io.Writer) *cli {
	return &cli{stdout: stdout, stderr: stderr}
}

func (c *cli) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:           "importer",
		Short:         "Reconcile scraped league data into the league database",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.setup()
		},
	}
	root.SetOut(c.stdout)
	root.SetErr(c.stderr)

	root.AddCommand(c.runCommand(), c.checkCommand(), c.repairCommand())
	return root
}

func (c *cli) setup() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	c.cfg = cfg
	c.logger = logging.New(cfg.LogLevel, cfg.LogFormat).Named("importer")
	logging.SetDefault(c.logger)

	shutdown, err := observability.InitUptrace(cfg, c.logger)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	c.shutdown = shutdown
	return nil
}

func (c *cli) close() {
	if c.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := c.shutdown(ctx); err != nil {
			c.logger.Warn("tracing shutdown failed", "error", err)
		}
		c.shutdown = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func (c *cli) runCommand() *cobra.Command {
	var (
		flags     config.ImportFlags
		reviewOut string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Import the source files of a data directory",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			importCfg, err := config.NewImportConfig(c.cfg, flags)
			if err != nil {
				return err
			}
			if importCfg.TestOnly {
				return c.check(cmd.Context(), importCfg)
			}

			importer, err := app.NewImporter(cmd.Context(), c.cfg, importCfg, c.logger)
			if err != nil {
				return err
			}
			defer c.closeImporter(importer)

			summary, runErr := importer.Service.Run(cmd.Context(), importCfg)
			if err := renderSummary(c.stdout, summary); err != nil {
				c.logger.Warn("render summary failed", "error", err)
			}
			if reviewOut != "" {
				if err := writeReview(reviewOut, summary.Review); err != nil {
					c.logger.Warn("write review items failed", "path", reviewOut, "error", err)
				}
			}
			if runErr != nil {
				return runErr
			}
			if !summary.Succeeded() {
				return fmt.Errorf("import committed but %d file(s) were abandoned", len(summary.FailedFiles))
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.Environment, "environment", "", "target environment: local, staging or production (default from APP_ENV)")
	f.StringVar(&flags.Mode, "mode", string(importrun.ModeAtomic), "import mode: atomic or incremental")
	f.StringVar(&flags.DataDir, "data-dir", "", "directory holding the source JSON files (default from IMPORT_DATA_DIR)")
	f.IntVar(&flags.BatchSize, "batch-size", 0, fmt.Sprintf("rows per upsert batch, %d-%d (default from IMPORT_BATCH_SIZE)", config.MinBatchSize, config.MaxBatchSize))
	f.BoolVar(&flags.NoBackup, "no-backup", false, "skip the pg_dump backup (not allowed in production)")
	f.BoolVar(&flags.Force, "force", false, "confirm a production import")
	f.BoolVar(&flags.TestOnly, "test-only", false, "only check the connection and schema version")
	f.BoolVar(&flags.DryRun, "dry-run", false, "run the whole pipeline against an in-memory store")
	f.BoolVar(&flags.PreserveEntities, "preserve-entities", true, "keep leagues, clubs, series and teams so their ids survive the run")
	f.StringVar(&reviewOut, "review-out", "", "write review items as JSON to this file")
	return cmd
}

func (c *cli) checkCommand() *cobra.Command {
	var flags config.ImportFlags

	cmd := &cobra.Command{
		Use:   "check",
		Short: "Check the database connection and schema version",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			flags.TestOnly = true
			importCfg, err := config.NewImportConfig(c.cfg, flags)
			if err != nil {
				return err
			}
			return c.check(cmd.Context(), importCfg)
		},
	}
	cmd.Flags().StringVar(&flags.Environment, "environment", "", "target environment (default from APP_ENV)")
	cmd.Flags().BoolVar(&flags.Force, "force", false, "confirm a production check")
	return cmd
}

func (c *cli) check(ctx context.Context, importCfg config.ImportConfig) error {
	importer, err := app.NewImporter(ctx, c.cfg, importCfg, c.logger)
	if err != nil {
		return err
	}
	defer c.closeImporter(importer)

	report, checkErr := importer.Service.Check(ctx, importCfg)
	if err := renderCheck(c.stdout, report, checkErr); err != nil {
		c.logger.Warn("render check failed", "error", err)
	}
	return checkErr
}

func (c *cli) repairCommand() *cobra.Command {
	var (
		environment string
		force       bool
	)

	cmd := &cobra.Command{
		Use:   "repair",
		Short: "Run only the integrity repair pass, in one transaction",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			importCfg, err := repairConfig(c.cfg, environment, force)
			if err != nil {
				return err
			}

			importer, err := app.NewImporter(cmd.Context(), c.cfg, importCfg, c.logger)
			if err != nil {
				return err
			}
			defer c.closeImporter(importer)

			summary, runErr := importer.Service.Repair(cmd.Context())
			if err := renderSummary(c.stdout, summary); err != nil {
				c.logger.Warn("render summary failed", "error", err)
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&environment, "environment", "", "target environment (default from APP_ENV)")
	cmd.Flags().BoolVar(&force, "force", false, "confirm a production repair")
	return cmd
}

// repairConfig applies the production gate to a repair run. Repair takes no backup.
func repairConfig(cfg config.Config, rawEnv string, force bool) (config.ImportConfig, error) {
	if rawEnv == "" {
		rawEnv = cfg.AppEnv
	}
	env, err := config.ParseEnvironment(rawEnv)
	if err != nil {
		return config.ImportConfig{}, err
	}
	if env == config.EnvironmentProduction && !force {
		return config.ImportConfig{}, crerr.Mark(
			crerr.Newf("refusing to repair %s without --force", env), importrun.ErrProductionGate)
	}
	return config.ImportConfig{
		Environment:           env,
		Mode:                  importrun.ModeAtomic,
		Force:                 force,
		ExpectedSchemaVersion: cfg.ExpectedSchemaVersion,
	}, nil
}

func (c *cli) closeImporter(importer *app.Importer) {
	if err := importer.Close(); err != nil {
		c.logger.Warn("close importer failed", "error", err)
	}
}

func writeReview(path string, items []importrun.ReviewItem) error {
	data, err := sonic.ConfigStd.MarshalIndent(reviewDocument(items), "", "  ")
	if err != nil {
		return fmt.Errorf("encode review items: %w", err)
	}
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("write review items: %w", err)
	}
	return nil
}

type reviewEntry struct {
	Kind     string  `json:"kind"`
	LeagueID string  `json:"league_id,omitempty"`
	Raw      string  `json:"raw"`
	Reason   string  `json:"reason"`
	TeamIDs  []int64 `json:"team_ids,omitempty"`
}

func reviewDocument(items []importrun.ReviewItem) []reviewEntry {
	out := make([]reviewEntry, 0, len(items))
	for _, item := range items {
		out = append(out, reviewEntry{
			Kind:     item.Kind,
			LeagueID: item.LeagueID,
			Raw:      item.Raw,
			Reason:   item.Reason,
			TeamIDs:  item.TeamIDs,
		})
	}
	return out
}
