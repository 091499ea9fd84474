package usecase

import (
	"context"
	"errors"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/domain/reference"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/infrastructure/repository/memory"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestImportService_Run_AtomicImportsEverySource(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestImportService(store, &stubLoader{sources: leagueSources()}, nil)

	summary, err := svc.Run(ctx, testImportConfig(importrun.ModeAtomic))
	require.NoError(t, err)
	require.True(t, summary.Succeeded())
	require.Equal(t, []importrun.State{
		importrun.StateIdle,
		importrun.StateLoadingSources,
		importrun.StateValidating,
		importrun.StateClearingTables,
		importrun.StateImporting,
		importrun.StateRepairingIntegrity,
		importrun.StateCommitting,
		importrun.StateDone,
	}, summary.History)

	require.Equal(t, 1, store.Count(table.Leagues))
	require.Equal(t, 2, store.Count(table.Teams))
	require.Equal(t, 3, store.Count(table.Players))
	require.Equal(t, 2, store.Count(table.PlayerHistory))
	require.Equal(t, 1, store.Count(table.CareerStats))
	require.Equal(t, 1, store.Count(table.Matches))
	require.Equal(t, 1, store.Count(table.SeriesStats))
	require.Equal(t, 1, store.Count(table.Schedule))

	require.Equal(t, 3, summary.Tables[table.Players].Inserted)
	require.Equal(t, 2, summary.Tables[table.Teams].Inserted)
	require.Equal(t, 1, summary.Tables[table.Leagues].Inserted)

	match := store.Rows(table.Matches)[0]
	require.NotNil(t, match["home_team_id"])
	away, _ := match["away_team_id"].(*int64)
	require.Nil(t, away, "Birchwood 12 must not be linked to Birchwood 1")

	stats := store.Rows(table.SeriesStats)[0]
	teamID, ok := stats["team_id"].(*int64)
	require.True(t, ok)
	require.Equal(t, match["home_team_id"], teamID, "Tennaqua 22 and Tennaqua - 22 are the same team")
}

func TestImportService_Run_IncrementalIsIdempotent(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestImportService(store, &stubLoader{sources: leagueSources()}, nil)
	cfg := testImportConfig(importrun.ModeIncremental)

	first, err := svc.Run(ctx, cfg)
	require.NoError(t, err)
	require.NotContains(t, first.History, importrun.StateClearingTables)
	teamsBefore := store.Teams()

	second, err := svc.Run(ctx, cfg)
	require.NoError(t, err)
	require.True(t, second.Succeeded())

	require.Equal(t, 0, second.Table(table.Players).Inserted)
	require.Equal(t, 3, second.Table(table.Players).Updated)
	require.Equal(t, 0, second.Table(table.Teams).Inserted)
	require.Equal(t, 1, second.Table(table.Matches).Updated)
	require.Equal(t, 3, store.Count(table.Players))
	require.Equal(t, 1, store.Count(table.Matches))
	require.Equal(t, teamsBefore, store.Teams())
}

func TestImportService_Run_PreserveEntitiesKeepsTeamIDs(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestImportService(store, &stubLoader{sources: leagueSources()}, nil)
	cfg := testImportConfig(importrun.ModeAtomic)
	cfg.PreserveEntities = true

	_, err := svc.Run(ctx, cfg)
	require.NoError(t, err)
	teamsBefore := store.Teams()

	second, err := svc.Run(ctx, cfg)
	require.NoError(t, err)
	require.Equal(t, teamsBefore, store.Teams())
	require.Equal(t, int64(3), second.Table(table.Players).Cleared)
	require.Equal(t, 3, second.Table(table.Players).Inserted)
	require.Equal(t, 0, second.Table(table.Teams).Inserted)
}

func TestImportService_Run_AtomicFaultRollsBackEverything(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestImportService(store, &stubLoader{sources: leagueSources()}, nil)
	cfg := testImportConfig(importrun.ModeAtomic)

	_, err := svc.Run(ctx, cfg)
	require.NoError(t, err)
	teamsBefore := store.Teams()

	store.InjectUpsertFault(table.Schedule, errors.New("duplicate key value violates unique constraint"))
	summary, err := svc.Run(ctx, cfg)
	require.Error(t, err)
	require.True(t, crerr.Is(err, importrun.ErrTransactionFailure))
	require.True(t, crerr.Is(err, importrun.ErrConstraintViolation))
	require.Equal(t, importrun.StateRolledBack, summary.State)
	require.False(t, summary.Succeeded())

	require.Equal(t, 3, store.Count(table.Players))
	require.Equal(t, 1, store.Count(table.Schedule))
	require.Equal(t, teamsBefore, store.Teams())
}

func TestImportService_Run_IncrementalFaultCostsOnlyTheBatch(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	store.InjectUpsertFault(table.Schedule, errors.New("foreign key violation"))
	svc := newTestImportService(store, &stubLoader{sources: leagueSources()}, nil)

	summary, err := svc.Run(ctx, testImportConfig(importrun.ModeIncremental))
	require.NoError(t, err)
	require.True(t, summary.Succeeded())
	require.Equal(t, 1, summary.Table(table.Schedule).Errored)
	require.Equal(t, 0, store.Count(table.Schedule))
	require.Equal(t, 3, store.Count(table.Players))
	require.Equal(t, 1, store.Count(table.Matches))
}

func badLeaguePlayers(n int) rawdata.Source {
	records := make([]rawdata.Record, 0, n)
	for i := 0; i < n; i++ {
		records = append(records, playerRecord("bad", "PICKLEBALL", "Tennaqua", "22"))
	}
	return sourceOf(rawdata.KindPlayers, records...)
}

func TestImportService_Run_ErrorCeiling(t *testing.T) {
	t.Parallel()

	schedule := sourceOf(rawdata.KindSchedules, rawdata.Record{
		"League":    "NSTF",
		"date":      "2024-10-19",
		"home_team": "Wilmette 2",
		"away_team": "Lake Bluff 2",
	})

	t.Run("atomic aborts the run", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		svc := newTestImportService(store, &stubLoader{sources: []rawdata.Source{badLeaguePlayers(3), schedule}}, nil)
		cfg := testImportConfig(importrun.ModeAtomic)
		cfg.ErrorCeiling = 1

		summary, err := svc.Run(context.Background(), cfg)
		require.Error(t, err)
		require.True(t, crerr.Is(err, importrun.ErrErrorCeiling))
		require.True(t, crerr.Is(err, importrun.ErrFatalImport))
		require.Equal(t, importrun.StateRolledBack, summary.State)
		require.Equal(t, 0, store.Count(table.Schedule))
	})

	t.Run("incremental abandons the file", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		svc := newTestImportService(store, &stubLoader{sources: []rawdata.Source{badLeaguePlayers(3), schedule}}, nil)
		cfg := testImportConfig(importrun.ModeIncremental)
		cfg.ErrorCeiling = 1

		summary, err := svc.Run(context.Background(), cfg)
		require.Error(t, err)
		require.True(t, crerr.Is(err, importrun.ErrErrorCeiling))
		require.Equal(t, importrun.StateDone, summary.State)
		require.Equal(t, []string{"players.json"}, summary.FailedFiles)
		require.False(t, summary.Succeeded())
		require.Equal(t, 0, store.Count(table.Players))
		require.Equal(t, 1, store.Count(table.Schedule))
	})

	t.Run("under the ceiling skips and continues", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		svc := newTestImportService(store, &stubLoader{sources: []rawdata.Source{badLeaguePlayers(1), schedule}}, nil)
		cfg := testImportConfig(importrun.ModeAtomic)
		cfg.ErrorCeiling = 1

		summary, err := svc.Run(context.Background(), cfg)
		require.NoError(t, err)
		require.Equal(t, 1, summary.Table(table.Players).Skipped)
	})
}

func TestImportService_Run_RejectsDirtySchema(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	store.SetSchemaVersion(importrun.SchemaVersion{Version: 1, Dirty: true, Present: true})
	svc := newTestImportService(store, &stubLoader{sources: leagueSources()}, nil)

	summary, err := svc.Run(context.Background(), testImportConfig(importrun.ModeAtomic))
	require.Error(t, err)
	require.True(t, crerr.Is(err, importrun.ErrSourceValidation))
	require.True(t, crerr.Is(err, importrun.ErrFatalImport))
	require.Equal(t, importrun.StateRolledBack, summary.State)
	require.Equal(t, 0, store.Count(table.Players))
}

func TestImportService_Run_BackupFailureNeverStartsTheImport(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	loader := &stubLoader{sources: leagueSources()}
	backup := &backupManagerMock{}
	backup.On("Create", mock.Anything).Return(importrun.Backup{}, errors.New("pg_dump: connection refused")).Once()

	svc := newTestImportService(store, loader, backup)
	cfg := testImportConfig(importrun.ModeAtomic)
	cfg.Backup = true

	summary, err := svc.Run(context.Background(), cfg)
	require.Error(t, err)
	require.True(t, crerr.Is(err, importrun.ErrFatalImport))
	require.Equal(t, importrun.StateFailed, summary.State)
	require.Equal(t, []importrun.State{importrun.StateIdle, importrun.StateBackingUp, importrun.StateFailed}, summary.History)
	require.Equal(t, 0, store.Count(table.Players))
	backup.AssertExpectations(t)
	backup.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything)
}

func TestImportService_Run_RestoresBackupAfterRollback(t *testing.T) {
	t.Parallel()

	snapshot := importrun.Backup{Path: "backups/league_sync_run-test.dump"}

	t.Run("restore succeeds", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		store.InjectUpsertFault(table.Players, errors.New("not null violation"))
		backup := &backupManagerMock{}
		backup.On("Create", mock.Anything).Return(snapshot, nil).Once()
		backup.On("Restore", mock.Anything, snapshot).Return(nil).Once()

		cfg := testImportConfig(importrun.ModeAtomic)
		cfg.Backup = true
		summary, err := newTestImportService(store, &stubLoader{sources: leagueSources()}, backup).Run(context.Background(), cfg)
		require.Error(t, err)
		require.Equal(t, importrun.StateRolledBack, summary.State)
		require.NotNil(t, summary.Backup)
		require.NoError(t, summary.RestoreErr)
		backup.AssertExpectations(t)
	})

	t.Run("restore failure is recorded, not returned", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		store.InjectUpsertFault(table.Players, errors.New("not null violation"))
		backup := &backupManagerMock{}
		backup.On("Create", mock.Anything).Return(snapshot, nil).Once()
		backup.On("Restore", mock.Anything, snapshot).Return(errors.New("pg_restore: archive is damaged")).Once()

		cfg := testImportConfig(importrun.ModeAtomic)
		cfg.Backup = true
		summary, err := newTestImportService(store, &stubLoader{sources: leagueSources()}, backup).Run(context.Background(), cfg)
		require.Error(t, err)
		require.True(t, crerr.Is(err, importrun.ErrConstraintViolation))
		require.Error(t, summary.RestoreErr)
		backup.AssertExpectations(t)
	})

	t.Run("no restore before a session was opened", func(t *testing.T) {
		t.Parallel()

		backup := &backupManagerMock{}
		backup.On("Create", mock.Anything).Return(snapshot, nil).Once()

		cfg := testImportConfig(importrun.ModeAtomic)
		cfg.Backup = true
		loader := &stubLoader{err: importrun.NewSourceValidationError("players.json", "file is missing")}
		summary, err := newTestImportService(memory.NewStore(), loader, backup).Run(context.Background(), cfg)
		require.Error(t, err)
		require.True(t, crerr.Is(err, importrun.ErrSourceValidation))
		require.Equal(t, importrun.StateRolledBack, summary.State)
		backup.AssertNotCalled(t, "Restore", mock.Anything, mock.Anything)
	})
}

func TestImportService_Check(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestImportService(store, &stubLoader{sources: leagueSources()}, nil)
	_, err := svc.Run(ctx, testImportConfig(importrun.ModeAtomic))
	require.NoError(t, err)

	report, err := svc.Check(ctx, testImportConfig(importrun.ModeAtomic))
	require.NoError(t, err)
	require.Equal(t, uint(1), report.SchemaVersion.Version)
	require.Equal(t, int64(3), report.Counts[table.Players])

	cfg := testImportConfig(importrun.ModeAtomic)
	cfg.ExpectedSchemaVersion = 2
	_, err = svc.Check(ctx, cfg)
	require.True(t, crerr.Is(err, importrun.ErrSourceValidation))
}

func TestImportService_Repair_DeletesOrphansAndRelinksReferences(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	svc := newTestImportService(store, &stubLoader{sources: []rawdata.Source{
		sourceOf(rawdata.KindPlayers, playerRecord("nndz-9", "APTA_CHICAGO", "Winnetka", "2")),
	}}, nil)
	cfg := testImportConfig(importrun.ModeIncremental)
	_, err := svc.Run(ctx, cfg)
	require.NoError(t, err)

	orphan := store.SeedTeam("APTA_CHICAGO", "Winnetka", "Chicago 3", "Winnetka - 3")
	owner := int64(7)
	store.SeedUser(owner, "nndz-9")
	poll := store.SeedReference(reference.Reference{
		Kind:        reference.KindPoll,
		TeamID:      &orphan.ID,
		OwnerUserID: &owner,
		Text:        "Series 2 practice on Thursday?",
	})
	message := store.SeedReference(reference.Reference{
		Kind:   reference.KindCaptainMessage,
		TeamID: &orphan.ID,
		Text:   "Bring new balls",
	})

	summary, err := svc.Repair(ctx)
	require.NoError(t, err)
	require.Equal(t, importrun.StateDone, summary.State)
	require.Equal(t, int64(1), summary.Repair.OrphansDeleted)
	require.Equal(t, 1, summary.Repair.OrphansByClub["APTA_CHICAGO/Winnetka"])
	require.Equal(t, 1, summary.Repair.ReferencesRelinked)
	require.Equal(t, 1, summary.Repair.ReferencesNulled)

	teams := store.Teams()
	require.Len(t, teams, 1)
	require.Equal(t, "Chicago 2", teams[0].SeriesName)

	storedPoll, ok := store.Reference(reference.KindPoll, poll.ID)
	require.True(t, ok)
	require.NotNil(t, storedPoll.TeamID)
	require.Equal(t, teams[0].ID, *storedPoll.TeamID)

	storedMessage, ok := store.Reference(reference.KindCaptainMessage, message.ID)
	require.True(t, ok)
	require.Nil(t, storedMessage.TeamID)
}
