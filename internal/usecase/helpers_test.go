package usecase

import (
	"context"
	"time"

	"github.com/riskibarqy/league-sync/internal/config"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/platform/id"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
	"github.com/stretchr/testify/mock"
)

type stubLoader struct {
	sources []rawdata.Source
	err     error
}

func (l *stubLoader) Load(context.Context, string) ([]rawdata.Source, error) {
	return l.sources, l.err
}

type backupManagerMock struct {
	mock.Mock
}

func (m *backupManagerMock) Create(ctx context.Context) (importrun.Backup, error) {
	args := m.Called(ctx)
	return args.Get(0).(importrun.Backup), args.Error(1)
}

func (m *backupManagerMock) Restore(ctx context.Context, backup importrun.Backup) error {
	return m.Called(ctx, backup).Error(0)
}

func newTestImportService(store importrun.Store, loader SourceLoader, backup BackupManager) *ImportService {
	svc := NewImportService(store, loader, backup, id.Static("run-test"), logging.NewNop())
	svc.now = func() time.Time { return time.Date(2024, 10, 20, 8, 0, 0, 0, time.UTC) }
	return svc
}

func testImportConfig(mode importrun.Mode) config.ImportConfig {
	return config.ImportConfig{
		Environment:  config.EnvironmentLocal,
		Mode:         mode,
		DataDir:      "testdata",
		BatchSize:    config.MinBatchSize,
		ErrorCeiling: 100,
	}
}

func sourceOf(kind rawdata.Kind, records ...rawdata.Record) rawdata.Source {
	file, _ := rawdata.Lookup(kind)
	return rawdata.Source{File: file, Path: "testdata/" + file.Name, Records: records}
}

func playerRecord(externalID, league, club, series string) rawdata.Record {
	return rawdata.Record{
		"Player ID":  externalID,
		"First Name": "Pat",
		"Last Name":  "Example " + externalID,
		"League":     league,
		"Club":       club,
		"Series":     series,
		"PTI":        "45.5",
		"Wins":       "3",
		"Losses":     "1",
	}
}

// leagueSources is a small APTA export: two teams, a match against an
// unknown opponent, a schedule entry and standings under a drifted team name.
func leagueSources() []rawdata.Source {
	return []rawdata.Source{
		sourceOf(rawdata.KindPlayers,
			playerRecord("nndz-1", "APTA_CHICAGO", "Tennaqua", "22"),
			playerRecord("nndz-2", "APTA_CHICAGO", "Tennaqua", "22"),
			playerRecord("nndz-3", "APTA_CHICAGO", "Birchwood", "1"),
		),
		sourceOf(rawdata.KindPlayerHistory,
			rawdata.Record{
				"player_id": "nndz-1",
				"league_id": "APTA_CHICAGO",
				"series":    "22",
				"matches": []any{
					map[string]any{"date": "05-Oct-24", "end_pti": 46.1},
					map[string]any{"date": "12-Oct-24", "end_pti": 45.5},
				},
			},
		),
		sourceOf(rawdata.KindMatchHistory,
			rawdata.Record{
				"league_id": "APTA_CHICAGO",
				"Date":      "12-Oct-24",
				"Home Team": "Tennaqua - 22",
				"Away Team": "Birchwood 12",
				"Scores":    "6-2, 6-3",
				"Winner":    "home",
			},
		),
		sourceOf(rawdata.KindSeriesStats,
			rawdata.Record{
				"league_id": "APTA_CHICAGO",
				"series":    "22",
				"team":      "Tennaqua 22",
				"points":    12,
				"wins":      3,
				"losses":    1,
			},
		),
		sourceOf(rawdata.KindSchedules,
			rawdata.Record{
				"League":    "APTA_CHICAGO",
				"date":      "2024-10-19",
				"time":      "7:00 PM",
				"home_team": "Tennaqua - 22",
				"away_team": "Birchwood - 1",
				"location":  "Tennaqua",
			},
		),
	}
}
