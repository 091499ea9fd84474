package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/player"
	"github.com/riskibarqy/league-sync/internal/domain/schedule"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/domain/team"
	"github.com/riskibarqy/league-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
)

func seedPlayerOn(t *testing.T, session importrun.Session, externalID string, tm team.Team) {
	t.Helper()

	teamID := tm.ID
	rec := player.Record{ExternalID: externalID, FirstName: "Sam", LastName: "Example", LeagueID: tm.LeagueCode}
	_, err := session.UpsertBatch(context.Background(), player.Table, []table.Row{
		rec.Row(player.Refs{LeagueID: tm.LeagueID, ClubID: tm.ClubID, SeriesID: tm.SeriesID, TeamID: &teamID}),
	})
	if err != nil {
		t.Fatalf("seed player %s: %v", externalID, err)
	}
}

func TestRepairService_Run_ReportsDuplicatesWithoutMerging(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	first := store.SeedTeam("NSTF", "Glenview", "Series 5", "Glenview 5")
	second := store.SeedTeam("NSTF", "Glenview", "Series 5", "Glenview 5")

	session, err := store.Begin(ctx, importrun.ModeAtomic)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	seedPlayerOn(t, session, "nndz-1", first)
	seedPlayerOn(t, session, "nndz-2", second)

	outcome, err := NewRepairService(logging.NewNop()).Run(ctx, session, NewResolver(session, logging.NewNop()))
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if outcome.Report.DuplicateGroups != 1 {
		t.Fatalf("expected one duplicate group, got %d", outcome.Report.DuplicateGroups)
	}
	if outcome.Report.OrphansDeleted != 0 {
		t.Fatalf("referenced duplicates must not be deleted, deleted %d", outcome.Report.OrphansDeleted)
	}
	if len(outcome.Review) != 1 || outcome.Review[0].Kind != importrun.ReviewDuplicateTeams {
		t.Fatalf("unexpected review items: %+v", outcome.Review)
	}
	if ids := outcome.Review[0].TeamIDs; len(ids) != 2 || ids[0] != first.ID || ids[1] != second.ID {
		t.Fatalf("unexpected duplicate ids: %v", ids)
	}

	teams, err := session.ListTeamsByLeague(ctx, first.LeagueID)
	if err != nil {
		t.Fatalf("list teams: %v", err)
	}
	if len(teams) != 2 {
		t.Fatalf("duplicates must be kept, got %d teams", len(teams))
	}
}

func TestRepairService_Run_BackfillsFixtureTeams(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	home := store.SeedTeam("NSTF", "Wilmette", "Series 2", "Wilmette 2")
	away := store.SeedTeam("NSTF", "Lake Bluff", "Series 2", "Lake Bluff 2")

	session, err := store.Begin(ctx, importrun.ModeAtomic)
	if err != nil {
		t.Fatalf("begin: %v", err)
	}
	fixture := schedule.Record{
		LeagueID: "NSTF",
		Date:     time.Date(2024, 10, 19, 0, 0, 0, 0, time.UTC),
		HomeTeam: "Wilmette 2",
		AwayTeam: "Lake Bluff 2",
	}
	if _, err := session.UpsertBatch(ctx, schedule.Table, []table.Row{fixture.Row(home.LeagueID, nil, nil)}); err != nil {
		t.Fatalf("seed schedule: %v", err)
	}

	outcome, err := NewRepairService(logging.NewNop()).Run(ctx, session, NewResolver(session, logging.NewNop()))
	if err != nil {
		t.Fatalf("repair: %v", err)
	}
	if outcome.Report.FixturesLinked != 1 {
		t.Fatalf("expected one linked fixture, got %d", outcome.Report.FixturesLinked)
	}
	if outcome.Report.OrphansDeleted != 0 {
		t.Fatalf("linked teams are no longer orphans, deleted %d", outcome.Report.OrphansDeleted)
	}

	fixtures, err := session.ListUnlinkedFixtures(ctx)
	if err != nil {
		t.Fatalf("list unlinked fixtures: %v", err)
	}
	if len(fixtures) != 0 {
		t.Fatalf("expected every fixture linked, got %+v", fixtures)
	}
	if err := session.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	row := store.Rows(table.Schedule)[0]
	if got, _ := row["home_team_id"].(*int64); got == nil || *got != home.ID {
		t.Fatalf("unexpected home team id: %v", row["home_team_id"])
	}
	if got, _ := row["away_team_id"].(*int64); got == nil || *got != away.ID {
		t.Fatalf("unexpected away team id: %v", row["away_team_id"])
	}
}

func TestPickReferenceTeam(t *testing.T) {
	t.Parallel()

	candidates := []team.Team{
		{ID: 10, SeriesName: "Chicago 7"},
		{ID: 11, SeriesName: "Series 2B"},
	}

	cases := []struct {
		name       string
		candidates []team.Team
		token      string
		want       int64
	}{
		{"series token narrows", candidates, "2B", 11},
		{"unknown token falls back to nothing", candidates, "9", 0},
		{"no token with several teams", candidates, "", 0},
		{"single candidate", candidates[:1], "", 10},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got := pickReferenceTeam(tc.candidates, tc.token)
			switch {
			case tc.want == 0 && got != nil:
				t.Fatalf("expected nil, got %d", *got)
			case tc.want != 0 && (got == nil || *got != tc.want):
				t.Fatalf("expected %d, got %v", tc.want, got)
			}
		})
	}
}
