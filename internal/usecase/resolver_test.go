package usecase

import (
	"context"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/infrastructure/repository/memory"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
)

func newTestResolver(t *testing.T, store *memory.Store) *Resolver {
	t.Helper()

	session, err := store.Begin(context.Background(), importrun.ModeAtomic)
	if err != nil {
		t.Fatalf("begin session: %v", err)
	}
	return NewResolver(session, logging.NewNop())
}

func TestResolver_ResolveTeam_NeverMatchesAPrefixSeries(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := memory.NewStore()
	seeded := store.SeedTeam("NSTF", "Birchwood", "Series 1", "Birchwood 1")
	resolver := newTestResolver(t, store)

	_, err := resolver.ResolveTeam(ctx, "NSTF", "Birchwood 12", PolicyFixture)
	if !crerr.Is(err, importrun.ErrUnresolvedEntity) {
		t.Fatalf("expected unresolved entity, got %v", err)
	}
	if crerr.Is(err, importrun.ErrAmbiguousTeam) {
		t.Fatalf("a single miss must not be reported as ambiguous: %v", err)
	}

	got, err := resolver.ResolveTeam(ctx, "NSTF", "Birchwood 1", PolicyFixture)
	if err != nil {
		t.Fatalf("resolve Birchwood 1: %v", err)
	}
	if got != seeded.ID {
		t.Fatalf("unexpected team id: got=%d want=%d", got, seeded.ID)
	}

	created, err := resolver.ResolveTeam(ctx, "NSTF", "Birchwood 12", PolicySeriesStats)
	if err != nil {
		t.Fatalf("create Birchwood 12: %v", err)
	}
	if created == seeded.ID {
		t.Fatalf("Birchwood 12 must get its own team")
	}
	if n := resolver.Created()[table.Teams]; n != 1 {
		t.Fatalf("expected one created team, got %d", n)
	}
}

func TestResolver_ResolveTeam_Layers(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name   string
		league string
		seed   [3]string
		raw    string
		policy ResolvePolicy
	}{
		{
			name:   "exact ignores separator punctuation",
			league: "APTA_CHICAGO",
			seed:   [3]string{"Tennaqua", "Chicago 22", "Tennaqua - 22"},
			raw:    "Tennaqua 22",
			policy: PolicyFixture,
		},
		{
			name:   "structural key",
			league: "NSTF",
			seed:   [3]string{"Wilmette", "Series 2B", "Wilmette Tennis Club 2B"},
			raw:    "Wilmette S2B",
			policy: PolicyFixture,
		},
		{
			name:   "fuzzy across series naming",
			league: "APTA_CHICAGO",
			seed:   [3]string{"Hinsdale PC", "Chicago 7", "Hinsdale PC - 7"},
			raw:    "Hinsdale PC 7 (2)",
			policy: PolicyFixture,
		},
		{
			name:   "fuzzy containment",
			league: "CITA",
			seed:   [3]string{"Valley Lo", "Series 4", "Valley Lo 4"},
			raw:    "North Valley Lo 4",
			policy: PolicyFixture,
		},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			store := memory.NewStore()
			seeded := store.SeedTeam(tc.league, tc.seed[0], tc.seed[1], tc.seed[2])
			resolver := newTestResolver(t, store)

			got, err := resolver.ResolveTeam(context.Background(), tc.league, tc.raw, tc.policy)
			if err != nil {
				t.Fatalf("resolve %q: %v", tc.raw, err)
			}
			if got != seeded.ID {
				t.Fatalf("resolve %q: got=%d want=%d", tc.raw, got, seeded.ID)
			}
			if n := resolver.Created()[table.Teams]; n != 0 {
				t.Fatalf("resolve %q created %d teams", tc.raw, n)
			}
		})
	}
}

func TestResolver_ResolveTeam_IdentifierSeparatesDuplicateKeys(t *testing.T) {
	t.Parallel()

	t.Run("unique identifier wins", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		numbered := store.SeedTeam("NSTF", "Wilmette", "Series 2", "Wilmette - 2")
		store.SeedTeam("NSTF", "Wilmette", "Series 2", "Wilmette - Legacy")
		resolver := newTestResolver(t, store)

		got, err := resolver.ResolveTeam(context.Background(), "NSTF", "Wilmette S2", PolicySeriesStats)
		if err != nil {
			t.Fatalf("resolve: %v", err)
		}
		if got != numbered.ID {
			t.Fatalf("got=%d want=%d", got, numbered.ID)
		}
		if n := resolver.Created()[table.Teams]; n != 0 {
			t.Fatalf("expected no created team, got %d", n)
		}
	})

	t.Run("shared identifier is ambiguous", func(t *testing.T) {
		t.Parallel()

		store := memory.NewStore()
		store.SeedTeam("NSTF", "Wilmette", "Series 2", "Wilmette - 2")
		store.SeedTeam("NSTF", "Wilmette", "Series 2", "Wilmette - 2")
		resolver := newTestResolver(t, store)

		_, err := resolver.ResolveTeam(context.Background(), "NSTF", "Wilmette S2", PolicySeriesStats)
		if !crerr.Is(err, importrun.ErrAmbiguousTeam) {
			t.Fatalf("expected ambiguous team, got %v", err)
		}
		if n := resolver.Created()[table.Teams]; n != 0 {
			t.Fatalf("ambiguous input must not create a team, created %d", n)
		}
	})
}

func TestResolver_ResolvePlayerTeam_StaysInItsSeries(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name     string
		seedName string
	}{
		{name: "same identifier in another series", seedName: "Tennaqua D1"},
		{name: "same surface name in another series", seedName: "Tennaqua 1"},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			store := memory.NewStore()
			other := store.SeedTeam("CNSWPL", "Tennaqua", "Division 1", tc.seedName)

			session, err := store.Begin(ctx, importrun.ModeAtomic)
			if err != nil {
				t.Fatalf("begin session: %v", err)
			}
			resolver := NewResolver(session, logging.NewNop())

			refs, err := resolver.ResolvePlayerTeam(ctx, "CNSWPL", "Tennaqua", "Series 1")
			if err != nil {
				t.Fatalf("resolve player team: %v", err)
			}
			if refs.TeamID == nil || *refs.TeamID == other.ID {
				t.Fatalf("player in Series 1 linked to the Division 1 team: %v", refs.TeamID)
			}

			teams, err := session.ListTeamsByLeague(ctx, refs.LeagueID)
			if err != nil {
				t.Fatalf("list teams: %v", err)
			}
			for _, tm := range teams {
				if tm.ID == *refs.TeamID && tm.SeriesID != refs.SeriesID {
					t.Fatalf("team series %d differs from player series %d", tm.SeriesID, refs.SeriesID)
				}
			}
			if n := resolver.Created()[table.Teams]; n != 1 {
				t.Fatalf("expected the Series 1 team to be created, got %d", n)
			}
		})
	}
}

func TestResolver_ResolveTeam_FuzzyNeedsPolicy(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	store.SeedTeam("CITA", "Valley Lo", "Series 4", "Valley Lo 4")
	resolver := newTestResolver(t, store)

	_, err := resolver.ResolveTeam(context.Background(), "CITA", "North Valley Lo 4", ResolvePolicy{})
	if !crerr.Is(err, importrun.ErrUnresolvedEntity) {
		t.Fatalf("expected unresolved entity without fuzzy matching, got %v", err)
	}
}

func TestResolver_ResolveTeam_AmbiguousFuzzyMatch(t *testing.T) {
	t.Parallel()

	store := memory.NewStore()
	first := store.SeedTeam("CITA", "Valley Lo", "Series 4", "Valley Lo 4")
	second := store.SeedTeam("CITA", "Lo", "Series 4", "Lo 4")
	resolver := newTestResolver(t, store)

	_, err := resolver.ResolveTeam(context.Background(), "CITA", "North Valley Lo 4", PolicySeriesStats)
	if !crerr.Is(err, importrun.ErrAmbiguousTeam) {
		t.Fatalf("expected ambiguous team, got %v", err)
	}

	var unresolved *importrun.UnresolvedEntityError
	if !crerr.As(err, &unresolved) {
		t.Fatalf("expected UnresolvedEntityError, got %T", err)
	}
	if len(unresolved.Candidates) != 2 ||
		unresolved.Candidates[0] != first.ID || unresolved.Candidates[1] != second.ID {
		t.Fatalf("unexpected candidates: %v", unresolved.Candidates)
	}
	if n := resolver.Created()[table.Teams]; n != 0 {
		t.Fatalf("ambiguous input must not create a team, created %d", n)
	}
}

func TestResolver_ResolvePlayerTeam_CreatesOnce(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	resolver := newTestResolver(t, memory.NewStore())

	first, err := resolver.ResolvePlayerTeam(ctx, "APTA_CHICAGO", "Tennaqua", "Chicago 22")
	if err != nil {
		t.Fatalf("resolve player team: %v", err)
	}
	second, err := resolver.ResolvePlayerTeam(ctx, "APTA_CHICAGO", "Tennaqua", "Chicago 22")
	if err != nil {
		t.Fatalf("resolve player team again: %v", err)
	}
	if first.TeamID == nil || second.TeamID == nil || *first.TeamID != *second.TeamID {
		t.Fatalf("expected a stable team id, got %v and %v", first.TeamID, second.TeamID)
	}

	fixture, err := resolver.ResolveTeam(ctx, "APTA_CHICAGO", "Tennaqua - 22", PolicyFixture)
	if err != nil {
		t.Fatalf("resolve fixture side: %v", err)
	}
	if fixture != *first.TeamID {
		t.Fatalf("fixture resolved to %d, want %d", fixture, *first.TeamID)
	}

	created := resolver.Created()
	for _, name := range []string{table.Leagues, table.Clubs, table.Series, table.ClubLeagues, table.SeriesLeagues, table.Teams} {
		if created[name] != 1 {
			t.Fatalf("expected one %s row, got %d", name, created[name])
		}
	}
}

func TestResolver_ResolveTeam_RejectsUnparseableInput(t *testing.T) {
	t.Parallel()

	_, err := newTestResolver(t, memory.NewStore()).ResolveTeam(context.Background(), "NSTF", "   ", PolicySeriesStats)
	if !crerr.Is(err, importrun.ErrUnresolvedEntity) {
		t.Fatalf("expected unresolved entity, got %v", err)
	}
}

func TestContainsTokens(t *testing.T) {
	t.Parallel()

	haystack := []string{"north", "valley", "lo", "4"}
	if !containsTokens(haystack, []string{"valley", "lo", "4"}) {
		t.Fatalf("expected contiguous run to match")
	}
	if containsTokens(haystack, []string{"north", "lo"}) {
		t.Fatalf("non-contiguous tokens must not match")
	}
	if containsTokens([]string{"birchwood", "12"}, []string{"birchwood", "1"}) {
		t.Fatalf("token prefixes must not match")
	}
}
