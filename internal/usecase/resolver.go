package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/riskibarqy/league-sync/internal/domain/club"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/league"
	"github.com/riskibarqy/league-sync/internal/domain/naming"
	"github.com/riskibarqy/league-sync/internal/domain/player"
	"github.com/riskibarqy/league-sync/internal/domain/series"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/domain/team"
	"github.com/riskibarqy/league-sync/internal/platform/cache"
	"github.com/riskibarqy/league-sync/internal/platform/logging"
)

// ResolvePolicy controls which resolution layers may run for a record type.
type ResolvePolicy struct {
	AllowFuzzy  bool
	AllowCreate bool
}

var (
	// PolicyPlayer creates missing teams from explicit club and series fields.
	PolicyPlayer = ResolvePolicy{AllowCreate: true}
	// PolicySeriesStats creates missing teams but tolerates name drift.
	PolicySeriesStats = ResolvePolicy{AllowFuzzy: true, AllowCreate: true}
	// PolicyFixture never creates; an unresolved side is stored as NULL.
	PolicyFixture = ResolvePolicy{AllowFuzzy: true}
)

type resolverRepository interface {
	league.Repository
	club.Repository
	series.Repository
	team.Repository
}

// Resolver maps raw team strings onto stable (club, series, league) identities.
// It is bound to one import session and is not safe for concurrent use.
type Resolver struct {
	repo    resolverRepository
	logger  *logging.Logger
	leagues *cache.Store[league.League]
	clubs   *cache.Store[int64]
	series  *cache.Store[int64]
	indexes map[int64]*teamIndex
	created map[string]int
}

func NewResolver(repo resolverRepository, logger *logging.Logger) *Resolver {
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		repo:    repo,
		logger:  logger.Named("resolver"),
		leagues: cache.NewStore[league.League](),
		clubs:   cache.NewStore[int64](),
		series:  cache.NewStore[int64](),
		indexes: make(map[int64]*teamIndex),
		created: make(map[string]int),
	}
}

// League returns the stored league for a canonical code, creating it on first sight.
func (r *Resolver) League(ctx context.Context, code string) (league.League, error) {
	if cached, ok := r.leagues.Get(ctx, code); ok {
		return cached, nil
	}

	stored, created, err := r.repo.EnsureLeague(ctx, league.League{
		Code: code,
		Name: naming.LeagueDisplayName(code),
	})
	if err != nil {
		return league.League{}, fmt.Errorf("ensure league %s: %w", code, err)
	}
	if created {
		r.created[table.Leagues]++
	}
	r.leagues.Set(ctx, code, stored)
	return stored, nil
}

// Created reports how many rows the resolver inserted per table.
func (r *Resolver) Created() map[string]int {
	out := make(map[string]int, len(r.created))
	for name, count := range r.created {
		out[name] = count
	}
	return out
}

// Reset drops every cached identity, e.g. after teams were deleted.
func (r *Resolver) Reset() {
	r.leagues.Reset()
	r.clubs.Reset()
	r.series.Reset()
	r.indexes = make(map[int64]*teamIndex)
}

// ResolveTeam returns the team id for a raw team string within a league.
//
// Layers run in order: exact name, structural key, identifier among the
// structural candidates, fuzzy containment, create. Fuzzy and create only run when policy allows.
// An ambiguous match fails with an error marked importrun.ErrAmbiguousTeam.
func (r *Resolver) ResolveTeam(ctx context.Context, leagueCode, teamName string, policy ResolvePolicy) (int64, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Resolver.ResolveTeam")
	defer span.End()

	parsed := naming.ParseTeamName(teamName)
	query := teamQuery{
		raw:        teamName,
		nameKey:    naming.MatchKey(teamName),
		club:       naming.NormalizeClubName(parsed.Club),
		series:     naming.SeriesName(leagueCode, parsed),
		identifier: parsed.Identifier,
	}
	return r.resolve(ctx, leagueCode, query, policy)
}

// ResolvePlayerTeam resolves the team of a player row from its explicit club and series.
// Club and series are created and linked to the league as needed.
func (r *Resolver) ResolvePlayerTeam(ctx context.Context, leagueCode, clubName, seriesName string) (player.Refs, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.Resolver.ResolvePlayerTeam")
	defer span.End()

	lg, err := r.League(ctx, leagueCode)
	if err != nil {
		return player.Refs{}, err
	}
	clubID, err := r.ensureClub(ctx, clubName, lg.ID)
	if err != nil {
		return player.Refs{}, err
	}
	seriesID, err := r.ensureSeries(ctx, seriesName, lg.ID)
	if err != nil {
		return player.Refs{}, err
	}

	display := naming.TeamDisplayName(leagueCode, clubName, seriesName)
	teamID, err := r.resolve(ctx, leagueCode, teamQuery{
		raw:        display,
		nameKey:    naming.MatchKey(display),
		club:       clubName,
		series:     seriesName,
		identifier: naming.SeriesIdentifier(seriesName),
	}, PolicyPlayer)
	if err != nil {
		return player.Refs{}, err
	}

	return player.Refs{LeagueID: lg.ID, ClubID: clubID, SeriesID: seriesID, TeamID: &teamID}, nil
}

func (r *Resolver) resolve(ctx context.Context, leagueCode string, q teamQuery, policy ResolvePolicy) (int64, error) {
	if q.club == "" || q.series == "" {
		return 0, &importrun.UnresolvedEntityError{Kind: "team", Raw: q.raw, Reason: "club or series could not be parsed"}
	}

	lg, err := r.League(ctx, leagueCode)
	if err != nil {
		return 0, err
	}
	idx, err := r.index(ctx, lg.ID)
	if err != nil {
		return 0, err
	}

	if q.clubID, _, err = r.lookupClub(ctx, q.club); err != nil {
		return 0, err
	}
	if q.seriesID, _, err = r.lookupSeries(ctx, q.series); err != nil {
		return 0, err
	}

	for _, m := range teamMatchers {
		if m.fuzzy && !policy.AllowFuzzy {
			continue
		}
		outcome := m.match(idx, q)
		if outcome.ambiguous() {
			ids := make([]int64, 0, len(outcome.candidates))
			for _, candidate := range outcome.candidates {
				ids = append(ids, candidate.ID)
			}
			r.logger.WarnContext(ctx, "ambiguous team match",
				"league_id", leagueCode, "raw", q.raw, "layer", m.name, "candidates", ids)
			return 0, &importrun.UnresolvedEntityError{
				Kind:       "team",
				Raw:        q.raw,
				Reason:     fmt.Sprintf("%d candidates at %s layer", len(ids), m.name),
				Candidates: ids,
			}
		}
		if outcome.found() {
			r.logger.DebugContext(ctx, "team resolved", "league_id", leagueCode, "raw", q.raw, "layer", m.name, "team_id", outcome.candidates[0].ID)
			return outcome.candidates[0].ID, nil
		}
	}

	if !policy.AllowCreate {
		return 0, &importrun.UnresolvedEntityError{Kind: "team", Raw: q.raw, Reason: "no matching team"}
	}
	return r.createTeam(ctx, lg, idx, q)
}

func (r *Resolver) createTeam(ctx context.Context, lg league.League, idx *teamIndex, q teamQuery) (int64, error) {
	clubID, err := r.ensureClub(ctx, q.club, lg.ID)
	if err != nil {
		return 0, err
	}
	seriesID, err := r.ensureSeries(ctx, q.series, lg.ID)
	if err != nil {
		return 0, err
	}

	stored, created, err := r.repo.CreateTeam(ctx, team.Team{
		ClubID:   clubID,
		SeriesID: seriesID,
		LeagueID: lg.ID,
		Name:     q.raw,
	})
	if err != nil {
		return 0, fmt.Errorf("create team %q: %w", q.raw, err)
	}
	if created {
		r.created[table.Teams]++
		r.logger.InfoContext(ctx, "team created",
			"league_id", lg.Code, "team", q.raw, "club", q.club, "series", q.series, "team_id", stored.ID)
	}
	stored.ClubName = q.club
	stored.SeriesName = q.series
	stored.LeagueCode = lg.Code
	idx.add(stored)
	return stored.ID, nil
}

func (r *Resolver) index(ctx context.Context, leagueID int64) (*teamIndex, error) {
	if idx, ok := r.indexes[leagueID]; ok {
		return idx, nil
	}
	teams, err := r.repo.ListTeamsByLeague(ctx, leagueID)
	if err != nil {
		return nil, fmt.Errorf("list teams for league %d: %w", leagueID, err)
	}
	idx := newTeamIndex(teams)
	r.indexes[leagueID] = idx
	return idx, nil
}

func (r *Resolver) lookupClub(ctx context.Context, name string) (int64, bool, error) {
	return r.clubs.GetOrLoad(ctx, name, func(ctx context.Context) (int64, bool, error) {
		c, ok, err := r.repo.FindClubByName(ctx, name)
		if err != nil {
			return 0, false, fmt.Errorf("find club %q: %w", name, err)
		}
		return c.ID, ok, nil
	})
}

func (r *Resolver) lookupSeries(ctx context.Context, name string) (int64, bool, error) {
	return r.series.GetOrLoad(ctx, name, func(ctx context.Context) (int64, bool, error) {
		s, ok, err := r.repo.FindSeriesByName(ctx, name)
		if err != nil {
			return 0, false, fmt.Errorf("find series %q: %w", name, err)
		}
		return s.ID, ok, nil
	})
}

func (r *Resolver) ensureClub(ctx context.Context, name string, leagueID int64) (int64, error) {
	key := fmt.Sprintf("%s\x1f%d", name, leagueID)
	if id, ok := r.clubs.Get(ctx, key); ok {
		return id, nil
	}
	if name == "" {
		return 0, &importrun.UnresolvedEntityError{Kind: "club", Raw: name, Reason: "empty club name"}
	}

	c, created, err := r.repo.EnsureClub(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("ensure club %q: %w", name, err)
	}
	if created {
		r.created[table.Clubs]++
	}
	linked, err := r.repo.LinkClubLeague(ctx, c.ID, leagueID)
	if err != nil {
		return 0, fmt.Errorf("link club %q to league %d: %w", name, leagueID, err)
	}
	if linked {
		r.created[table.ClubLeagues]++
	}

	r.clubs.Set(ctx, name, c.ID)
	r.clubs.Set(ctx, key, c.ID)
	return c.ID, nil
}

func (r *Resolver) ensureSeries(ctx context.Context, name string, leagueID int64) (int64, error) {
	key := fmt.Sprintf("%s\x1f%d", name, leagueID)
	if id, ok := r.series.Get(ctx, key); ok {
		return id, nil
	}
	if name == "" {
		return 0, &importrun.UnresolvedEntityError{Kind: "series", Raw: name, Reason: "empty series name"}
	}

	s, created, err := r.repo.EnsureSeries(ctx, name)
	if err != nil {
		return 0, fmt.Errorf("ensure series %q: %w", name, err)
	}
	if created {
		r.created[table.Series]++
	}
	linked, err := r.repo.LinkSeriesLeague(ctx, s.ID, leagueID)
	if err != nil {
		return 0, fmt.Errorf("link series %q to league %d: %w", name, leagueID, err)
	}
	if linked {
		r.created[table.SeriesLeagues]++
	}

	r.series.Set(ctx, name, s.ID)
	r.series.Set(ctx, key, s.ID)
	return s.ID, nil
}

// CacheStats reports club and series cache effectiveness.
func (r *Resolver) CacheStats() (clubs, series cache.Stats) {
	return r.clubs.Stats(), r.series.Stats()
}

type teamQuery struct {
	raw        string
	nameKey    string
	club       string
	series     string
	identifier string
	clubID     int64
	seriesID   int64
}

type matchOutcome struct {
	candidates []team.Team
}

func (o matchOutcome) found() bool     { return len(o.candidates) == 1 }
func (o matchOutcome) ambiguous() bool { return len(o.candidates) > 1 }

type teamMatcher struct {
	name  string
	fuzzy bool
	match func(idx *teamIndex, q teamQuery) matchOutcome
}

// teamMatchers is the resolution order. A matcher that finds nothing yields an empty outcome
// so the next one runs; one that finds several stops resolution as ambiguous.
var teamMatchers = []teamMatcher{
	{name: "exact", match: matchExact},
	{name: "structural", match: matchStructural},
	{name: "identifier", match: matchIdentifier},
	{name: "fuzzy", fuzzy: true, match: matchFuzzy},
}

// matchExact compares whitespace- and case-insensitive names. Several teams
// sharing one surface name fall through to the structural layers, and so does
// a name stored under a different (club, series) than the query's known one.
func matchExact(idx *teamIndex, q teamQuery) matchOutcome {
	matches := idx.byName[q.nameKey]
	if len(matches) != 1 {
		return matchOutcome{}
	}
	t := matches[0]
	if q.clubID != 0 && q.seriesID != 0 && (t.ClubID != q.clubID || t.SeriesID != q.seriesID) {
		return matchOutcome{}
	}
	return matchOutcome{candidates: matches}
}

// matchStructural accepts the single team stored under the query's (club, series).
// Several teams under one key are left to matchIdentifier.
func matchStructural(idx *teamIndex, q teamQuery) matchOutcome {
	candidates := idx.structural(q)
	if len(candidates) != 1 {
		return matchOutcome{}
	}
	return matchOutcome{candidates: candidates}
}

// matchIdentifier separates teams that share one (club, series) by the identifier
// parsed from their names. It never looks outside the structural candidates, and
// candidates it cannot separate are reported as ambiguous.
func matchIdentifier(idx *teamIndex, q teamQuery) matchOutcome {
	candidates := idx.structural(q)
	if len(candidates) < 2 {
		return matchOutcome{}
	}
	if q.identifier == "" {
		return matchOutcome{candidates: candidates}
	}

	var matches []team.Team
	for _, t := range candidates {
		if strings.EqualFold(naming.ParseTeamName(t.Name).Identifier, q.identifier) {
			matches = append(matches, t)
		}
	}
	if len(matches) == 1 {
		return matchOutcome{candidates: matches}
	}
	return matchOutcome{candidates: candidates}
}

// matchFuzzy accepts teams whose normalized name contains, or is contained in,
// the query on whole-word boundaries. Conflicting identifiers never match, so
// "Birchwood 12" cannot resolve to "Birchwood 1".
func matchFuzzy(idx *teamIndex, q teamQuery) matchOutcome {
	queryTokens := strings.Fields(q.nameKey)
	if len(queryTokens) == 0 {
		return matchOutcome{}
	}

	var (
		matches []team.Team
		keys    []string
	)
	for _, t := range idx.teams {
		key := naming.MatchKey(t.Name)
		tokens := strings.Fields(key)
		if !containsTokens(tokens, queryTokens) && !containsTokens(queryTokens, tokens) {
			continue
		}
		if q.identifier != "" && t.SeriesName != "" &&
			!strings.EqualFold(naming.SeriesIdentifier(t.SeriesName), q.identifier) {
			continue
		}
		matches = append(matches, t)
		keys = append(keys, key)
	}
	if len(matches) <= 1 {
		return matchOutcome{candidates: matches}
	}

	ranks := fuzzy.RankFindNormalizedFold(q.nameKey, keys)
	if len(ranks) != len(matches) {
		return matchOutcome{candidates: matches}
	}
	sort.Sort(ranks)
	if len(ranks) > 1 && ranks[0].Distance == ranks[1].Distance {
		tied := make([]team.Team, 0, len(ranks))
		for _, rank := range ranks {
			if rank.Distance == ranks[0].Distance {
				tied = append(tied, matches[rank.OriginalIndex])
			}
		}
		return matchOutcome{candidates: tied}
	}
	return matchOutcome{candidates: []team.Team{matches[ranks[0].OriginalIndex]}}
}

// containsTokens reports whether needle appears as a contiguous run inside haystack.
func containsTokens(haystack, needle []string) bool {
	if len(needle) == 0 || len(needle) > len(haystack) {
		return false
	}
	for start := 0; start+len(needle) <= len(haystack); start++ {
		matched := true
		for offset, token := range needle {
			if haystack[start+offset] != token {
				matched = false
				break
			}
		}
		if matched {
			return true
		}
	}
	return false
}

type structuralKey struct {
	clubID   int64
	seriesID int64
}

// teamIndex is a per-league snapshot of teams, kept current as the resolver creates rows.
// Duplicate (club, series) teams stay listed so they can be told apart or reported.
type teamIndex struct {
	teams  []team.Team
	ids    map[int64]struct{}
	byName map[string][]team.Team
	byKey  map[structuralKey][]team.Team
}

func newTeamIndex(teams []team.Team) *teamIndex {
	idx := &teamIndex{
		ids:    make(map[int64]struct{}),
		byName: make(map[string][]team.Team),
		byKey:  make(map[structuralKey][]team.Team),
	}
	for _, t := range teams {
		idx.add(t)
	}
	return idx
}

func (idx *teamIndex) add(t team.Team) {
	if _, exists := idx.ids[t.ID]; exists {
		return
	}
	idx.ids[t.ID] = struct{}{}
	idx.teams = append(idx.teams, t)
	nameKey := naming.MatchKey(t.Name)
	idx.byName[nameKey] = append(idx.byName[nameKey], t)
	key := structuralKey{clubID: t.ClubID, seriesID: t.SeriesID}
	idx.byKey[key] = append(idx.byKey[key], t)
}

func (idx *teamIndex) structural(q teamQuery) []team.Team {
	if q.clubID == 0 || q.seriesID == 0 {
		return nil
	}
	return idx.byKey[structuralKey{clubID: q.clubID, seriesID: q.seriesID}]
}
