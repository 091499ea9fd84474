package memory

import (
	"context"
	"fmt"
	"strings"

	"github.com/riskibarqy/league-sync/internal/domain/club"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/league"
	"github.com/riskibarqy/league-sync/internal/domain/player"
	"github.com/riskibarqy/league-sync/internal/domain/reference"
	"github.com/riskibarqy/league-sync/internal/domain/series"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/domain/team"
)

var errSessionClosed = fmt.Errorf("session is closed")

// Session is a unit of work over a private copy of the store.
type Session struct {
	store     *Store
	mode      importrun.Mode
	work      *dataset
	closed    bool
	suspended bool
}

func (s *Session) Mode() importrun.Mode { return s.mode }

// ConstraintsSuspended reports whether the session is between Suspend and Restore.
func (s *Session) ConstraintsSuspended() bool { return s.suspended }

func (s *Session) SuspendConstraints(context.Context) error {
	if s.closed {
		return errSessionClosed
	}
	s.suspended = true
	return nil
}

func (s *Session) RestoreConstraints(context.Context) error {
	if s.closed {
		return errSessionClosed
	}
	s.suspended = false
	return nil
}

func (s *Session) Checkpoint(context.Context) error {
	if s.closed {
		return errSessionClosed
	}
	if s.mode != importrun.ModeIncremental {
		return nil
	}
	s.store.commit(s.work)
	return nil
}

func (s *Session) Commit(context.Context) error {
	if s.closed {
		return errSessionClosed
	}
	s.store.commit(s.work)
	s.closed = true
	return nil
}

func (s *Session) Rollback(context.Context) error {
	s.closed = true
	return nil
}

// UpsertBatch applies the whole batch or nothing.
func (s *Session) UpsertBatch(_ context.Context, spec table.Spec, rows []table.Row) (importrun.BatchResult, error) {
	if s.closed {
		return importrun.BatchResult{}, errSessionClosed
	}
	if err := spec.Validate(); err != nil {
		return importrun.BatchResult{}, err
	}
	if fault := s.store.fault(spec.Name); fault != nil {
		return importrun.BatchResult{}, importrun.ConstraintViolation(fault, spec.Name, "injected_fault")
	}
	for idx, row := range rows {
		if len(row) != len(spec.Columns) {
			return importrun.BatchResult{}, fmt.Errorf("row %d has %d values for %d columns", idx, len(row), len(spec.Columns))
		}
	}

	t := s.work.table(spec.Name)
	prefix := strings.Join(spec.ConflictColumns, ",") + "|" + spec.ConflictWhere + "|"
	var result importrun.BatchResult
	for _, row := range rows {
		key := prefix + spec.ConflictKey(row)
		if existing, ok := t.index[key]; ok {
			if len(spec.UpdateColumns) == 0 {
				result.Unchanged++
				continue
			}
			for _, col := range spec.UpdateColumns {
				existing.values[col] = spec.Value(row, col)
			}
			result.Updated++
			continue
		}

		values := make(map[string]any, len(spec.Columns))
		for idx, col := range spec.Columns {
			values[col] = row[idx]
		}
		stored := &storedRow{id: s.work.newID(), values: values}
		t.rows = append(t.rows, stored)
		t.index[key] = stored
		result.Inserted++
	}
	return result, nil
}

func (s *Session) ClearTables(_ context.Context, tables []string) (map[string]int64, error) {
	if s.closed {
		return nil, errSessionClosed
	}
	out := make(map[string]int64, len(tables))
	for _, name := range tables {
		out[name] = int64(s.work.count(name))
		switch name {
		case table.Teams:
			s.work.teams = make(map[int64]team.Team)
		case table.ClubLeagues:
			s.work.clubLeagues = make(map[linkKey]struct{})
		case table.SeriesLeagues:
			s.work.seriesLeagues = make(map[linkKey]struct{})
		default:
			delete(s.work.tables, name)
		}
	}
	return out, nil
}

func (s *Session) EnsureLeague(_ context.Context, l league.League) (league.League, bool, error) {
	if err := l.Validate(); err != nil {
		return league.League{}, false, err
	}
	for _, existing := range s.work.leagues {
		if existing.Code == l.Code {
			return existing, false, nil
		}
	}
	l.ID = s.work.newID()
	s.work.leagues[l.ID] = l
	return l, true, nil
}

func (s *Session) FindClubByName(_ context.Context, name string) (club.Club, bool, error) {
	for _, c := range s.work.clubs {
		if c.Name == name {
			return c, true, nil
		}
	}
	return club.Club{}, false, nil
}

func (s *Session) EnsureClub(ctx context.Context, name string) (club.Club, bool, error) {
	if existing, ok, _ := s.FindClubByName(ctx, name); ok {
		return existing, false, nil
	}
	c := club.Club{ID: s.work.newID(), Name: name}
	s.work.clubs[c.ID] = c
	return c, true, nil
}

func (s *Session) LinkClubLeague(_ context.Context, clubID, leagueID int64) (bool, error) {
	key := linkKey{clubID, leagueID}
	if _, ok := s.work.clubLeagues[key]; ok {
		return false, nil
	}
	s.work.clubLeagues[key] = struct{}{}
	return true, nil
}

func (s *Session) FindSeriesByName(_ context.Context, name string) (series.Series, bool, error) {
	for _, item := range s.work.series {
		if item.Name == name {
			return item, true, nil
		}
	}
	return series.Series{}, false, nil
}

func (s *Session) EnsureSeries(ctx context.Context, name string) (series.Series, bool, error) {
	if existing, ok, _ := s.FindSeriesByName(ctx, name); ok {
		return existing, false, nil
	}
	item := series.Series{ID: s.work.newID(), Name: name}
	s.work.series[item.ID] = item
	return item, true, nil
}

func (s *Session) LinkSeriesLeague(_ context.Context, seriesID, leagueID int64) (bool, error) {
	key := linkKey{seriesID, leagueID}
	if _, ok := s.work.seriesLeagues[key]; ok {
		return false, nil
	}
	s.work.seriesLeagues[key] = struct{}{}
	return true, nil
}

func (s *Session) ListTeamsByLeague(_ context.Context, leagueID int64) ([]team.Team, error) {
	return s.work.listTeams(func(t team.Team) bool { return t.LeagueID == leagueID }), nil
}

func (s *Session) CreateTeam(_ context.Context, t team.Team) (team.Team, bool, error) {
	if err := t.Validate(); err != nil {
		return team.Team{}, false, err
	}
	for _, existing := range s.work.teams {
		if existing.Key() == t.Key() {
			return existing, false, nil
		}
	}
	t.ID = s.work.newID()
	s.work.teams[t.ID] = team.Team{ID: t.ID, ClubID: t.ClubID, SeriesID: t.SeriesID, LeagueID: t.LeagueID, Name: t.Name, Alias: t.Alias}
	return t, true, nil
}

// ListOrphanTeams returns teams no player, match, schedule or series-stats row points at.
func (s *Session) ListOrphanTeams(_ context.Context) ([]team.Team, error) {
	used := make(map[int64]struct{})
	for tableName, cols := range map[string][]string{
		table.Players:     {"team_id"},
		table.Matches:     {"home_team_id", "away_team_id"},
		table.Schedule:    {"home_team_id", "away_team_id"},
		table.SeriesStats: {"team_id"},
	} {
		t, ok := s.work.tables[tableName]
		if !ok {
			continue
		}
		for _, row := range t.rows {
			for _, col := range cols {
				if id, ok := int64Value(row.values[col]); ok {
					used[id] = struct{}{}
				}
			}
		}
	}
	return s.work.listTeams(func(t team.Team) bool {
		_, ok := used[t.ID]
		return !ok
	}), nil
}

func (s *Session) DeleteTeams(_ context.Context, ids []int64) (int64, error) {
	var deleted int64
	for _, id := range ids {
		if _, ok := s.work.teams[id]; ok {
			delete(s.work.teams, id)
			deleted++
		}
	}
	return deleted, nil
}

func (s *Session) ListDuplicateTeams(_ context.Context) ([]team.DuplicateGroup, error) {
	groups := make(map[team.Key][]team.Team)
	for _, t := range s.work.listTeams(func(team.Team) bool { return true }) {
		groups[t.Key()] = append(groups[t.Key()], t)
	}
	var out []team.DuplicateGroup
	for key, teams := range groups {
		if len(teams) > 1 {
			out = append(out, team.DuplicateGroup{Key: key, Teams: teams})
		}
	}
	sortGroups(out)
	return out, nil
}

func (s *Session) ListUserTeams(_ context.Context, userID int64) ([]team.Team, error) {
	externalIDs := make(map[string]struct{})
	for _, externalID := range s.work.userPlayers[userID] {
		externalIDs[externalID] = struct{}{}
	}
	teamIDs := make(map[int64]struct{})
	if t, ok := s.work.tables[table.Players]; ok {
		for _, row := range t.rows {
			externalID, _ := row.values["tenniscores_player_id"].(string)
			if _, ok := externalIDs[externalID]; !ok {
				continue
			}
			if id, ok := int64Value(row.values["team_id"]); ok {
				teamIDs[id] = struct{}{}
			}
		}
	}
	return s.work.listTeams(func(t team.Team) bool {
		_, ok := teamIDs[t.ID]
		return ok
	}), nil
}

func (s *Session) ListLeaguePlayers(_ context.Context, leagueID int64) ([]player.Player, error) {
	t, ok := s.work.tables[table.Players]
	if !ok {
		return nil, nil
	}
	var out []player.Player
	for _, row := range t.rows {
		rowLeague, _ := int64Value(row.values["league_id"])
		if rowLeague != leagueID {
			continue
		}
		p := player.Player{ID: row.id, LeagueID: rowLeague}
		p.ExternalID, _ = row.values["tenniscores_player_id"].(string)
		p.ClubID, _ = int64Value(row.values["club_id"])
		p.SeriesID, _ = int64Value(row.values["series_id"])
		if teamID, ok := int64Value(row.values["team_id"]); ok {
			p.TeamID = &teamID
		}
		p.SeriesName = s.work.series[p.SeriesID].Name
		out = append(out, p)
	}
	return out, nil
}

func (s *Session) ListDanglingReferences(_ context.Context, teamIDs []int64) ([]reference.Reference, error) {
	flagged := make(map[int64]struct{}, len(teamIDs))
	for _, id := range teamIDs {
		flagged[id] = struct{}{}
	}
	var out []reference.Reference
	for _, kind := range reference.Kinds {
		for _, ref := range s.work.references[kind] {
			if ref.TeamID == nil {
				continue
			}
			_, orphan := flagged[*ref.TeamID]
			_, exists := s.work.teams[*ref.TeamID]
			if orphan || !exists {
				out = append(out, ref)
			}
		}
	}
	sortReferences(out)
	return out, nil
}

func (s *Session) RelinkReference(_ context.Context, ref reference.Reference, teamID *int64) error {
	stored, ok := s.work.references[ref.Kind][ref.ID]
	if !ok {
		return fmt.Errorf("%s %d not found", ref.Kind, ref.ID)
	}
	stored.TeamID = teamID
	s.work.references[ref.Kind][ref.ID] = stored
	return nil
}

func (s *Session) ListUnlinkedFixtures(_ context.Context) ([]reference.FixtureRef, error) {
	var out []reference.FixtureRef
	for _, tableName := range []string{table.Matches, table.Schedule} {
		t, ok := s.work.tables[tableName]
		if !ok {
			continue
		}
		for _, row := range t.rows {
			home, homeOK := int64Value(row.values["home_team_id"])
			away, awayOK := int64Value(row.values["away_team_id"])
			if homeOK && awayOK {
				continue
			}
			leagueID, _ := int64Value(row.values["league_id"])
			ref := reference.FixtureRef{
				Table:      tableName,
				ID:         row.id,
				LeagueID:   leagueID,
				LeagueCode: s.work.leagues[leagueID].Code,
			}
			ref.HomeTeam, _ = row.values["home_team"].(string)
			ref.AwayTeam, _ = row.values["away_team"].(string)
			if homeOK {
				ref.HomeTeamID = &home
			}
			if awayOK {
				ref.AwayTeamID = &away
			}
			out = append(out, ref)
		}
	}
	return out, nil
}

func (s *Session) LinkFixture(_ context.Context, ref reference.FixtureRef) error {
	t, ok := s.work.tables[ref.Table]
	if !ok {
		return fmt.Errorf("table %s is empty", ref.Table)
	}
	for _, row := range t.rows {
		if row.id != ref.ID {
			continue
		}
		row.values["home_team_id"] = ref.HomeTeamID
		row.values["away_team_id"] = ref.AwayTeamID
		return nil
	}
	return fmt.Errorf("%s row %d not found", ref.Table, ref.ID)
}

func int64Value(value any) (int64, bool) {
	switch v := value.(type) {
	case int64:
		return v, true
	case *int64:
		if v == nil {
			return 0, false
		}
		return *v, true
	case int:
		return int64(v), true
	default:
		return 0, false
	}
}
