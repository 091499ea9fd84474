package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/riskibarqy/league-sync/internal/domain/club"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/league"
	"github.com/riskibarqy/league-sync/internal/domain/reference"
	"github.com/riskibarqy/league-sync/internal/domain/series"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/domain/team"
)

// Store is an in-memory import target with transactional sessions.
// A session works on a copy of the committed data; Commit swaps it in and
// Rollback drops it. It backs dry runs and the usecase tests.
type Store struct {
	mu        sync.Mutex
	committed *dataset
	version   importrun.SchemaVersion
	faults    map[string]error
	pingErr   error
}

func NewStore() *Store {
	return &Store{
		committed: newDataset(),
		version:   importrun.SchemaVersion{Version: 1, Present: true},
		faults:    make(map[string]error),
	}
}

func (s *Store) Begin(_ context.Context, mode importrun.Mode) (importrun.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return &Session{store: s, mode: mode, work: s.committed.clone()}, nil
}

func (s *Store) SchemaVersion(_ context.Context) (importrun.SchemaVersion, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.version, nil
}

func (s *Store) CountRows(_ context.Context, tables []string) (map[string]int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]int64, len(tables))
	for _, name := range tables {
		out[name] = int64(s.committed.count(name))
	}
	return out, nil
}

func (s *Store) Ping(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pingErr
}

// SetSchemaVersion replaces the reported migration version.
func (s *Store) SetSchemaVersion(v importrun.SchemaVersion) {
	s.mu.Lock()
	s.version = v
	s.mu.Unlock()
}

// InjectUpsertFault makes every UpsertBatch on tableName fail with a constraint violation wrapping err.
// A nil err clears the fault.
func (s *Store) InjectUpsertFault(tableName string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err == nil {
		delete(s.faults, tableName)
		return
	}
	s.faults[tableName] = err
}

func (s *Store) fault(tableName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.faults[tableName]
}

func (s *Store) commit(work *dataset) {
	s.mu.Lock()
	s.committed = work.clone()
	s.mu.Unlock()
}

// Count returns the committed row count of a table.
func (s *Store) Count(tableName string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.committed.count(tableName)
}

// Rows returns copies of the committed rows of an upsert table, in insertion order.
func (s *Store) Rows(tableName string) []map[string]any {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.committed.tables[tableName]
	if !ok {
		return nil
	}
	out := make([]map[string]any, 0, len(t.rows))
	for _, row := range t.rows {
		values := make(map[string]any, len(row.values)+1)
		for col, value := range row.values {
			values[col] = value
		}
		values["id"] = row.id
		out = append(out, values)
	}
	return out
}

// Teams returns the committed teams ordered by id.
func (s *Store) Teams() []team.Team {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.committed.listTeams(func(team.Team) bool { return true })
}

// Reference returns a committed poll or captain message.
func (s *Store) Reference(kind reference.Kind, id int64) (reference.Reference, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ref, ok := s.committed.references[kind][id]
	return ref, ok
}

type rowTable struct {
	rows  []*storedRow
	index map[string]*storedRow
}

type storedRow struct {
	id     int64
	values map[string]any
}

type linkKey [2]int64

type dataset struct {
	nextID        int64
	leagues       map[int64]league.League
	clubs         map[int64]club.Club
	series        map[int64]series.Series
	clubLeagues   map[linkKey]struct{}
	seriesLeagues map[linkKey]struct{}
	teams         map[int64]team.Team
	tables        map[string]*rowTable
	userPlayers   map[int64][]string
	references    map[reference.Kind]map[int64]reference.Reference
}

func newDataset() *dataset {
	d := &dataset{
		leagues:       make(map[int64]league.League),
		clubs:         make(map[int64]club.Club),
		series:        make(map[int64]series.Series),
		clubLeagues:   make(map[linkKey]struct{}),
		seriesLeagues: make(map[linkKey]struct{}),
		teams:         make(map[int64]team.Team),
		tables:        make(map[string]*rowTable),
		userPlayers:   make(map[int64][]string),
		references:    make(map[reference.Kind]map[int64]reference.Reference),
	}
	for _, kind := range reference.Kinds {
		d.references[kind] = make(map[int64]reference.Reference)
	}
	return d
}

func (d *dataset) newID() int64 {
	d.nextID++
	return d.nextID
}

func (d *dataset) clone() *dataset {
	out := newDataset()
	out.nextID = d.nextID
	for k, v := range d.leagues {
		out.leagues[k] = v
	}
	for k, v := range d.clubs {
		out.clubs[k] = v
	}
	for k, v := range d.series {
		out.series[k] = v
	}
	for k := range d.clubLeagues {
		out.clubLeagues[k] = struct{}{}
	}
	for k := range d.seriesLeagues {
		out.seriesLeagues[k] = struct{}{}
	}
	for k, v := range d.teams {
		out.teams[k] = v
	}
	for name, t := range d.tables {
		copied := &rowTable{rows: make([]*storedRow, 0, len(t.rows)), index: make(map[string]*storedRow, len(t.index))}
		byPtr := make(map[*storedRow]*storedRow, len(t.rows))
		for _, row := range t.rows {
			values := make(map[string]any, len(row.values))
			for col, value := range row.values {
				values[col] = value
			}
			dup := &storedRow{id: row.id, values: values}
			byPtr[row] = dup
			copied.rows = append(copied.rows, dup)
		}
		for key, row := range t.index {
			copied.index[key] = byPtr[row]
		}
		out.tables[name] = copied
	}
	for k, v := range d.userPlayers {
		out.userPlayers[k] = append([]string(nil), v...)
	}
	for kind, refs := range d.references {
		for k, v := range refs {
			out.references[kind][k] = v
		}
	}
	return out
}

func (d *dataset) count(tableName string) int {
	switch tableName {
	case table.Leagues:
		return len(d.leagues)
	case table.Clubs:
		return len(d.clubs)
	case table.Series:
		return len(d.series)
	case table.ClubLeagues:
		return len(d.clubLeagues)
	case table.SeriesLeagues:
		return len(d.seriesLeagues)
	case table.Teams:
		return len(d.teams)
	case table.Polls:
		return len(d.references[reference.KindPoll])
	case table.CaptainMessages:
		return len(d.references[reference.KindCaptainMessage])
	}
	if t, ok := d.tables[tableName]; ok {
		return len(t.rows)
	}
	return 0
}

func (d *dataset) table(name string) *rowTable {
	t, ok := d.tables[name]
	if !ok {
		t = &rowTable{index: make(map[string]*storedRow)}
		d.tables[name] = t
	}
	return t
}

func (d *dataset) listTeams(keep func(team.Team) bool) []team.Team {
	out := make([]team.Team, 0, len(d.teams))
	for _, t := range d.teams {
		if !keep(t) {
			continue
		}
		t.ClubName = d.clubs[t.ClubID].Name
		t.SeriesName = d.series[t.SeriesID].Name
		t.LeagueCode = d.leagues[t.LeagueID].Code
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
