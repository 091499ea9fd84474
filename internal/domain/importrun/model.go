package importrun

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/riskibarqy/league-sync/internal/domain/table"
)

// Mode selects how an import run commits.
type Mode string

const (
	// ModeAtomic clears and reloads everything inside one transaction.
	ModeAtomic Mode = "atomic"
	// ModeIncremental upserts without clearing and commits after every batch.
	ModeIncremental Mode = "incremental"
)

func ParseMode(raw string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(raw))) {
	case ModeAtomic, "":
		return ModeAtomic, nil
	case ModeIncremental:
		return ModeIncremental, nil
	default:
		return "", fmt.Errorf("invalid import mode %q: valid values are %s, %s", raw, ModeAtomic, ModeIncremental)
	}
}

// State is a step of the import state machine.
type State string

const (
	StateIdle               State = "idle"
	StateBackingUp          State = "backing_up"
	StateLoadingSources     State = "loading_sources"
	StateValidating         State = "validating"
	StateClearingTables     State = "clearing_tables"
	StateImporting          State = "importing"
	StateRepairingIntegrity State = "repairing_integrity"
	StateCommitting         State = "committing"
	StateDone               State = "done"
	StateRolledBack         State = "rolled_back"
	// StateFailed is reached only when the backup fails, before any transaction exists.
	StateFailed State = "failed"
)

var transitions = map[State][]State{
	StateIdle:               {StateBackingUp, StateLoadingSources, StateRepairingIntegrity},
	StateBackingUp:          {StateLoadingSources, StateFailed},
	StateLoadingSources:     {StateValidating, StateRolledBack},
	StateValidating:         {StateClearingTables, StateImporting, StateRolledBack},
	StateClearingTables:     {StateImporting, StateRolledBack},
	StateImporting:          {StateRepairingIntegrity, StateRolledBack},
	StateRepairingIntegrity: {StateCommitting, StateRolledBack},
	StateCommitting:         {StateDone, StateRolledBack},
}

// CanTransition reports whether the state machine allows moving from one state to the next.
func CanTransition(from, to State) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

func (s State) Terminal() bool {
	return s == StateDone || s == StateRolledBack || s == StateFailed
}

// TableResult counts what happened to one target table during a run.
type TableResult struct {
	Table    string
	Inserted int
	Updated  int
	Skipped  int
	Errored  int
	Cleared  int64
}

func (r *TableResult) Add(other TableResult) {
	r.Inserted += other.Inserted
	r.Updated += other.Updated
	r.Skipped += other.Skipped
	r.Errored += other.Errored
	r.Cleared += other.Cleared
}

// BatchResult is what a store reports for one upserted batch.
type BatchResult struct {
	Inserted int
	Updated  int
	// Unchanged counts rows absorbed by ON CONFLICT DO NOTHING.
	Unchanged int
}

// ReviewItem is a record the engine refused to guess about.
type ReviewItem struct {
	Kind     string
	LeagueID string
	Raw      string
	Reason   string
	TeamIDs  []int64
}

const (
	ReviewAmbiguousTeam  = "ambiguous_team"
	ReviewUnresolved     = "unresolved_entity"
	ReviewDuplicateTeams = "duplicate_teams"
)

// RepairReport summarizes the integrity repair pass.
type RepairReport struct {
	FixturesLinked     int
	OrphanCandidates   int
	OrphansDeleted     int64
	OrphansByClub      map[string]int
	ReferencesRelinked int
	ReferencesNulled   int
	DuplicateGroups    int
}

// Backup describes a dump taken before destructive work.
type Backup struct {
	Path      string
	CreatedAt time.Time
}

// Summary is the outcome of one run, printed by the CLI whether or not the run succeeded.
type Summary struct {
	RunID       string
	Mode        Mode
	Environment string
	DryRun      bool
	State       State
	History     []State
	Tables      map[string]*TableResult
	Repair      RepairReport
	Review      []ReviewItem
	FailedFiles []string
	Backup      *Backup
	RestoreErr  error
	StartedAt   time.Time
	FinishedAt  time.Time
	Err         error
}

func NewSummary(runID string, mode Mode, startedAt time.Time) Summary {
	return Summary{
		RunID:     runID,
		Mode:      mode,
		State:     StateIdle,
		History:   []State{StateIdle},
		Tables:    make(map[string]*TableResult),
		StartedAt: startedAt,
	}
}

// Table returns the counters for name, creating them on first use.
func (s *Summary) Table(name string) *TableResult {
	if s.Tables == nil {
		s.Tables = make(map[string]*TableResult)
	}
	result, ok := s.Tables[name]
	if !ok {
		result = &TableResult{Table: name}
		s.Tables[name] = result
	}
	return result
}

// SortedTables returns table results in a stable order for printing.
func (s Summary) SortedTables() []TableResult {
	out := make([]TableResult, 0, len(s.Tables))
	for _, result := range s.Tables {
		out = append(out, *result)
	}
	sort.Slice(out, func(i, j int) bool {
		return tableRank(out[i].Table) < tableRank(out[j].Table) ||
			(tableRank(out[i].Table) == tableRank(out[j].Table) && out[i].Table < out[j].Table)
	})
	return out
}

// Succeeded is false when any file was abandoned, even if the run committed.
func (s Summary) Succeeded() bool {
	return s.State == StateDone && s.Err == nil && len(s.FailedFiles) == 0
}

func (s Summary) Duration() time.Duration {
	if s.FinishedAt.IsZero() {
		return 0
	}
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *Summary) AddReview(item ReviewItem) {
	if len(s.Review) >= MaxReviewItems {
		return
	}
	s.Review = append(s.Review, item)
}

const MaxReviewItems = 500

func tableRank(tableName string) int {
	for idx, name := range table.ImportOrder {
		if name == tableName {
			return idx
		}
	}
	return len(table.ImportOrder)
}
