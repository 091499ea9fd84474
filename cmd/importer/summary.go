package main

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/usecase"
)

// renderSummary prints the per-table counts, the repair report and a final status line.
func renderSummary(w io.Writer, s importrun.Summary) error {
	fmt.Fprintf(w, "run %s  mode=%s  environment=%s  dry_run=%t\n", s.RunID, s.Mode, s.Environment, s.DryRun)
	fmt.Fprintf(w, "states: %s\n", joinStates(s.History))

	if tables := s.SortedTables(); len(tables) > 0 {
		table := tablewriter.NewWriter(w)
		table.Header("Table", "Cleared", "Inserted", "Updated", "Skipped", "Errored")
		for _, r := range tables {
			if err := table.Append(
				r.Table,
				strconv.FormatInt(r.Cleared, 10),
				strconv.Itoa(r.Inserted),
				strconv.Itoa(r.Updated),
				strconv.Itoa(r.Skipped),
				strconv.Itoa(r.Errored),
			); err != nil {
				return fmt.Errorf("append table row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("render table counts: %w", err)
		}
	}

	repair := tablewriter.NewWriter(w)
	repair.Header("Repair", "Count")
	for _, row := range [][2]string{
		{"fixtures linked", strconv.Itoa(s.Repair.FixturesLinked)},
		{"orphan candidates", strconv.Itoa(s.Repair.OrphanCandidates)},
		{"orphans deleted", strconv.FormatInt(s.Repair.OrphansDeleted, 10)},
		{"references relinked", strconv.Itoa(s.Repair.ReferencesRelinked)},
		{"references nulled", strconv.Itoa(s.Repair.ReferencesNulled)},
		{"duplicate team groups", strconv.Itoa(s.Repair.DuplicateGroups)},
	} {
		if err := repair.Append(row[0], row[1]); err != nil {
			return fmt.Errorf("append repair row: %w", err)
		}
	}
	if err := repair.Render(); err != nil {
		return fmt.Errorf("render repair report: %w", err)
	}

	if len(s.Review) > 0 {
		fmt.Fprintf(w, "review items: %d\n", len(s.Review))
	}
	if len(s.FailedFiles) > 0 {
		fmt.Fprintf(w, "abandoned files: %s\n", strings.Join(s.FailedFiles, ", "))
	}
	if s.Backup != nil {
		fmt.Fprintf(w, "backup: %s\n", s.Backup.Path)
	}
	if s.RestoreErr != nil {
		fmt.Fprintf(w, "restore from backup failed: %v\n", s.RestoreErr)
	}
	fmt.Fprintln(w, statusLine(s))
	return nil
}

func statusLine(s importrun.Summary) string {
	if s.Succeeded() {
		return fmt.Sprintf("OK: run %s finished in state %s after %s", s.RunID, s.State, s.Duration())
	}
	if s.Err != nil {
		return fmt.Sprintf("FAILED: run %s ended in state %s: %v", s.RunID, s.State, s.Err)
	}
	return fmt.Sprintf("FAILED: run %s ended in state %s with %d abandoned file(s)", s.RunID, s.State, len(s.FailedFiles))
}

func joinStates(states []importrun.State) string {
	parts := make([]string, 0, len(states))
	for _, state := range states {
		parts = append(parts, string(state))
	}
	return strings.Join(parts, " -> ")
}

func renderCheck(w io.Writer, report usecase.CheckReport, checkErr error) error {
	v := report.SchemaVersion
	switch {
	case !v.Present:
		fmt.Fprintln(w, "schema version: none")
	default:
		fmt.Fprintf(w, "schema version: %d (dirty=%t)\n", v.Version, v.Dirty)
	}

	if len(report.Counts) > 0 {
		names := make([]string, 0, len(report.Counts))
		for name := range report.Counts {
			names = append(names, name)
		}
		sort.Strings(names)

		table := tablewriter.NewWriter(w)
		table.Header("Table", "Rows")
		for _, name := range names {
			if err := table.Append(name, strconv.FormatInt(report.Counts[name], 10)); err != nil {
				return fmt.Errorf("append count row: %w", err)
			}
		}
		if err := table.Render(); err != nil {
			return fmt.Errorf("render row counts: %w", err)
		}
	}

	if checkErr != nil {
		fmt.Fprintf(w, "FAILED: %v\n", checkErr)
		return nil
	}
	fmt.Fprintln(w, "OK: database reachable and schema version accepted")
	return nil
}
