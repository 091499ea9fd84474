package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/stretchr/testify/require"
)

var dryRunFiles = map[string]string{
	"players.json": `[
		{"Player ID":"nndz-1","First Name":"Ann","Last Name":"Lee","League":"APTA_CHICAGO","Club":"Tennaqua","Series":"Chicago 22"},
		{"Player ID":"nndz-2","First Name":"Bo","Last Name":"Park","League":"APTA_CHICAGO","Club":"Birchwood","Series":"Chicago 1"}
	]`,
	"match_history.json": `[{"Date":"10-Jan-25","Home Team":"Tennaqua - 22","Away Team":"Birchwood - 1",
		"Scores":"6-2, 6-3","Winner":"home","league_id":"APTA_CHICAGO","match_id":"m-1"}]`,
	"series_stats.json": `[{"series":"Chicago 22","team":"Tennaqua - 22","league_id":"APTA_CHICAGO",
		"matches":{"won":3,"lost":1,"tied":0}}]`,
	"schedules.json": `[{"date":"01/17/2025","home_team":"Tennaqua - 22","away_team":"Birchwood - 1","League":"APTA_CHICAGO"}]`,
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	c := newCLI(&stdout, &stderr)
	root := c.rootCommand()
	root.SetArgs(args)
	err := root.ExecuteContext(context.Background())
	c.close()
	return stdout.String(), err
}

func TestRunRefusesProductionWithoutForce(t *testing.T) {
	_, err := runCLI(t, "run", "--environment", "production", "--data-dir", t.TempDir())
	require.True(t, crerr.Is(err, importrun.ErrProductionGate), "expected %v, got %v", importrun.ErrProductionGate, err)
}

func TestRunRejectsUnknownMode(t *testing.T) {
	_, err := runCLI(t, "run", "--environment", "local", "--mode", "sideways", "--dry-run", "--data-dir", t.TempDir())
	require.Error(t, err)
}

func TestDryRunImportsIntoMemory(t *testing.T) {
	dir := t.TempDir()
	for name, body := range dryRunFiles {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}

	out, err := runCLI(t, "run", "--environment", "local", "--dry-run", "--data-dir", dir)
	require.NoError(t, err)
	require.Contains(t, out, "dry_run=true")
	require.Contains(t, out, "players")
	require.Contains(t, out, "OK: run")
}

func TestDryRunReportsMissingSource(t *testing.T) {
	out, err := runCLI(t, "run", "--environment", "local", "--dry-run", "--data-dir", t.TempDir())
	require.True(t, crerr.Is(err, importrun.ErrSourceValidation), "expected %v, got %v", importrun.ErrSourceValidation, err)
	require.Contains(t, out, "FAILED")
}
