package usecase

import (
	"context"
	"fmt"

	crerr "github.com/cockroachdb/errors"
	"github.com/riskibarqy/league-sync/internal/domain/importrun"
	"github.com/riskibarqy/league-sync/internal/domain/match"
	"github.com/riskibarqy/league-sync/internal/domain/player"
	"github.com/riskibarqy/league-sync/internal/domain/playerhistory"
	"github.com/riskibarqy/league-sync/internal/domain/rawdata"
	"github.com/riskibarqy/league-sync/internal/domain/schedule"
	"github.com/riskibarqy/league-sync/internal/domain/seriesstats"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	"github.com/riskibarqy/league-sync/internal/platform/resilience"
)

// fileImport carries the per-file error budget.
type fileImport struct {
	run      *importRun
	resolver *Resolver
	upserter *Upserter
	source   rawdata.Source
	budget   *resilience.ErrorBudget
}

func (r *importRun) importSources(ctx context.Context, sources []rawdata.Source, resolver *Resolver) error {
	upserter := NewUpserter(r.session, r.cfg.BatchSize, r.logger)
	budgetCfg := resilience.ErrorBudgetConfig{Limit: r.cfg.ErrorCeiling}

	for _, source := range sources {
		f := &fileImport{
			run:      r,
			resolver: resolver,
			upserter: upserter,
			source:   source,
			budget:   budgetCfg.New(),
		}

		r.logger.InfoContext(ctx, "importing source", "file", source.File.Name, "records", len(source.Records))
		err := f.importFile(ctx)
		if err == nil {
			continue
		}
		if crerr.Is(err, importrun.ErrErrorCeiling) && r.cfg.Mode == importrun.ModeIncremental {
			r.summary.FailedFiles = append(r.summary.FailedFiles, source.File.Name)
			r.logger.WarnContext(ctx, "source abandoned", "file", source.File.Name, "error", err)
			continue
		}
		return err
	}

	for name, count := range resolver.Created() {
		r.summary.Table(name).Inserted += count
	}
	clubs, series := resolver.CacheStats()
	r.logger.DebugContext(ctx, "resolver cache",
		"club_hits", clubs.Hits, "club_misses", clubs.Misses,
		"series_hits", series.Hits, "series_misses", series.Misses)
	return nil
}

func (f *fileImport) importFile(ctx context.Context) error {
	switch f.source.File.Kind {
	case rawdata.KindPlayers:
		return f.importPlayers(ctx)
	case rawdata.KindPlayerHistory:
		return f.importPlayerHistory(ctx)
	case rawdata.KindMatchHistory:
		return f.importMatches(ctx)
	case rawdata.KindSeriesStats:
		return f.importSeriesStats(ctx)
	case rawdata.KindSchedules:
		return f.importSchedules(ctx)
	default:
		return fmt.Errorf("no importer for source kind %q", f.source.File.Kind)
	}
}

// countSkip counts a rejected record against the file's error budget.
func (f *fileImport) countSkip(ctx context.Context, tableName, raw string, cause error) error {
	r := f.run
	r.summary.Table(tableName).Skipped++
	r.logger.DebugContext(ctx, "record skipped", "file", f.source.File.Name, "table", tableName, "raw", raw, "reason", cause)

	if err := f.budget.RecordFailure(); err != nil {
		ceiling := crerr.Mark(
			crerr.Wrapf(err, "%s: more than %d records rejected", f.source.File.Name, r.cfg.ErrorCeiling),
			importrun.ErrErrorCeiling)
		if r.cfg.Mode == importrun.ModeAtomic {
			return importrun.Fatal(ceiling, "import %s", f.source.File.Name)
		}
		return ceiling
	}
	return nil
}

// isResolutionFailure reports errors that cost one record rather than the run.
func isResolutionFailure(err error) bool {
	return crerr.Is(err, importrun.ErrUnresolvedEntity)
}

// mapRecords maps every record of a file before anything is written, so an
// exhausted error budget aborts the file without partial writes.
func mapRecords[T any](ctx context.Context, f *fileImport, tableName string, mapper func(rawdata.Record) (T, error)) ([]T, error) {
	out := make([]T, 0, len(f.source.Records))
	for idx, record := range f.source.Records {
		mapped, err := mapper(record)
		if err != nil {
			if _, ok := rawdata.AsSkip(err); !ok {
				return nil, fmt.Errorf("map %s record %d: %w", f.source.File.Name, idx, err)
			}
			if err := f.countSkip(ctx, tableName, fmt.Sprintf("record %d", idx), err); err != nil {
				return nil, err
			}
			continue
		}
		f.budget.RecordSuccess()
		out = append(out, mapped)
	}
	return out, nil
}

func (f *fileImport) upsert(ctx context.Context, spec table.Spec, rows []table.Row) error {
	result, err := f.upserter.Upsert(ctx, spec, rows)
	f.run.summary.Table(spec.Name).Add(result)
	return err
}

func (f *fileImport) importPlayers(ctx context.Context) error {
	records, err := mapRecords(ctx, f, table.Players, player.MapRecord)
	if err != nil {
		return err
	}

	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		refs, err := f.resolver.ResolvePlayerTeam(ctx, rec.LeagueID, rec.Club, rec.Series)
		if err != nil {
			if !isResolutionFailure(err) {
				return err
			}
			if err := f.skipWithLeague(ctx, table.Players, rec.LeagueID, rec.ExternalID, err); err != nil {
				return err
			}
			continue
		}
		rows = append(rows, rec.Row(refs))
	}
	return f.upsert(ctx, player.Table, rows)
}

func (f *fileImport) importPlayerHistory(ctx context.Context) error {
	records, err := mapRecords(ctx, f, table.PlayerHistory, playerhistory.MapRecord)
	if err != nil {
		return err
	}

	playersByLeague := make(map[string]map[string][]player.Player)
	var historyRows, careerRows []table.Row
	for _, rec := range records {
		f.run.summary.Table(table.PlayerHistory).Skipped += rec.DroppedEntries

		lg, err := f.resolver.League(ctx, rec.LeagueID)
		if err != nil {
			return err
		}
		byExternalID, ok := playersByLeague[rec.LeagueID]
		if !ok {
			players, err := f.run.session.ListLeaguePlayers(ctx, lg.ID)
			if err != nil {
				return fmt.Errorf("list players of %s: %w", rec.LeagueID, err)
			}
			byExternalID = make(map[string][]player.Player, len(players))
			for _, p := range players {
				byExternalID[p.ExternalID] = append(byExternalID[p.ExternalID], p)
			}
			playersByLeague[rec.LeagueID] = byExternalID
		}

		target, ok := pickPlayerRow(byExternalID[rec.PlayerExternalID], rec.Series)
		if !ok {
			missing := &importrun.UnresolvedEntityError{Kind: "player", Raw: rec.PlayerExternalID, Reason: "player not imported for league"}
			if err := f.skipWithLeague(ctx, table.PlayerHistory, rec.LeagueID, rec.PlayerExternalID, missing); err != nil {
				return err
			}
			continue
		}
		if len(rec.Entries) == 0 {
			continue
		}
		historyRows = append(historyRows, rec.Rows(target.ID, lg.ID)...)
		careerRows = append(careerRows, rec.Career().Row(target.ID))
	}

	if err := f.upsert(ctx, playerhistory.Table, historyRows); err != nil {
		return err
	}
	return f.upsert(ctx, playerhistory.CareerTable, careerRows)
}

// pickPlayerRow prefers the row in the history's series, then a lone row.
func pickPlayerRow(rows []player.Player, series string) (player.Player, bool) {
	for _, p := range rows {
		if p.SeriesName == series {
			return p, true
		}
	}
	if len(rows) == 1 {
		return rows[0], true
	}
	return player.Player{}, false
}

func (f *fileImport) importMatches(ctx context.Context) error {
	records, err := mapRecords(ctx, f, table.Matches, match.MapRecord)
	if err != nil {
		return err
	}

	var byID, byNaturalKey []table.Row
	for _, rec := range records {
		lg, err := f.resolver.League(ctx, rec.LeagueID)
		if err != nil {
			return err
		}
		home, skipped, err := f.resolveFixtureSide(ctx, table.Matches, rec.LeagueID, rec.HomeTeam)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}
		away, skipped, err := f.resolveFixtureSide(ctx, table.Matches, rec.LeagueID, rec.AwayTeam)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}

		row := rec.Row(match.TeamRefs{LeagueID: lg.ID, HomeTeamID: home, AwayTeamID: away})
		if rec.MatchID != nil {
			byID = append(byID, row)
		} else {
			byNaturalKey = append(byNaturalKey, row)
		}
	}

	if err := f.upsert(ctx, match.TableByMatchID, byID); err != nil {
		return err
	}
	return f.upsert(ctx, match.TableByNaturalKey, byNaturalKey)
}

func (f *fileImport) importSeriesStats(ctx context.Context) error {
	records, err := mapRecords(ctx, f, table.SeriesStats, seriesstats.MapRecord)
	if err != nil {
		return err
	}

	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		lg, err := f.resolver.League(ctx, rec.LeagueID)
		if err != nil {
			return err
		}
		teamID, err := f.resolver.ResolveTeam(ctx, rec.LeagueID, rec.Team, PolicySeriesStats)
		if err != nil {
			if !isResolutionFailure(err) {
				return err
			}
			if err := f.skipWithLeague(ctx, table.SeriesStats, rec.LeagueID, rec.Team, err); err != nil {
				return err
			}
			continue
		}
		rows = append(rows, rec.Row(lg.ID, &teamID))
	}
	return f.upsert(ctx, seriesstats.Table, rows)
}

func (f *fileImport) importSchedules(ctx context.Context) error {
	records, err := mapRecords(ctx, f, table.Schedule, schedule.MapRecord)
	if err != nil {
		return err
	}

	rows := make([]table.Row, 0, len(records))
	for _, rec := range records {
		lg, err := f.resolver.League(ctx, rec.LeagueID)
		if err != nil {
			return err
		}
		home, skipped, err := f.resolveFixtureSide(ctx, table.Schedule, rec.LeagueID, rec.HomeTeam)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}
		away, skipped, err := f.resolveFixtureSide(ctx, table.Schedule, rec.LeagueID, rec.AwayTeam)
		if err != nil {
			return err
		}
		if skipped {
			continue
		}
		rows = append(rows, rec.Row(lg.ID, home, away))
	}
	return f.upsert(ctx, schedule.Table, rows)
}

// resolveFixtureSide looks a fixture team up without creating it. An unknown
// team leaves the id NULL for the repair pass; an ambiguous one skips the record.
func (f *fileImport) resolveFixtureSide(ctx context.Context, tableName, leagueCode, teamName string) (*int64, bool, error) {
	teamID, err := f.resolver.ResolveTeam(ctx, leagueCode, teamName, PolicyFixture)
	switch {
	case err == nil:
		return &teamID, false, nil
	case crerr.Is(err, importrun.ErrAmbiguousTeam):
		if err := f.skipWithLeague(ctx, tableName, leagueCode, teamName, err); err != nil {
			return nil, true, err
		}
		return nil, true, nil
	case isResolutionFailure(err):
		f.run.logger.DebugContext(ctx, "fixture team left unlinked", "league_id", leagueCode, "team", teamName)
		return nil, false, nil
	default:
		return nil, false, err
	}
}

// skipWithLeague queues an unresolved or ambiguous entity for review, then counts the skip.
func (f *fileImport) skipWithLeague(ctx context.Context, tableName, leagueCode, raw string, cause error) error {
	var unresolved *importrun.UnresolvedEntityError
	if crerr.As(cause, &unresolved) {
		f.run.summary.AddReview(reviewFromError(leagueCode, raw, cause))
	}
	return f.countSkip(ctx, tableName, raw, cause)
}
