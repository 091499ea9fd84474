package postgres

import (
	"context"
	"fmt"

	"github.com/lib/pq"
	"github.com/riskibarqy/league-sync/internal/domain/reference"
	"github.com/riskibarqy/league-sync/internal/domain/table"
	qb "github.com/riskibarqy/league-sync/internal/platform/querybuilder"
)

// referenceSource maps a reference kind onto its owner and text columns.
type referenceSource struct {
	table       string
	ownerColumn string
	textColumn  string
}

var referenceSources = map[reference.Kind]referenceSource{
	reference.KindPoll:           {table: table.Polls, ownerColumn: "created_by", textColumn: "question"},
	reference.KindCaptainMessage: {table: table.CaptainMessages, ownerColumn: "captain_user_id", textColumn: "message"},
}

var fixtureTables = []string{table.Matches, table.Schedule}

// ListDanglingReferences returns polls and captain messages whose team is gone or listed in teamIDs.
func (s *Session) ListDanglingReferences(ctx context.Context, teamIDs []int64) ([]reference.Reference, error) {
	tx, err := s.current()
	if err != nil {
		return nil, err
	}

	var out []reference.Reference
	for _, kind := range reference.Kinds {
		src := referenceSources[kind]
		query, args, err := qb.Select(
			"r.id",
			"r.team_id",
			"r."+src.ownerColumn+" AS owner_user_id",
			"COALESCE(r."+src.textColumn+", '') AS body",
			"r.created_at",
		).
			From(src.table+" r").
			Where(
				qb.Expr("r.team_id IS NOT NULL"),
				qb.Expr("(NOT EXISTS (SELECT 1 FROM teams t WHERE t.id = r.team_id) OR r.team_id = ANY(?))", pq.Array(teamIDs)),
			).
			OrderBy("r.id").
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build select dangling %s query: %w", src.table, err)
		}

		var rows []referenceTableModel
		if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, fmt.Errorf("select dangling %s: %w", src.table, err)
		}
		for _, row := range rows {
			out = append(out, reference.Reference{
				Kind:        kind,
				ID:          row.ID,
				TeamID:      nullableInt64(row.TeamID),
				OwnerUserID: nullableInt64(row.OwnerUserID),
				Text:        row.Text,
				CreatedAt:   row.CreatedAt,
			})
		}
	}
	return out, nil
}

// RelinkReference points ref at teamID. A nil teamID clears the link.
func (s *Session) RelinkReference(ctx context.Context, ref reference.Reference, teamID *int64) error {
	tx, err := s.current()
	if err != nil {
		return err
	}
	src, ok := referenceSources[ref.Kind]
	if !ok {
		return fmt.Errorf("relink reference: unknown kind %q", ref.Kind)
	}

	query, args, err := qb.Update(src.table).
		Set("team_id", teamID).
		Where(qb.Eq("id", ref.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build relink %s query: %w", src.table, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classifyWriteError(fmt.Errorf("relink %s %d: %w", src.table, ref.ID, err), src.table)
	}
	return nil
}

func (s *Session) ListUnlinkedFixtures(ctx context.Context) ([]reference.FixtureRef, error) {
	tx, err := s.current()
	if err != nil {
		return nil, err
	}

	var out []reference.FixtureRef
	for _, name := range fixtureTables {
		query, args, err := qb.Select(
			"x.id",
			"x.league_id",
			"l.league_id AS league_code",
			"x.home_team",
			"x.away_team",
			"x.home_team_id",
			"x.away_team_id",
		).
			From(name + " x JOIN leagues l ON l.id = x.league_id").
			Where(qb.Expr("(x.home_team_id IS NULL OR x.away_team_id IS NULL)")).
			OrderBy("x.id").
			ToSQL()
		if err != nil {
			return nil, fmt.Errorf("build select unlinked %s query: %w", name, err)
		}

		var rows []fixtureTableModel
		if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
			return nil, fmt.Errorf("select unlinked %s: %w", name, err)
		}
		for _, row := range rows {
			out = append(out, reference.FixtureRef{
				Table:      name,
				ID:         row.ID,
				LeagueID:   row.LeagueID,
				LeagueCode: row.LeagueCode,
				HomeTeam:   row.HomeTeam,
				AwayTeam:   row.AwayTeam,
				HomeTeamID: nullableInt64(row.HomeTeamID),
				AwayTeamID: nullableInt64(row.AwayTeamID),
			})
		}
	}
	return out, nil
}

func (s *Session) LinkFixture(ctx context.Context, ref reference.FixtureRef) error {
	tx, err := s.current()
	if err != nil {
		return err
	}
	if ref.Table != table.Matches && ref.Table != table.Schedule {
		return fmt.Errorf("link fixture: unknown table %q", ref.Table)
	}

	query, args, err := qb.Update(ref.Table).
		Set("home_team_id", ref.HomeTeamID).
		Set("away_team_id", ref.AwayTeamID).
		Where(qb.Eq("id", ref.ID)).
		ToSQL()
	if err != nil {
		return fmt.Errorf("build link %s query: %w", ref.Table, err)
	}

	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return classifyWriteError(fmt.Errorf("link %s %d: %w", ref.Table, ref.ID, err), ref.Table)
	}
	return nil
}
