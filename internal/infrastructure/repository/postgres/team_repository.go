package postgres

import (
	"context"
	"fmt"

	"github.com/riskibarqy/league-sync/internal/domain/team"
	qb "github.com/riskibarqy/league-sync/internal/platform/querybuilder"
)

var teamColumns = []string{
	"t.id",
	"t.club_id",
	"t.series_id",
	"t.league_id",
	"t.team_name",
	"t.team_alias",
	"c.name AS club_name",
	"s.name AS series_name",
	"l.league_id AS league_code",
}

const teamFrom = "teams t " +
	"JOIN clubs c ON c.id = t.club_id " +
	"JOIN series s ON s.id = t.series_id " +
	"JOIN leagues l ON l.id = t.league_id"

// teamUnreferenced holds when nothing in the import tables points at team t.
const teamUnreferenced = "NOT EXISTS (SELECT 1 FROM players p WHERE p.team_id = t.id) " +
	"AND NOT EXISTS (SELECT 1 FROM match_scores m WHERE m.home_team_id = t.id OR m.away_team_id = t.id) " +
	"AND NOT EXISTS (SELECT 1 FROM schedule sc WHERE sc.home_team_id = t.id OR sc.away_team_id = t.id) " +
	"AND NOT EXISTS (SELECT 1 FROM series_stats ss WHERE ss.team_id = t.id)"

func (s *Session) ListTeamsByLeague(ctx context.Context, leagueID int64) ([]team.Team, error) {
	query, args, err := qb.Select(teamColumns...).
		From(teamFrom).
		Where(qb.Eq("t.league_id", leagueID)).
		OrderBy("t.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select teams by league query: %w", err)
	}
	return s.selectTeams(ctx, "select teams by league", query, args)
}

// CreateTeam inserts t. When its natural key is taken the stored team is returned with created=false.
func (s *Session) CreateTeam(ctx context.Context, t team.Team) (team.Team, bool, error) {
	tx, err := s.current()
	if err != nil {
		return team.Team{}, false, err
	}
	if err := t.Validate(); err != nil {
		return team.Team{}, false, err
	}

	model := teamInsertModel{
		ClubID:   t.ClubID,
		SeriesID: t.SeriesID,
		LeagueID: t.LeagueID,
		Name:     t.Name,
	}
	if t.Alias != "" {
		model.Alias.String, model.Alias.Valid = t.Alias, true
	}

	insertQuery, insertArgs, err := qb.InsertModel("teams", model,
		"ON CONFLICT (club_id, series_id, league_id) DO NOTHING RETURNING id")
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build insert team query: %w", err)
	}

	var ids []int64
	if err := tx.SelectContext(ctx, &ids, insertQuery, insertArgs...); err != nil {
		return team.Team{}, false, classifyWriteError(fmt.Errorf("insert team %q: %w", t.Name, err), "teams")
	}
	if len(ids) == 1 {
		t.ID = ids[0]
		return t, true, nil
	}

	query, args, err := qb.Select(teamColumns...).
		From(teamFrom).
		Where(
			qb.Eq("t.club_id", t.ClubID),
			qb.Eq("t.series_id", t.SeriesID),
			qb.Eq("t.league_id", t.LeagueID),
		).
		OrderBy("t.id").
		Limit(1).
		ToSQL()
	if err != nil {
		return team.Team{}, false, fmt.Errorf("build select team by key query: %w", err)
	}

	existing, err := s.selectTeams(ctx, "select team by key", query, args)
	if err != nil {
		return team.Team{}, false, err
	}
	if len(existing) == 0 {
		return team.Team{}, false, fmt.Errorf("team %q vanished after conflicting insert", t.Name)
	}
	return existing[0], false, nil
}

func (s *Session) ListOrphanTeams(ctx context.Context) ([]team.Team, error) {
	query, args, err := qb.Select(teamColumns...).
		From(teamFrom).
		Where(qb.Expr(teamUnreferenced)).
		OrderBy("t.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select orphan teams query: %w", err)
	}
	return s.selectTeams(ctx, "select orphan teams", query, args)
}

func (s *Session) DeleteTeams(ctx context.Context, ids []int64) (int64, error) {
	tx, err := s.current()
	if err != nil {
		return 0, err
	}
	if len(ids) == 0 {
		return 0, nil
	}

	values := make([]any, 0, len(ids))
	for _, id := range ids {
		values = append(values, id)
	}
	query, args, err := qb.DeleteFrom("teams").
		Where(qb.In("id", values)).
		ToSQL()
	if err != nil {
		return 0, fmt.Errorf("build delete teams query: %w", err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return 0, classifyWriteError(fmt.Errorf("delete teams: %w", err), "teams")
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("read deleted teams: %w", err)
	}
	return affected, nil
}

// ListDuplicateTeams finds natural keys held by more than one team, which the unique
// index prevents for new rows but legacy data may still contain.
func (s *Session) ListDuplicateTeams(ctx context.Context) ([]team.DuplicateGroup, error) {
	query, args, err := qb.Select(teamColumns...).
		From(teamFrom).
		Where(qb.Expr("(t.club_id, t.series_id, t.league_id) IN ("+
			"SELECT club_id, series_id, league_id FROM teams "+
			"GROUP BY club_id, series_id, league_id HAVING COUNT(1) > 1)")).
		OrderBy("t.club_id", "t.series_id", "t.league_id", "t.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select duplicate teams query: %w", err)
	}

	teams, err := s.selectTeams(ctx, "select duplicate teams", query, args)
	if err != nil {
		return nil, err
	}

	var out []team.DuplicateGroup
	for _, t := range teams {
		if n := len(out); n > 0 && out[n-1].Key == t.Key() {
			out[n-1].Teams = append(out[n-1].Teams, t)
			continue
		}
		out = append(out, team.DuplicateGroup{Key: t.Key(), Teams: []team.Team{t}})
	}
	return out, nil
}

func (s *Session) ListUserTeams(ctx context.Context, userID int64) ([]team.Team, error) {
	query, args, err := qb.Select(teamColumns...).
		From(teamFrom).
		Where(qb.Expr("t.id IN ("+
			"SELECT p.team_id FROM players p "+
			"JOIN user_player_associations upa ON upa.tenniscores_player_id = p.tenniscores_player_id "+
			"WHERE upa.user_id = ? AND p.team_id IS NOT NULL)", userID)).
		OrderBy("t.id").
		ToSQL()
	if err != nil {
		return nil, fmt.Errorf("build select user teams query: %w", err)
	}
	return s.selectTeams(ctx, "select user teams", query, args)
}

func (s *Session) selectTeams(ctx context.Context, op, query string, args []any) ([]team.Team, error) {
	tx, err := s.current()
	if err != nil {
		return nil, err
	}

	var rows []teamTableModel
	if err := tx.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	out := make([]team.Team, 0, len(rows))
	for _, row := range rows {
		out = append(out, team.Team{
			ID:         row.ID,
			ClubID:     row.ClubID,
			SeriesID:   row.SeriesID,
			LeagueID:   row.LeagueID,
			Name:       row.Name,
			Alias:      row.Alias.String,
			ClubName:   row.ClubName,
			SeriesName: row.SeriesName,
			LeagueCode: row.LeagueCode,
		})
	}
	return out, nil
}
