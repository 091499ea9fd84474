package postgres

import (
	"context"
	"fmt"

	"github.com/riskibarqy/league-sync/internal/domain/club"
	"github.com/riskibarqy/league-sync/internal/domain/league"
	"github.com/riskibarqy/league-sync/internal/domain/series"
	qb "github.com/riskibarqy/league-sync/internal/platform/querybuilder"
)

// EnsureLeague inserts the league when its code is new. An existing league keeps its stored name and URL.
func (s *Session) EnsureLeague(ctx context.Context, l league.League) (league.League, bool, error) {
	tx, err := s.current()
	if err != nil {
		return league.League{}, false, err
	}
	if err := l.Validate(); err != nil {
		return league.League{}, false, err
	}

	insertQuery, insertArgs, err := qb.InsertModel("leagues", leagueInsertModel{
		Code: l.Code,
		Name: l.Name,
		URL:  l.URL,
	}, "ON CONFLICT (league_id) DO NOTHING RETURNING id")
	if err != nil {
		return league.League{}, false, fmt.Errorf("build insert league query: %w", err)
	}

	var insertedIDs []int64
	if err := tx.SelectContext(ctx, &insertedIDs, insertQuery, insertArgs...); err != nil {
		return league.League{}, false, classifyWriteError(fmt.Errorf("insert league %s: %w", l.Code, err), "leagues")
	}
	if len(insertedIDs) == 1 {
		l.ID = insertedIDs[0]
		return l, true, nil
	}

	query, args, err := qb.Select("id", "league_id", "league_name", "league_url").
		From("leagues").
		Where(qb.Eq("league_id", l.Code)).
		Limit(1).
		ToSQL()
	if err != nil {
		return league.League{}, false, fmt.Errorf("build select league by code query: %w", err)
	}

	var row leagueTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		return league.League{}, false, fmt.Errorf("select league %s: %w", l.Code, err)
	}

	return league.League{
		ID:   row.ID,
		Code: row.Code,
		Name: row.Name,
		URL:  row.URL.String,
	}, false, nil
}

func (s *Session) FindClubByName(ctx context.Context, name string) (club.Club, bool, error) {
	tx, err := s.current()
	if err != nil {
		return club.Club{}, false, err
	}

	query, args, err := qb.Select("id", "name").
		From("clubs").
		Where(qb.Eq("name", name)).
		Limit(1).
		ToSQL()
	if err != nil {
		return club.Club{}, false, fmt.Errorf("build select club by name query: %w", err)
	}

	var row clubTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return club.Club{}, false, nil
		}
		return club.Club{}, false, fmt.Errorf("select club by name: %w", err)
	}

	return club.Club{ID: row.ID, Name: row.Name}, true, nil
}

func (s *Session) EnsureClub(ctx context.Context, name string) (club.Club, bool, error) {
	id, created, err := s.insertNamed(ctx, "clubs", name)
	if err != nil {
		return club.Club{}, false, err
	}
	if created {
		return club.Club{ID: id, Name: name}, true, nil
	}

	found, ok, err := s.FindClubByName(ctx, name)
	if err != nil {
		return club.Club{}, false, err
	}
	if !ok {
		return club.Club{}, false, fmt.Errorf("club %q vanished after conflicting insert", name)
	}
	return found, false, nil
}

func (s *Session) LinkClubLeague(ctx context.Context, clubID, leagueID int64) (bool, error) {
	return s.link(ctx, "club_leagues", "club_id", clubID, leagueID)
}

func (s *Session) FindSeriesByName(ctx context.Context, name string) (series.Series, bool, error) {
	tx, err := s.current()
	if err != nil {
		return series.Series{}, false, err
	}

	query, args, err := qb.Select("id", "name").
		From("series").
		Where(qb.Eq("name", name)).
		Limit(1).
		ToSQL()
	if err != nil {
		return series.Series{}, false, fmt.Errorf("build select series by name query: %w", err)
	}

	var row seriesTableModel
	if err := tx.GetContext(ctx, &row, query, args...); err != nil {
		if isNotFound(err) {
			return series.Series{}, false, nil
		}
		return series.Series{}, false, fmt.Errorf("select series by name: %w", err)
	}

	return series.Series{ID: row.ID, Name: row.Name}, true, nil
}

func (s *Session) EnsureSeries(ctx context.Context, name string) (series.Series, bool, error) {
	id, created, err := s.insertNamed(ctx, "series", name)
	if err != nil {
		return series.Series{}, false, err
	}
	if created {
		return series.Series{ID: id, Name: name}, true, nil
	}

	found, ok, err := s.FindSeriesByName(ctx, name)
	if err != nil {
		return series.Series{}, false, err
	}
	if !ok {
		return series.Series{}, false, fmt.Errorf("series %q vanished after conflicting insert", name)
	}
	return found, false, nil
}

func (s *Session) LinkSeriesLeague(ctx context.Context, seriesID, leagueID int64) (bool, error) {
	return s.link(ctx, "series_leagues", "series_id", seriesID, leagueID)
}

// insertNamed inserts into a table unique on name. created is false when the name already existed.
func (s *Session) insertNamed(ctx context.Context, tableName, name string) (int64, bool, error) {
	tx, err := s.current()
	if err != nil {
		return 0, false, err
	}
	if name == "" {
		return 0, false, fmt.Errorf("%s name is required", tableName)
	}

	query, args, err := qb.InsertInto(tableName).
		Columns("name").
		Values(name).
		OnConflict("name").
		DoNothing().
		Returning("id").
		ToSQL()
	if err != nil {
		return 0, false, fmt.Errorf("build insert %s query: %w", tableName, err)
	}

	var ids []int64
	if err := tx.SelectContext(ctx, &ids, query, args...); err != nil {
		return 0, false, classifyWriteError(fmt.Errorf("insert %s %q: %w", tableName, name, err), tableName)
	}
	if len(ids) == 0 {
		return 0, false, nil
	}
	return ids[0], true, nil
}

func (s *Session) link(ctx context.Context, tableName, ownerColumn string, ownerID, leagueID int64) (bool, error) {
	tx, err := s.current()
	if err != nil {
		return false, err
	}

	query, args, err := qb.InsertInto(tableName).
		Columns(ownerColumn, "league_id").
		Values(ownerID, leagueID).
		OnConflict(ownerColumn, "league_id").
		DoNothing().
		ToSQL()
	if err != nil {
		return false, fmt.Errorf("build insert %s query: %w", tableName, err)
	}

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, classifyWriteError(fmt.Errorf("insert %s: %w", tableName, err), tableName)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("read inserted rows for %s: %w", tableName, err)
	}
	return affected == 1, nil
}
