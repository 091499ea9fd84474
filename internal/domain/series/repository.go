package series

import "context"

type Repository interface {
	FindSeriesByName(ctx context.Context, name string) (Series, bool, error)
	EnsureSeries(ctx context.Context, name string) (s Series, created bool, err error)
	LinkSeriesLeague(ctx context.Context, seriesID, leagueID int64) (bool, error)
}
