package league

import "context"

// Repository describes league persistence needs of the import engine.
type Repository interface {
	// EnsureLeague returns the stored league for l.Code, inserting it when missing.
	EnsureLeague(ctx context.Context, l League) (League, bool, error)
}
