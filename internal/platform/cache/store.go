package cache

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Store is a run-scoped identity map, e.g. normalized club name to surrogate id.
// Entries never expire; callers Delete or Reset when the backing rows change.
type Store[V any] struct {
	mu      sync.RWMutex
	entries map[string]V
	hits    int64
	misses  int64
}

type Stats struct {
	Entries int
	Hits    int64
	Misses  int64
}

func NewStore[V any]() *Store[V] {
	return &Store[V]{entries: make(map[string]V)}
}

func (s *Store[V]) Get(_ context.Context, key string) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	value, ok := s.entries[key]
	if !ok {
		s.misses++
		return zero, false
	}
	s.hits++
	return value, true
}

func (s *Store[V]) Set(_ context.Context, key string, value V) {
	if key == "" {
		return
	}

	s.mu.Lock()
	s.entries[key] = value
	s.mu.Unlock()
}

func (s *Store[V]) Delete(_ context.Context, key string) {
	if key == "" {
		return
	}

	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
}

func (s *Store[V]) DeletePrefix(_ context.Context, prefix string) {
	if prefix == "" {
		return
	}

	s.mu.Lock()
	for key := range s.entries {
		if strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
		}
	}
	s.mu.Unlock()
}

func (s *Store[V]) Reset() {
	s.mu.Lock()
	s.entries = make(map[string]V)
	s.hits = 0
	s.misses = 0
	s.mu.Unlock()
}

// GetOrLoad returns the cached value or stores what loader returns.
// A loader reporting found=false is not cached, so a later call can see a row created since.
func (s *Store[V]) GetOrLoad(ctx context.Context, key string, loader func(context.Context) (V, bool, error)) (V, bool, error) {
	var zero V
	if loader == nil {
		return zero, false, fmt.Errorf("loader is required")
	}
	if key == "" {
		return loader(ctx)
	}

	if value, ok := s.Get(ctx, key); ok {
		return value, true, nil
	}

	loaded, found, err := loader(ctx)
	if err != nil {
		return zero, false, err
	}
	if found {
		s.Set(ctx, key, loaded)
	}
	return loaded, found, nil
}

func (s *Store[V]) Stats() Stats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Stats{Entries: len(s.entries), Hits: s.hits, Misses: s.misses}
}
