package storage

import (
	"context"

	"github.com/boosterlab/packsim/internal/collection"
	"github.com/boosterlab/packsim/internal/stats"
	"github.com/boosterlab/packsim/internal/storage/repository"
)

// Store composes the collection and stats repositories into the session's
// persistence contract: hydrate at startup, write back after every
// mutation, clear on reset.
type Store struct {
	collections repository.CollectionRepository
	stats       repository.StatsRepository
}

// NewStore creates a store over an open database.
func NewStore(db *DB) *Store {
	return &Store{
		collections: repository.NewCollectionRepository(db.Conn()),
		stats:       repository.NewStatsRepository(db.Conn()),
	}
}

// LoadCollection retrieves the persisted collection shape.
func (s *Store) LoadCollection(ctx context.Context) (map[string]collection.Entry, error) {
	return s.collections.GetAll(ctx)
}

// SaveCollection persists the collection shape.
func (s *Store) SaveCollection(ctx context.Context, entries map[string]collection.Entry) error {
	return s.collections.ReplaceAll(ctx, entries)
}

// LoadStats retrieves the persisted stats shape.
func (s *Store) LoadStats(ctx context.Context) (stats.Stats, error) {
	return s.stats.Get(ctx)
}

// SaveStats persists the stats shape.
func (s *Store) SaveStats(ctx context.Context, st stats.Stats) error {
	return s.stats.Save(ctx, st)
}

// Clear resets both persisted shapes to their empty initial state.
func (s *Store) Clear(ctx context.Context) error {
	if err := s.collections.Clear(ctx); err != nil {
		return err
	}
	return s.stats.Clear(ctx)
}
