// Package repository provides the database operations behind the session's
// persisted shapes.
package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/boosterlab/packsim/internal/collection"
)

// CollectionRepository handles database operations for the card collection.
type CollectionRepository interface {
	// UpsertEntry inserts or updates one collection entry.
	UpsertEntry(ctx context.Context, key string, entry collection.Entry) error

	// GetAll retrieves the entire collection keyed by identity key.
	GetAll(ctx context.Context) (map[string]collection.Entry, error)

	// ReplaceAll atomically replaces the stored collection with the given
	// snapshot.
	ReplaceAll(ctx context.Context, entries map[string]collection.Entry) error

	// Clear removes every entry.
	Clear(ctx context.Context) error
}

// collectionRepository is the concrete implementation of CollectionRepository.
type collectionRepository struct {
	db *sql.DB
}

// NewCollectionRepository creates a new collection repository.
func NewCollectionRepository(db *sql.DB) CollectionRepository {
	return &collectionRepository{db: db}
}

// UpsertEntry inserts or updates one collection entry.
func (r *collectionRepository) UpsertEntry(ctx context.Context, key string, entry collection.Entry) error {
	query := `
		INSERT INTO collection (key, name, number, rarity, image, count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			count = excluded.count,
			updated_at = excluded.updated_at
	`

	_, err := r.db.ExecContext(ctx, query,
		key, entry.Name, entry.Number, entry.Rarity, entry.Image, entry.Count, time.Now())
	if err != nil {
		return fmt.Errorf("failed to upsert collection entry: %w", err)
	}

	return nil
}

// GetAll retrieves the entire collection keyed by identity key.
func (r *collectionRepository) GetAll(ctx context.Context) (map[string]collection.Entry, error) {
	query := `SELECT key, name, number, rarity, image, count FROM collection`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to get collection: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make(map[string]collection.Entry)
	for rows.Next() {
		var key string
		var entry collection.Entry
		if err := rows.Scan(&key, &entry.Name, &entry.Number, &entry.Rarity, &entry.Image, &entry.Count); err != nil {
			return nil, fmt.Errorf("failed to scan collection entry: %w", err)
		}
		entries[key] = entry
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating collection: %w", err)
	}

	return entries, nil
}

// ReplaceAll atomically replaces the stored collection with the snapshot.
func (r *collectionRepository) ReplaceAll(ctx context.Context, entries map[string]collection.Entry) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM collection`); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}

	insert := `
		INSERT INTO collection (key, name, number, rarity, image, count, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	now := time.Now()
	for key, entry := range entries {
		if _, err = tx.ExecContext(ctx, insert,
			key, entry.Name, entry.Number, entry.Rarity, entry.Image, entry.Count, now); err != nil {
			return fmt.Errorf("failed to insert collection entry %q: %w", key, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit collection: %w", err)
	}
	return nil
}

// Clear removes every entry.
func (r *collectionRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM collection`); err != nil {
		return fmt.Errorf("failed to clear collection: %w", err)
	}
	return nil
}
