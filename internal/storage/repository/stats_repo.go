package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/boosterlab/packsim/internal/stats"
)

// StatsRepository handles database operations for aggregate pack statistics.
type StatsRepository interface {
	// Save writes the stats record and its per-rarity counts.
	Save(ctx context.Context, s stats.Stats) error

	// Get retrieves the stored stats. Zeroed stats when nothing is stored.
	Get(ctx context.Context) (stats.Stats, error)

	// Clear resets the stored stats to their zero shape.
	Clear(ctx context.Context) error
}

// statsRepository is the concrete implementation of StatsRepository.
type statsRepository struct {
	db *sql.DB
}

// NewStatsRepository creates a new stats repository.
func NewStatsRepository(db *sql.DB) StatsRepository {
	return &statsRepository{db: db}
}

// Save writes the stats record and its per-rarity counts in one transaction.
func (r *statsRepository) Save(ctx context.Context, s stats.Stats) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	upsert := `
		INSERT INTO stats (id, packs_opened, total_cards, updated_at)
		VALUES (1, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			packs_opened = excluded.packs_opened,
			total_cards = excluded.total_cards,
			updated_at = excluded.updated_at
	`
	if _, err = tx.ExecContext(ctx, upsert, s.PacksOpened, s.TotalCards, time.Now()); err != nil {
		return fmt.Errorf("failed to upsert stats: %w", err)
	}

	if _, err = tx.ExecContext(ctx, `DELETE FROM rarity_counts`); err != nil {
		return fmt.Errorf("failed to clear rarity counts: %w", err)
	}
	for rarity, count := range s.Rarities {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO rarity_counts (rarity, count) VALUES (?, ?)`, rarity, count); err != nil {
			return fmt.Errorf("failed to insert rarity count %q: %w", rarity, err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit stats: %w", err)
	}
	return nil
}

// Get retrieves the stored stats. A database that has never been written
// yields zeroed stats, not an error.
func (r *statsRepository) Get(ctx context.Context) (stats.Stats, error) {
	s := stats.Stats{Rarities: make(map[string]int)}

	err := r.db.QueryRowContext(ctx,
		`SELECT packs_opened, total_cards FROM stats WHERE id = 1`).
		Scan(&s.PacksOpened, &s.TotalCards)
	if err == sql.ErrNoRows {
		return s, nil
	}
	if err != nil {
		return stats.Stats{}, fmt.Errorf("failed to get stats: %w", err)
	}

	rows, err := r.db.QueryContext(ctx, `SELECT rarity, count FROM rarity_counts`)
	if err != nil {
		return stats.Stats{}, fmt.Errorf("failed to get rarity counts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		var rarity string
		var count int
		if err := rows.Scan(&rarity, &count); err != nil {
			return stats.Stats{}, fmt.Errorf("failed to scan rarity count: %w", err)
		}
		s.Rarities[rarity] = count
	}
	if err := rows.Err(); err != nil {
		return stats.Stats{}, fmt.Errorf("error iterating rarity counts: %w", err)
	}

	return s, nil
}

// Clear resets the stored stats to their zero shape.
func (r *statsRepository) Clear(ctx context.Context) (err error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM stats`); err != nil {
		return fmt.Errorf("failed to clear stats: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM rarity_counts`); err != nil {
		return fmt.Errorf("failed to clear rarity counts: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit clear: %w", err)
	}
	return nil
}
