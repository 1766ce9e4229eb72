// Package session owns the state of one pack-opening session: the loaded
// catalog, its rarity pools, the generator, the collection ledger and the
// stats tracker, plus an optional persistence store.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"

	"github.com/boosterlab/packsim/internal/catalog"
	"github.com/boosterlab/packsim/internal/collection"
	"github.com/boosterlab/packsim/internal/pack"
	"github.com/boosterlab/packsim/internal/stats"
)

// Store persists the two session-owned shapes: the collection map and the
// stats record. A reload through Load* must reproduce identical state.
type Store interface {
	LoadCollection(ctx context.Context) (map[string]collection.Entry, error)
	SaveCollection(ctx context.Context, entries map[string]collection.Entry) error
	LoadStats(ctx context.Context) (stats.Stats, error)
	SaveStats(ctx context.Context, s stats.Stats) error
	Clear(ctx context.Context) error
}

// Options configures a session.
type Options struct {
	// Template is the pack template used by OpenPack.
	Template pack.Template

	// Rand is the shared random source. Nil gets a time-seeded source;
	// tests pass a seeded one for reproducible packs.
	Rand *rand.Rand

	// Store, when set, is hydrated from on New and written back after
	// every mutating operation.
	Store Store

	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// Session is safe for concurrent callers: each pack-open mutates the ledger
// and the tracker as one critical section.
type Session struct {
	mu        sync.Mutex
	catalog   *catalog.Catalog
	pools     catalog.Pools
	generator *pack.Generator
	template  pack.Template
	ledger    *collection.Ledger
	tracker   *stats.Tracker
	store     Store
	logger    *slog.Logger
}

// New creates a session and, when a store is configured, hydrates the
// ledger and tracker from it.
func New(ctx context.Context, opts Options) (*Session, error) {
	if err := opts.Template.Validate(); err != nil {
		return nil, fmt.Errorf("invalid pack template: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	s := &Session{
		generator: pack.NewGenerator(opts.Rand),
		template:  opts.Template,
		ledger:    collection.NewLedger(),
		tracker:   stats.NewTracker(),
		store:     opts.Store,
		logger:    logger,
	}

	if s.store != nil {
		entries, err := s.store.LoadCollection(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate collection: %w", err)
		}
		s.ledger.Restore(entries)

		st, err := s.store.LoadStats(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to hydrate stats: %w", err)
		}
		s.tracker.Restore(st)

		logger.Debug("session hydrated",
			"owned", s.ledger.Owned(),
			"packs_opened", st.PacksOpened)
	}

	return s, nil
}

// LoadCatalog swaps in a new catalog and rebuilds the rarity pools
// wholesale. Validation happens at parse time; by the time a *Catalog
// exists it is well-formed, so a load here cannot fail and never leaves
// stale pools behind.
func (s *Session) LoadCatalog(cat *catalog.Catalog) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.catalog = cat
	s.pools = catalog.BuildPools(cat.Cards)
	s.logger.Info("catalog loaded",
		"set", cat.SetName,
		"cards", cat.Size(),
		"rarities", len(s.pools))
}

// Catalog returns the currently loaded catalog, nil before any load.
func (s *Session) Catalog() *catalog.Catalog {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.catalog
}

// Template returns the session's pack template.
func (s *Session) Template() pack.Template {
	return s.template
}

// OpenPack draws one pack, folds it into the ledger and the tracker as a
// single transaction, and persists both shapes. Fails with
// pack.ErrEmptyCatalog before any catalog is loaded.
func (s *Session) OpenPack(ctx context.Context) ([]pack.Pull, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog == nil {
		return nil, pack.ErrEmptyCatalog
	}

	pulls, err := s.generator.Open(s.catalog, s.pools, s.template)
	if err != nil {
		return nil, err
	}

	cards := make([]catalog.Card, len(pulls))
	for i, pull := range pulls {
		s.ledger.Record(pull.Card)
		cards[i] = pull.Card
	}
	s.tracker.RecordPackOpened(cards)

	if err := s.persist(ctx); err != nil {
		return nil, err
	}

	s.logger.Debug("pack opened", "cards", len(pulls))
	return pulls, nil
}

// CollectionView returns the ledger's entries, optionally filtered by
// rarity, in catalog number order. Malformed card numbers are reported
// alongside the (still sorted) view.
func (s *Session) CollectionView(rarity string) ([]collection.Entry, *collection.MalformedCardNumberError) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Query(rarity)
}

// Completion reports owned over total for catalog cards matching the rarity
// set; (0, 0) when nothing matches or no catalog is loaded.
func (s *Session) Completion(rarities map[string]bool) (owned, total int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.catalog == nil {
		return 0, 0
	}
	return s.ledger.CompletionRatio(s.catalog.Cards, rarities)
}

// Stats returns a copy of the aggregate counters.
func (s *Session) Stats() stats.Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tracker.Snapshot()
}

// Reset clears the ledger, the tracker and the persisted state. The loaded
// catalog survives a reset.
func (s *Session) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.ledger.Reset()
	s.tracker.Reset()

	if s.store != nil {
		if err := s.store.Clear(ctx); err != nil {
			return fmt.Errorf("failed to clear persisted state: %w", err)
		}
	}

	s.logger.Info("session reset")
	return nil
}

// persist writes both shapes back to the store. Caller holds the lock.
func (s *Session) persist(ctx context.Context) error {
	if s.store == nil {
		return nil
	}
	if err := s.store.SaveCollection(ctx, s.ledger.Snapshot()); err != nil {
		return fmt.Errorf("failed to persist collection: %w", err)
	}
	if err := s.store.SaveStats(ctx, s.tracker.Snapshot()); err != nil {
		return fmt.Errorf("failed to persist stats: %w", err)
	}
	return nil
}
