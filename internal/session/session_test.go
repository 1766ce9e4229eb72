package session

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/boosterlab/packsim/internal/catalog"
	"github.com/boosterlab/packsim/internal/collection"
	"github.com/boosterlab/packsim/internal/pack"
	"github.com/boosterlab/packsim/internal/stats"
)

// memStore is an in-memory Store for session tests.
type memStore struct {
	entries  map[string]collection.Entry
	stats    stats.Stats
	loadErr  error
	saveErr  error
	clearErr error
	saves    int
}

func newMemStore() *memStore {
	return &memStore{entries: make(map[string]collection.Entry)}
}

func (m *memStore) LoadCollection(ctx context.Context) (map[string]collection.Entry, error) {
	if m.loadErr != nil {
		return nil, m.loadErr
	}
	out := make(map[string]collection.Entry, len(m.entries))
	for k, v := range m.entries {
		out[k] = v
	}
	return out, nil
}

func (m *memStore) SaveCollection(ctx context.Context, entries map[string]collection.Entry) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.entries = entries
	m.saves++
	return nil
}

func (m *memStore) LoadStats(ctx context.Context) (stats.Stats, error) {
	if m.loadErr != nil {
		return stats.Stats{}, m.loadErr
	}
	return m.stats, nil
}

func (m *memStore) SaveStats(ctx context.Context, s stats.Stats) error {
	if m.saveErr != nil {
		return m.saveErr
	}
	m.stats = s
	return nil
}

func (m *memStore) Clear(ctx context.Context) error {
	if m.clearErr != nil {
		return m.clearErr
	}
	m.entries = make(map[string]collection.Entry)
	m.stats = stats.Stats{}
	return nil
}

func testCatalog() *catalog.Catalog {
	cards := []catalog.Card{}
	add := func(name, number, rarity string) {
		cards = append(cards, catalog.Card{Name: name, Number: number, Rarity: rarity, Image: "img/" + number})
	}
	add("Sprout Imp", "1", pack.RarityCommon)
	add("Ember Cub", "2", pack.RarityCommon)
	add("Tide Snail", "3", pack.RarityCommon)
	add("Pebble Golem", "4", pack.RarityCommon)
	add("Gale Finch", "5", pack.RarityCommon)
	add("Frost Lynx", "6", pack.RarityUncommon)
	add("Bog Serpent", "7", pack.RarityUncommon)
	add("Spark Djinn", "8", pack.RarityUncommon)
	add("Dune Colossus", "9", pack.RarityRare)
	add("Abyss Warden", "10", pack.RarityRare)
	return &catalog.Catalog{SetName: "Test Set", Cards: cards}
}

func newTestSession(t *testing.T, store Store) *Session {
	t.Helper()
	s, err := New(context.Background(), Options{
		Template: pack.Classic(),
		Rand:     rand.New(rand.NewSource(11)),
		Store:    store,
	})
	require.NoError(t, err)
	return s
}

func TestNewRejectsInvalidTemplate(t *testing.T) {
	_, err := New(context.Background(), Options{Template: pack.Template{Name: "empty"}})
	assert.Error(t, err)
}

func TestOpenPackBeforeCatalogLoad(t *testing.T) {
	s := newTestSession(t, nil)

	_, err := s.OpenPack(context.Background())
	assert.ErrorIs(t, err, pack.ErrEmptyCatalog)
}

func TestOpenPackAccumulates(t *testing.T) {
	s := newTestSession(t, nil)
	s.LoadCatalog(testCatalog())

	packSize := s.Template().Size()
	const packs = 3
	for i := 0; i < packs; i++ {
		pulls, err := s.OpenPack(context.Background())
		require.NoError(t, err)
		require.Len(t, pulls, packSize)
	}

	st := s.Stats()
	assert.Equal(t, packs, st.PacksOpened)
	assert.Equal(t, packs*packSize, st.TotalCards)

	entries, malformed := s.CollectionView("")
	assert.Nil(t, malformed)

	totalCount := 0
	for _, entry := range entries {
		totalCount += entry.Count
	}
	assert.Equal(t, packs*packSize, totalCount, "per-card counts sum to every drawn card")
}

func TestOpenPackDuplicateIncrementsCount(t *testing.T) {
	// A single-card catalog forces every pull onto one identity, so two
	// packs drive that identity's count to exactly 2*packSize while the
	// collection still holds one entry.
	cat := &catalog.Catalog{Cards: []catalog.Card{
		{Name: "Only Card", Number: "1", Rarity: pack.RarityCommon, Image: "img/1"},
	}}
	tmpl := pack.Template{Name: "single", Slots: []pack.Slot{{Rarity: pack.RarityCommon}}}

	s, err := New(context.Background(), Options{
		Template: tmpl,
		Rand:     rand.New(rand.NewSource(1)),
	})
	require.NoError(t, err)
	s.LoadCatalog(cat)

	for i := 0; i < 2; i++ {
		_, err := s.OpenPack(context.Background())
		require.NoError(t, err)
	}

	entries, _ := s.CollectionView("")
	require.Len(t, entries, 1)
	assert.Equal(t, 2, entries[0].Count)
	assert.Equal(t, 2, s.Stats().TotalCards)
}

func TestSessionPersistsAfterOpen(t *testing.T) {
	store := newMemStore()
	s := newTestSession(t, store)
	s.LoadCatalog(testCatalog())

	_, err := s.OpenPack(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, store.saves)
	assert.Equal(t, 1, store.stats.PacksOpened)
	assert.NotEmpty(t, store.entries)
}

func TestSessionHydratesFromStore(t *testing.T) {
	store := newMemStore()
	store.entries["Sprout Imp1"] = collection.Entry{
		Name: "Sprout Imp", Number: "1", Rarity: pack.RarityCommon, Image: "img/1", Count: 4,
	}
	store.stats = stats.Stats{
		PacksOpened: 2,
		TotalCards:  4,
		Rarities:    map[string]int{pack.RarityCommon: 4},
	}

	s := newTestSession(t, store)

	entries, _ := s.CollectionView("")
	require.Len(t, entries, 1)
	assert.Equal(t, 4, entries[0].Count)
	assert.Equal(t, 2, s.Stats().PacksOpened)
}

func TestNewFailsWhenHydrationFails(t *testing.T) {
	store := newMemStore()
	store.loadErr = errors.New("disk gone")

	_, err := New(context.Background(), Options{
		Template: pack.Classic(),
		Store:    store,
	})
	assert.Error(t, err)
}

func TestOpenPackSurfacesPersistError(t *testing.T) {
	store := newMemStore()
	s := newTestSession(t, store)
	s.LoadCatalog(testCatalog())

	store.saveErr = errors.New("disk full")
	_, err := s.OpenPack(context.Background())
	assert.Error(t, err)
}

func TestCompletion(t *testing.T) {
	s := newTestSession(t, nil)

	owned, total := s.Completion(nil)
	assert.Zero(t, owned)
	assert.Zero(t, total, "no catalog loaded")

	cat := testCatalog()
	s.LoadCatalog(cat)

	_, total = s.Completion(nil)
	assert.Equal(t, cat.Size(), total)

	_, err := s.OpenPack(context.Background())
	require.NoError(t, err)

	owned, _ = s.Completion(nil)
	assert.Greater(t, owned, 0)
}

func TestResetClearsStateAndStore(t *testing.T) {
	store := newMemStore()
	s := newTestSession(t, store)
	cat := testCatalog()
	s.LoadCatalog(cat)

	_, err := s.OpenPack(context.Background())
	require.NoError(t, err)
	require.NoError(t, s.Reset(context.Background()))

	assert.Zero(t, s.Stats().PacksOpened)
	entries, _ := s.CollectionView("")
	assert.Empty(t, entries)
	assert.Empty(t, store.entries)

	// The catalog survives a reset.
	assert.Equal(t, cat, s.Catalog())
	_, err = s.OpenPack(context.Background())
	assert.NoError(t, err)
}

func TestLoadCatalogReplacesPools(t *testing.T) {
	s := newTestSession(t, nil)
	s.LoadCatalog(testCatalog())

	// A replacement catalog with one identity pins every later draw.
	replacement := &catalog.Catalog{SetName: "Second Set", Cards: []catalog.Card{
		{Name: "Only Card", Number: "1", Rarity: pack.RarityCommon, Image: "img/1"},
	}}
	s.LoadCatalog(replacement)

	pulls, err := s.OpenPack(context.Background())
	require.NoError(t, err)
	for _, pull := range pulls {
		assert.Equal(t, "Only Card", pull.Card.Name)
	}
}
