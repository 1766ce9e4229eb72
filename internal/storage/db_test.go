package storage

import (
	"context"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/boosterlab/packsim/internal/collection"
	"github.com/boosterlab/packsim/internal/stats"
)

// openTestDB opens a migrated file-backed database in a temp directory.
func openTestDB(t *testing.T) *DB {
	t.Helper()

	config := DefaultConfig(filepath.Join(t.TempDir(), "test.db"))
	config.AutoMigrate = true

	db, err := Open(config)
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}
	t.Cleanup(func() {
		if err := db.Close(); err != nil {
			t.Errorf("Error closing database: %v", err)
		}
	})
	return db
}

func TestOpenNilConfig(t *testing.T) {
	if _, err := Open(nil); err == nil {
		t.Fatal("expected error for nil config")
	}
}

func TestOpenInMemory(t *testing.T) {
	db, err := Open(DefaultConfig(":memory:"))
	if err != nil {
		t.Fatalf("failed to open in-memory database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			t.Errorf("Error closing database: %v", err)
		}
	}()

	if err := db.Ping(); err != nil {
		t.Errorf("Ping error: %v", err)
	}
}

func TestOpenRunsMigrations(t *testing.T) {
	db := openTestDB(t)

	// The initial migration creates all three tables.
	for _, table := range []string{"collection", "stats", "rarity_counts"} {
		var name string
		err := db.Conn().QueryRow(
			`SELECT name FROM sqlite_master WHERE type = 'table' AND name = ?`, table).Scan(&name)
		if err != nil {
			t.Errorf("table %q missing after migration: %v", table, err)
		}
	}
}

func TestStoreRoundTrip(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	entries := map[string]collection.Entry{
		"Sprout Imp1": {Name: "Sprout Imp", Number: "1", Rarity: "Common", Image: "img/1", Count: 2},
		"Frost Lynx2": {Name: "Frost Lynx", Number: "2", Rarity: "Uncommon", Image: "img/2", Count: 1},
	}
	st := stats.Stats{
		PacksOpened: 1,
		TotalCards:  3,
		Rarities:    map[string]int{"Common": 2, "Uncommon": 1},
	}

	if err := store.SaveCollection(ctx, entries); err != nil {
		t.Fatalf("SaveCollection error: %v", err)
	}
	if err := store.SaveStats(ctx, st); err != nil {
		t.Fatalf("SaveStats error: %v", err)
	}

	gotEntries, err := store.LoadCollection(ctx)
	if err != nil {
		t.Fatalf("LoadCollection error: %v", err)
	}
	if !reflect.DeepEqual(gotEntries, entries) {
		t.Errorf("loaded collection = %v, want %v", gotEntries, entries)
	}

	gotStats, err := store.LoadStats(ctx)
	if err != nil {
		t.Fatalf("LoadStats error: %v", err)
	}
	if !reflect.DeepEqual(gotStats, st) {
		t.Errorf("loaded stats = %+v, want %+v", gotStats, st)
	}
}

func TestStoreClear(t *testing.T) {
	db := openTestDB(t)
	store := NewStore(db)
	ctx := context.Background()

	entries := map[string]collection.Entry{
		"Sprout Imp1": {Name: "Sprout Imp", Number: "1", Rarity: "Common", Image: "img/1", Count: 2},
	}
	if err := store.SaveCollection(ctx, entries); err != nil {
		t.Fatalf("SaveCollection error: %v", err)
	}
	if err := store.SaveStats(ctx, stats.Stats{PacksOpened: 1, TotalCards: 2, Rarities: map[string]int{"Common": 2}}); err != nil {
		t.Fatalf("SaveStats error: %v", err)
	}

	if err := store.Clear(ctx); err != nil {
		t.Fatalf("Clear error: %v", err)
	}

	gotEntries, err := store.LoadCollection(ctx)
	if err != nil {
		t.Fatalf("LoadCollection error: %v", err)
	}
	if len(gotEntries) != 0 {
		t.Errorf("collection not empty after clear: %v", gotEntries)
	}

	gotStats, err := store.LoadStats(ctx)
	if err != nil {
		t.Fatalf("LoadStats error: %v", err)
	}
	if gotStats.PacksOpened != 0 || gotStats.TotalCards != 0 || len(gotStats.Rarities) != 0 {
		t.Errorf("stats not zeroed after clear: %+v", gotStats)
	}
}
