package export

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/boosterlab/packsim/internal/collection"
	"github.com/boosterlab/packsim/internal/stats"
)

func testEntries() []collection.Entry {
	return []collection.Entry{
		{Name: "Sprout Imp", Number: "1", Rarity: "Common", Image: "img/1", Count: 3},
		{Name: "Dune Colossus", Number: "9", Rarity: "Rare", Image: "img/9", Count: 1},
	}
}

func testStats() stats.Stats {
	return stats.Stats{
		PacksOpened: 2,
		TotalCards:  20,
		Rarities:    map[string]int{"Common": 14, "Uncommon": 4, "Rare": 2},
	}
}

func TestWriteCollectionCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCollection(&buf, FormatCSV, testEntries(), false); err != nil {
		t.Fatalf("WriteCollection error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to read CSV back: %v", err)
	}

	want := [][]string{
		{"name", "number", "rarity", "count"},
		{"Sprout Imp", "1", "Common", "3"},
		{"Dune Colossus", "9", "Rare", "1"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("CSV records = %v, want %v", records, want)
	}
}

func TestWriteCollectionJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCollection(&buf, FormatJSON, testEntries(), true); err != nil {
		t.Fatalf("WriteCollection error: %v", err)
	}

	var decoded []collection.Entry
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(decoded, testEntries()) {
		t.Errorf("decoded = %v, want %v", decoded, testEntries())
	}
	if !strings.Contains(buf.String(), "\n  ") {
		t.Error("pretty output not indented")
	}
}

func TestWriteStatsCSV(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStats(&buf, FormatCSV, testStats(), false); err != nil {
		t.Fatalf("WriteStats error: %v", err)
	}

	records, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("failed to read CSV back: %v", err)
	}

	// Counters first, then rarity rows in sorted order.
	want := [][]string{
		{"metric", "value"},
		{"packs_opened", "2"},
		{"total_cards", "20"},
		{"rarity:Common", "14"},
		{"rarity:Rare", "2"},
		{"rarity:Uncommon", "4"},
	}
	if !reflect.DeepEqual(records, want) {
		t.Errorf("CSV records = %v, want %v", records, want)
	}
}

func TestWriteStatsJSON(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteStats(&buf, FormatJSON, testStats(), false); err != nil {
		t.Fatalf("WriteStats error: %v", err)
	}

	var decoded stats.Stats
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if !reflect.DeepEqual(decoded, testStats()) {
		t.Errorf("decoded = %+v, want %+v", decoded, testStats())
	}
}

func TestWriteUnsupportedFormat(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteCollection(&buf, Format("xml"), nil, false); err == nil {
		t.Error("WriteCollection accepted an unsupported format")
	}
	if err := WriteStats(&buf, Format("xml"), stats.Stats{}, false); err == nil {
		t.Error("WriteStats accepted an unsupported format")
	}
}

func TestExporterWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "collection.csv")
	exporter := NewExporter(Options{Format: FormatCSV, FilePath: path})

	if err := exporter.Collection(testEntries()); err != nil {
		t.Fatalf("Collection error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read export: %v", err)
	}
	if !strings.HasPrefix(string(data), "name,number,rarity,count\n") {
		t.Errorf("unexpected file content: %q", data)
	}
}

func TestExporterRefusesToOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "stats.json")
	if err := os.WriteFile(path, []byte("old"), 0o644); err != nil {
		t.Fatalf("failed to seed file: %v", err)
	}

	exporter := NewExporter(Options{Format: FormatJSON, FilePath: path})
	if err := exporter.Stats(testStats()); err == nil {
		t.Fatal("expected overwrite refusal")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read file: %v", err)
	}
	if string(data) != "old" {
		t.Error("existing file was clobbered")
	}

	// With Overwrite set the export goes through.
	exporter = NewExporter(Options{Format: FormatJSON, FilePath: path, Overwrite: true})
	if err := exporter.Stats(testStats()); err != nil {
		t.Fatalf("Stats with overwrite error: %v", err)
	}
}

func TestGenerateFilename(t *testing.T) {
	name := GenerateFilename("collection", FormatCSV)
	if !strings.HasPrefix(name, "collection_") || !strings.HasSuffix(name, ".csv") {
		t.Errorf("GenerateFilename = %q", name)
	}
}
