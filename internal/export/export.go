// Package export writes collection and stats views to CSV or JSON.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/boosterlab/packsim/internal/collection"
	"github.com/boosterlab/packsim/internal/stats"
)

// Format represents the export format.
type Format string

const (
	// FormatCSV represents CSV export format.
	FormatCSV Format = "csv"
	// FormatJSON represents JSON export format.
	FormatJSON Format = "json"
)

// Options holds configuration for export operations.
type Options struct {
	Format     Format
	FilePath   string
	PrettyJSON bool
	Overwrite  bool
}

// Exporter writes collection and stats data in the configured format.
type Exporter struct {
	opts Options
}

// NewExporter creates a new Exporter with the given options.
func NewExporter(opts Options) *Exporter {
	return &Exporter{opts: opts}
}

// Collection exports collection entries to the configured file.
func (e *Exporter) Collection(entries []collection.Entry) (err error) {
	file, err := e.createFile()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return WriteCollection(file, e.opts.Format, entries, e.opts.PrettyJSON)
}

// Stats exports the stats record to the configured file.
func (e *Exporter) Stats(s stats.Stats) (err error) {
	file, err := e.createFile()
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return WriteStats(file, e.opts.Format, s, e.opts.PrettyJSON)
}

// WriteCollection writes collection entries to a writer. Useful for stdout.
func WriteCollection(w io.Writer, format Format, entries []collection.Entry, pretty bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, entries, pretty)
	case FormatCSV:
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"name", "number", "rarity", "count"}); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		for i, entry := range entries {
			row := []string{entry.Name, entry.Number, entry.Rarity, strconv.Itoa(entry.Count)}
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row %d: %w", i, err)
			}
		}
		writer.Flush()
		return writer.Error()
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

// WriteStats writes the stats record to a writer.
func WriteStats(w io.Writer, format Format, s stats.Stats, pretty bool) error {
	switch format {
	case FormatJSON:
		return writeJSON(w, s, pretty)
	case FormatCSV:
		writer := csv.NewWriter(w)
		if err := writer.Write([]string{"metric", "value"}); err != nil {
			return fmt.Errorf("failed to write CSV header: %w", err)
		}
		rows := [][]string{
			{"packs_opened", strconv.Itoa(s.PacksOpened)},
			{"total_cards", strconv.Itoa(s.TotalCards)},
		}
		rarities := make([]string, 0, len(s.Rarities))
		for rarity := range s.Rarities {
			rarities = append(rarities, rarity)
		}
		sort.Strings(rarities)
		for _, rarity := range rarities {
			rows = append(rows, []string{"rarity:" + rarity, strconv.Itoa(s.Rarities[rarity])})
		}
		for i, row := range rows {
			if err := writer.Write(row); err != nil {
				return fmt.Errorf("failed to write CSV row %d: %w", i, err)
			}
		}
		writer.Flush()
		return writer.Error()
	default:
		return fmt.Errorf("unsupported export format: %s", format)
	}
}

func writeJSON(w io.Writer, data any, pretty bool) error {
	encoder := json.NewEncoder(w)
	if pretty {
		encoder.SetIndent("", "  ")
	}
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}

// createFile creates the output file, honoring the overwrite setting.
func (e *Exporter) createFile() (*os.File, error) {
	dir := filepath.Dir(e.opts.FilePath)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	if _, err := os.Stat(e.opts.FilePath); err == nil && !e.opts.Overwrite {
		return nil, fmt.Errorf("file already exists: %s (use overwrite option to replace)", e.opts.FilePath)
	}

	file, err := os.Create(e.opts.FilePath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return file, nil
}

// GenerateFilename generates a default filename for an export.
func GenerateFilename(exportType string, format Format) string {
	timestamp := time.Now().Format("20060102_150405")
	return fmt.Sprintf("%s_%s.%s", exportType, timestamp, format)
}
