package loader

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/boosterlab/packsim/internal/catalog"
)

// Watcher reloads a file-backed catalog whenever the file changes and hands
// the freshly parsed catalog to a callback. A reload that fails validation
// is logged and dropped; the previously loaded catalog stays in force.
type Watcher struct {
	path    string
	loader  *Loader
	watcher *fsnotify.Watcher
	logger  *slog.Logger
}

// NewWatcher creates a watcher for the given catalog file.
func NewWatcher(path string, loader *Loader, logger *slog.Logger) (*Watcher, error) {
	if logger == nil {
		logger = slog.Default()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	// Watch the directory, not the file: editors replace files by rename
	// and a watch on the old inode goes quiet.
	if err := fw.Add(filepath.Dir(path)); err != nil {
		if closeErr := fw.Close(); closeErr != nil {
			return nil, fmt.Errorf("failed to close watcher after error: %w (original error: %v)", closeErr, err)
		}
		return nil, fmt.Errorf("failed to watch catalog directory: %w", err)
	}

	return &Watcher{path: path, loader: loader, watcher: fw, logger: logger}, nil
}

// Run blocks, invoking onReload with each successfully reloaded catalog,
// until the context is canceled.
func (w *Watcher) Run(ctx context.Context, onReload func(*catalog.Catalog)) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(w.path) {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}

			cat, err := w.loader.Load(ctx, w.path)
			if err != nil {
				w.logger.Warn("catalog reload failed, keeping previous catalog",
					"path", w.path, "error", err)
				continue
			}
			w.logger.Info("catalog reloaded", "path", w.path, "cards", cat.Size())
			onReload(cat)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("catalog watcher error", "error", err)
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.watcher.Close()
}
