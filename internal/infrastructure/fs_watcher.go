package infrastructure

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

// FSWatcher reports file changes under a directory tree
type FSWatcher struct {
	root     string
	excluded map[string]bool
	watcher  *fsnotify.Watcher
	logger   *zap.Logger
}

// NewFSWatcher watches root and every subdirectory not named in excluded
func NewFSWatcher(root string, excluded []string, logger *zap.Logger) (*FSWatcher, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve watch root: %w", err)
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, fmt.Errorf("watch root unavailable: %w", err)
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}

	w := &FSWatcher{
		root:     absRoot,
		excluded: make(map[string]bool, len(excluded)),
		watcher:  watcher,
		logger:   logger,
	}
	for _, name := range excluded {
		w.excluded[name] = true
	}

	if err := w.addRecursive(absRoot, nil); err != nil {
		watcher.Close()
		return nil, err
	}
	return w, nil
}

// Root returns the absolute watched directory
func (w *FSWatcher) Root() string {
	return w.root
}

// Excluded reports whether a directory name is skipped
func (w *FSWatcher) Excluded(name string) bool {
	return w.excluded[name]
}

// Run delivers events to handle until ctx is cancelled. handle is called from
// a single goroutine.
func (w *FSWatcher) Run(ctx context.Context, handle func(domain.FileEvent)) error {
	defer w.watcher.Close()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Stopping file watcher")
			return nil

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			w.dispatch(event, handle)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Warn("File watcher error", zap.Error(err))
		}
	}
}

func (w *FSWatcher) dispatch(event fsnotify.Event, handle func(domain.FileEvent)) {
	path := filepath.Clean(event.Name)

	switch {
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		handle(domain.FileEvent{Path: path, Kind: domain.FileRemoved})

	case event.Has(fsnotify.Create):
		info, err := os.Stat(path)
		if err != nil {
			return
		}
		if !info.IsDir() {
			handle(domain.FileEvent{Path: path, Kind: domain.FileCreated})
			return
		}
		// Files moved in with a directory produce no events of their own.
		if err := w.addRecursive(path, handle); err != nil {
			w.logger.Warn("Failed to watch new directory", zap.String("path", path), zap.Error(err))
		}

	case event.Has(fsnotify.Write), event.Has(fsnotify.Chmod):
		handle(domain.FileEvent{Path: path, Kind: domain.FileModified})
	}
}

// addRecursive watches dir and its subdirectories. When handle is non-nil,
// every regular file found is reported as created.
func (w *FSWatcher) addRecursive(dir string, handle func(domain.FileEvent)) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == dir {
				return err
			}
			w.logger.Debug("Skipping unreadable path", zap.String("path", path), zap.Error(err))
			return nil
		}

		if d.IsDir() {
			if path != dir && w.excluded[d.Name()] {
				return filepath.SkipDir
			}
			if err := w.watcher.Add(path); err != nil {
				return fmt.Errorf("failed to watch %s: %w", path, err)
			}
			return nil
		}

		if handle != nil && d.Type().IsRegular() {
			handle(domain.FileEvent{Path: path, Kind: domain.FileCreated})
		}
		return nil
	})
}
