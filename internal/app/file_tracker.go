package app

import (
	"context"
	"errors"
	"io/fs"
	"path/filepath"
	"strings"
	"sync"

	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

// FileIndex maps tracked file paths to their fingerprints and back
type FileIndex struct {
	mu         sync.RWMutex
	hashByPath map[string]string
	pathByHash map[string]string
}

// NewFileIndex creates an empty index
func NewFileIndex() *FileIndex {
	return &FileIndex{
		hashByPath: make(map[string]string),
		pathByHash: make(map[string]string),
	}
}

// Add tracks path with hash. It reports false if path was already tracked.
func (i *FileIndex) Add(path, hash string) bool {
	i.mu.Lock()
	defer i.mu.Unlock()

	if _, ok := i.hashByPath[path]; ok {
		return false
	}
	// A copy carrying the same tag takes over the reverse entry.
	if previous, ok := i.pathByHash[hash]; ok {
		delete(i.hashByPath, previous)
	}
	i.hashByPath[path] = hash
	i.pathByHash[hash] = path
	return true
}

// RemoveByPath untracks path and returns its hash
func (i *FileIndex) RemoveByPath(path string) (string, bool) {
	i.mu.Lock()
	defer i.mu.Unlock()

	hash, ok := i.hashByPath[path]
	if !ok {
		return "", false
	}
	delete(i.hashByPath, path)
	if i.pathByHash[hash] == path {
		delete(i.pathByHash, hash)
	}
	return hash, true
}

// HashFor returns the hash tracked for path
func (i *FileIndex) HashFor(path string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	hash, ok := i.hashByPath[path]
	return hash, ok
}

// PathFor returns the path tracked for hash
func (i *FileIndex) PathFor(hash string) (string, bool) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	path, ok := i.pathByHash[hash]
	return path, ok
}

// PathsUnder returns the tracked paths inside dir
func (i *FileIndex) PathsUnder(dir string) []string {
	i.mu.RLock()
	defer i.mu.RUnlock()

	prefix := dir + string(filepath.Separator)
	var paths []string
	for path := range i.hashByPath {
		if strings.HasPrefix(path, prefix) {
			paths = append(paths, path)
		}
	}
	return paths
}

// Len returns the number of tracked paths
func (i *FileIndex) Len() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	return len(i.hashByPath)
}

// RecordDeleter forgets the decision record behind a fingerprint
type RecordDeleter interface {
	DeleteRecord(ctx context.Context, partialHash string, device domain.DeviceInfo) (bool, error)
}

// FileTracker keeps the index in step with tagged files on disk. When a
// tracked file disappears or loses its tag, its record is deleted so the
// download is no longer considered a duplicate.
type FileTracker struct {
	index   *FileIndex
	tagger  domain.MetadataTagger
	deleter RecordDeleter
	device  domain.DeviceInfo
	logger  *zap.Logger
}

// NewFileTracker creates a tracker with an empty index
func NewFileTracker(tagger domain.MetadataTagger, deleter RecordDeleter, device domain.DeviceInfo, logger *zap.Logger) *FileTracker {
	return &FileTracker{
		index:   NewFileIndex(),
		tagger:  tagger,
		deleter: deleter,
		device:  device,
		logger:  logger,
	}
}

// Index exposes the tracker's index
func (t *FileTracker) Index() *FileIndex {
	return t.index
}

// Seed tracks every tagged regular file under root, skipping directories
// whose name is in excluded. It returns the number of files tracked.
func (t *FileTracker) Seed(root string, excluded []string) (int, error) {
	skip := make(map[string]bool, len(excluded))
	for _, name := range excluded {
		skip[name] = true
	}

	root, err := filepath.Abs(root)
	if err != nil {
		return 0, err
	}

	count := 0
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			return nil
		}
		if d.IsDir() {
			if path != root && skip[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}
		if hash, ok := t.readTag(path); ok && t.index.Add(path, hash) {
			count++
		}
		return nil
	})
	return count, err
}

// Handle applies a single filesystem event
func (t *FileTracker) Handle(ctx context.Context, event domain.FileEvent) {
	path := normalizePath(event.Path)

	switch event.Kind {
	case domain.FileCreated:
		if hash, ok := t.readTag(path); ok && t.index.Add(path, hash) {
			t.logger.Info("Tracking tagged file", zap.String("path", path), zap.String("hash", hash))
		}

	case domain.FileModified:
		hash, ok := t.readTag(path)
		if ok {
			if t.index.Add(path, hash) {
				t.logger.Info("Tracking tagged file", zap.String("path", path), zap.String("hash", hash))
			}
			return
		}
		if tracked, wasTracked := t.index.RemoveByPath(path); wasTracked {
			t.logger.Info("Tag removed from tracked file", zap.String("path", path))
			t.forget(ctx, tracked)
		}

	case domain.FileRemoved:
		if tracked, wasTracked := t.index.RemoveByPath(path); wasTracked {
			t.logger.Info("Tracked file removed", zap.String("path", path))
			t.forget(ctx, tracked)
		}
		// A removed directory takes its tracked files with it.
		for _, child := range t.index.PathsUnder(path) {
			if tracked, ok := t.index.RemoveByPath(child); ok {
				t.logger.Info("Tracked file removed", zap.String("path", child))
				t.forget(ctx, tracked)
			}
		}
	}
}

func (t *FileTracker) readTag(path string) (string, bool) {
	hash, ok, err := t.tagger.Read(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			t.logger.Debug("Failed to read file tag", zap.String("path", path), zap.Error(err))
		}
		return "", false
	}
	return hash, ok
}

func (t *FileTracker) forget(ctx context.Context, hash string) {
	deleted, err := t.deleter.DeleteRecord(ctx, hash, t.device)
	if err != nil {
		t.logger.Warn("Failed to delete record", zap.String("hash", hash), zap.Error(err))
		return
	}
	if !deleted {
		t.logger.Info("No record found for hash", zap.String("hash", hash))
	}
}

func normalizePath(path string) string {
	if abs, err := filepath.Abs(path); err == nil {
		return abs
	}
	return filepath.Clean(path)
}
