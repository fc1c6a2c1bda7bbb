package app

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

type memoryTagger struct {
	mu   sync.Mutex
	tags map[string]string
}

func newMemoryTagger() *memoryTagger {
	return &memoryTagger{tags: make(map[string]string)}
}

func (m *memoryTagger) Tag(path, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[path] = hash
	return nil
}

func (m *memoryTagger) Read(path string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := os.Stat(path); err != nil {
		return "", false, err
	}
	hash, ok := m.tags[path]
	return hash, ok, nil
}

func (m *memoryTagger) untag(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tags, path)
}

type recordingDeleter struct {
	hashes []string
}

func (r *recordingDeleter) DeleteRecord(ctx context.Context, partialHash string, device domain.DeviceInfo) (bool, error) {
	r.hashes = append(r.hashes, partialHash)
	return true, nil
}

func writeFile(t *testing.T, path string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
}

func TestFileIndex_Bidirectional(t *testing.T) {
	index := NewFileIndex()

	assert.True(t, index.Add("/a", "h1"))
	assert.False(t, index.Add("/a", "h1"), "already tracked")

	path, ok := index.PathFor("h1")
	assert.True(t, ok)
	assert.Equal(t, "/a", path)

	hash, ok := index.HashFor("/a")
	assert.True(t, ok)
	assert.Equal(t, "h1", hash)

	hash, ok = index.RemoveByPath("/a")
	assert.True(t, ok)
	assert.Equal(t, "h1", hash)

	_, ok = index.PathFor("h1")
	assert.False(t, ok)
	assert.Equal(t, 0, index.Len())

	_, ok = index.RemoveByPath("/a")
	assert.False(t, ok)
}

func TestFileIndex_SameHashMovesReverseEntry(t *testing.T) {
	index := NewFileIndex()
	index.Add("/a", "h1")
	index.Add("/b", "h1")

	path, _ := index.PathFor("h1")
	assert.Equal(t, "/b", path)
	assert.Equal(t, 1, index.Len())
}

func TestFileIndex_PathsUnder(t *testing.T) {
	index := NewFileIndex()
	sep := string(filepath.Separator)
	index.Add(sep+filepath.Join("d", "a"), "h1")
	index.Add(sep+filepath.Join("d", "sub", "b"), "h2")
	index.Add(sep+filepath.Join("dd", "c"), "h3")

	assert.ElementsMatch(t,
		[]string{sep + filepath.Join("d", "a"), sep + filepath.Join("d", "sub", "b")},
		index.PathsUnder(sep+"d"))
}

func TestFileTracker_Seed(t *testing.T) {
	root := t.TempDir()
	tagger := newMemoryTagger()

	tagged := filepath.Join(root, "tagged.bin")
	writeFile(t, tagged)
	tagger.Tag(tagged, "h1")
	writeFile(t, filepath.Join(root, "plain.bin"))

	hidden := filepath.Join(root, ".git", "obj.bin")
	writeFile(t, hidden)
	tagger.Tag(hidden, "h2")

	tracker := NewFileTracker(tagger, &recordingDeleter{}, domain.DeviceInfo{}, zap.NewNop())
	count, err := tracker.Seed(root, []string{".git"})
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	_, ok := tracker.Index().HashFor(tagged)
	assert.True(t, ok)
}

func TestFileTracker_RemovedTrackedFileDeletesRecord(t *testing.T) {
	root := t.TempDir()
	tagger := newMemoryTagger()
	deleter := &recordingDeleter{}
	tracker := NewFileTracker(tagger, deleter, domain.DeviceInfo{}, zap.NewNop())

	path := filepath.Join(root, "file.bin")
	writeFile(t, path)
	tagger.Tag(path, "h1")

	tracker.Handle(context.Background(), domain.FileEvent{Path: path, Kind: domain.FileCreated})
	assert.Equal(t, 1, tracker.Index().Len())

	require.NoError(t, os.Remove(path))
	tracker.Handle(context.Background(), domain.FileEvent{Path: path, Kind: domain.FileRemoved})

	assert.Equal(t, []string{"h1"}, deleter.hashes)
	assert.Equal(t, 0, tracker.Index().Len())
}

func TestFileTracker_UntaggedFileDeletesRecord(t *testing.T) {
	root := t.TempDir()
	tagger := newMemoryTagger()
	deleter := &recordingDeleter{}
	tracker := NewFileTracker(tagger, deleter, domain.DeviceInfo{}, zap.NewNop())

	path := filepath.Join(root, "file.bin")
	writeFile(t, path)
	tagger.Tag(path, "h1")
	tracker.Handle(context.Background(), domain.FileEvent{Path: path, Kind: domain.FileModified})
	assert.Equal(t, 1, tracker.Index().Len())

	tagger.untag(path)
	tracker.Handle(context.Background(), domain.FileEvent{Path: path, Kind: domain.FileModified})

	assert.Equal(t, []string{"h1"}, deleter.hashes)
	assert.Equal(t, 0, tracker.Index().Len())
}

func TestFileTracker_MoveTracksDestination(t *testing.T) {
	root := t.TempDir()
	tagger := newMemoryTagger()
	deleter := &recordingDeleter{}
	tracker := NewFileTracker(tagger, deleter, domain.DeviceInfo{}, zap.NewNop())

	src := filepath.Join(root, "a.bin")
	dst := filepath.Join(root, "b.bin")
	writeFile(t, src)
	tagger.Tag(src, "h1")
	tracker.Handle(context.Background(), domain.FileEvent{Path: src, Kind: domain.FileCreated})

	require.NoError(t, os.Rename(src, dst))
	tagger.Tag(dst, "h1")
	tracker.Handle(context.Background(), domain.FileEvent{Path: src, Kind: domain.FileRemoved})
	tracker.Handle(context.Background(), domain.FileEvent{Path: dst, Kind: domain.FileCreated})

	assert.Equal(t, []string{"h1"}, deleter.hashes, "a move away requests deletion")
	path, ok := tracker.Index().PathFor("h1")
	assert.True(t, ok)
	assert.Equal(t, dst, path)
}

func TestFileTracker_RemovedDirectory(t *testing.T) {
	root := t.TempDir()
	tagger := newMemoryTagger()
	deleter := &recordingDeleter{}
	tracker := NewFileTracker(tagger, deleter, domain.DeviceInfo{}, zap.NewNop())

	dir := filepath.Join(root, "dir")
	a := filepath.Join(dir, "a.bin")
	b := filepath.Join(dir, "nested", "b.bin")
	writeFile(t, a)
	writeFile(t, b)
	tagger.Tag(a, "h1")
	tagger.Tag(b, "h2")
	_, err := tracker.Seed(root, nil)
	require.NoError(t, err)

	tracker.Handle(context.Background(), domain.FileEvent{Path: dir, Kind: domain.FileRemoved})
	assert.ElementsMatch(t, []string{"h1", "h2"}, deleter.hashes)
	assert.Equal(t, 0, tracker.Index().Len())
}

func TestFileTracker_UntrackedEventsAreIgnored(t *testing.T) {
	root := t.TempDir()
	deleter := &recordingDeleter{}
	tracker := NewFileTracker(newMemoryTagger(), deleter, domain.DeviceInfo{}, zap.NewNop())

	path := filepath.Join(root, "plain.bin")
	writeFile(t, path)
	tracker.Handle(context.Background(), domain.FileEvent{Path: path, Kind: domain.FileCreated})
	tracker.Handle(context.Background(), domain.FileEvent{Path: path, Kind: domain.FileModified})
	tracker.Handle(context.Background(), domain.FileEvent{Path: path, Kind: domain.FileRemoved})

	assert.Empty(t, deleter.hashes)
	assert.Equal(t, 0, tracker.Index().Len())
}

