package infrastructure

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

type eventRecorder struct {
	mu     sync.Mutex
	events []domain.FileEvent
}

func (r *eventRecorder) handle(ev domain.FileEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
}

func (r *eventRecorder) seen(path string, kind domain.FileEventKind) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, ev := range r.events {
		if ev.Path == path && ev.Kind == kind {
			return true
		}
	}
	return false
}

func startWatcher(t *testing.T, root string, excluded ...string) *eventRecorder {
	t.Helper()
	watcher, err := NewFSWatcher(root, excluded, zap.NewNop())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	recorder := &eventRecorder{}
	done := make(chan struct{})
	go func() {
		defer close(done)
		watcher.Run(ctx, recorder.handle)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})
	return recorder
}

func TestFSWatcher_CreateAndRemove(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	recorder := startWatcher(t, root)

	path := filepath.Join(root, "file.bin")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	assert.Eventually(t, func() bool { return recorder.seen(path, domain.FileCreated) }, 2*time.Second, 20*time.Millisecond)

	require.NoError(t, os.Remove(path))
	assert.Eventually(t, func() bool { return recorder.seen(path, domain.FileRemoved) }, 2*time.Second, 20*time.Millisecond)
}

func TestFSWatcher_RenameReportsBothSides(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	src := filepath.Join(root, "a.bin")
	require.NoError(t, os.WriteFile(src, []byte("data"), 0644))

	recorder := startWatcher(t, root)

	dst := filepath.Join(root, "b.bin")
	require.NoError(t, os.Rename(src, dst))
	assert.Eventually(t, func() bool {
		return recorder.seen(src, domain.FileRemoved) && recorder.seen(dst, domain.FileCreated)
	}, 2*time.Second, 20*time.Millisecond)
}

func TestFSWatcher_NewDirectoryIsWatched(t *testing.T) {
	root, err := filepath.EvalSymlinks(t.TempDir())
	require.NoError(t, err)
	recorder := startWatcher(t, root)

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0755))
	// Give the watcher a moment to register the new directory.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(sub, "nested.bin")
	require.NoError(t, os.WriteFile(path, []byte("data"), 0644))
	assert.Eventually(t, func() bool { return recorder.seen(path, domain.FileCreated) }, 2*time.Second, 20*time.Millisecond)
}

func TestNewFSWatcher_MissingRoot(t *testing.T) {
	_, err := NewFSWatcher(filepath.Join(t.TempDir(), "missing"), nil, zap.NewNop())
	assert.Error(t, err)
}

func TestFSWatcher_Excluded(t *testing.T) {
	watcher, err := NewFSWatcher(t.TempDir(), []string{".git"}, zap.NewNop())
	require.NoError(t, err)
	defer watcher.watcher.Close()

	assert.True(t, watcher.Excluded(".git"))
	assert.False(t, watcher.Excluded("src"))
}
