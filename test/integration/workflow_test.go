//go:build integration

package integration

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/yourusername/reduce-go/api"
	"github.com/yourusername/reduce-go/internal/app"
	"github.com/yourusername/reduce-go/internal/domain"
	"github.com/yourusername/reduce-go/internal/infrastructure"
	"github.com/yourusername/reduce-go/internal/telemetry"
)

// fileRunner stands in for wget by writing body to the -O path
type fileRunner struct {
	body []byte
}

func (r *fileRunner) LookPath(tool string) (string, error) {
	return "/usr/bin/" + tool, nil
}

func (r *fileRunner) Run(ctx context.Context, tool string, args []string) error {
	for i, arg := range args {
		if arg == "-O" && i+1 < len(args) {
			return os.WriteFile(args[i+1], r.body, 0644)
		}
	}
	return nil
}

type mapTagger struct {
	mu   sync.Mutex
	tags map[string]string
}

func (m *mapTagger) Tag(path, hash string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tags[path] = hash
	return nil
}

func (m *mapTagger) Read(path string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, err := os.Stat(path); err != nil {
		return "", false, err
	}
	hash, ok := m.tags[path]
	return hash, ok, nil
}

type silentNotifier struct{}

func (silentNotifier) NotifyDuplicatePaused(string)        {}
func (silentNotifier) NotifyDownloadCancelled(string)      {}
func (silentNotifier) NotifyDownloadCompleted(string)      {}
func (silentNotifier) NotifyDownloadFailed(string, error) {}

type environment struct {
	origin *httptest.Server
	client *infrastructure.DecisionClient
	flow   *app.DownloadFlow
	tagger *mapTagger
	dir    string
}

func setupEnvironment(t *testing.T) *environment {
	t.Helper()
	dir := t.TempDir()

	body := bytes.Repeat([]byte("0123456789abcdef"), 128*1024) // 2 MiB
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.ServeContent(w, r, "payload.bin", time.Time{}, bytes.NewReader(body))
	}))
	t.Cleanup(origin.Close)

	repo, err := infrastructure.NewSQLiteDownloadRepository(filepath.Join(dir, "downloads.db"))
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })

	tel, err := telemetry.New(telemetry.Config{Enabled: false})
	require.NoError(t, err)

	store := infrastructure.NewInstrumentedDownloadRepository(repo, tel)
	decisionServer := httptest.NewServer(api.SetupRouter(api.RouterDeps{
		Classifier: app.NewClassifier(store, tel, zap.NewNop()),
		Store:      store,
		Device:     domain.DeviceInfo{DeviceName: "server"},
		Telemetry:  tel,
		Logger:     zap.NewNop(),
	}))
	t.Cleanup(decisionServer.Close)

	client := infrastructure.NewDecisionClient(decisionServer.URL, 5*time.Second, zap.NewNop())
	engine := infrastructure.NewFingerprintEngine(&domain.FingerprintConfig{
		HeadTimeout:   5 * time.Second,
		SampleTimeout: 5 * time.Second,
	}, zap.NewNop())
	tagger := &mapTagger{tags: make(map[string]string)}

	flow := app.NewDownloadFlow(engine, client, &fileRunner{body: body}, tagger, silentNotifier{},
		func() domain.DeviceInfo { return domain.DeviceInfo{DeviceName: "client"} },
		zap.NewNop())

	return &environment{origin: origin, client: client, flow: flow, tagger: tagger, dir: dir}
}

func TestWorkflow_SecondDownloadIsPaused(t *testing.T) {
	env := setupEnvironment(t)
	ctx := context.Background()
	url := env.origin.URL + "/files/payload.bin"

	require.NoError(t, os.MkdirAll(filepath.Join(env.dir, "first"), 0755))
	first, err := env.flow.Run(ctx, "wget", []string{url, "-O", filepath.Join(env.dir, "first", "payload.bin")})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionProceed, first.Action)
	assert.Len(t, first.Hash, 64)
	assert.FileExists(t, first.OutputPath)

	hash, ok, err := env.tagger.Read(first.OutputPath)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, first.Hash, hash)

	second, err := env.flow.Run(ctx, "wget", []string{url, "-O", filepath.Join(env.dir, "second", "payload.bin")})
	require.NoError(t, err)
	assert.Equal(t, domain.ActionPause, second.Action)
	assert.Equal(t, first.Hash, second.Hash)
	assert.NoFileExists(t, second.OutputPath)

	// Same name and size: the duplicate shares the stored id_hash and is not
	// inserted again.
	records, err := env.client.ListDownloads(ctx)
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, domain.StatusCompleted, records[0].Status)
}

func TestWorkflow_DeletingFileForgetsRecord(t *testing.T) {
	env := setupEnvironment(t)
	ctx := context.Background()
	url := env.origin.URL + "/files/payload.bin"

	outcome, err := env.flow.Run(ctx, "wget", []string{url, "-O", filepath.Join(env.dir, "a.bin")})
	require.NoError(t, err)
	require.Equal(t, domain.ActionProceed, outcome.Action)

	tracker := app.NewFileTracker(env.tagger, env.client, domain.DeviceInfo{DeviceName: "client"}, zap.NewNop())
	n, err := tracker.Seed(env.dir, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, os.Remove(outcome.OutputPath))
	tracker.Handle(ctx, domain.FileEvent{Path: outcome.OutputPath, Kind: domain.FileRemoved})

	completed, err := env.client.Stats(ctx, domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(0), completed.Count)
	assert.Equal(t, 0, tracker.Index().Len())
}
