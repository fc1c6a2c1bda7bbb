package infrastructure

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/reduce-go/internal/domain"
	"gorm.io/gorm"
)

func setupTestRepo(t *testing.T) (*SQLiteDownloadRepository, func()) {
	t.Helper()
	tmpDir, err := os.MkdirTemp("", "repo-test-*")
	require.NoError(t, err)

	dbPath := filepath.Join(tmpDir, "test.db")
	repo, err := NewSQLiteDownloadRepository(dbPath)
	require.NoError(t, err)

	cleanup := func() {
		repo.Close()
		os.RemoveAll(tmpDir)
	}
	return repo, cleanup
}

func newRecord(url, filename string, status domain.DownloadStatus) *domain.DownloadRecord {
	record := domain.NewDownloadRecord(url)
	record.Filename = filename
	record.Status = status
	return record
}

func TestCreate_RejectsDuplicateIDHash(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	first := newRecord("https://a.example/x.zip", "x.zip", domain.StatusCompleted)
	first.IDHash = domain.StringPtr("abc")
	require.NoError(t, repo.Create(first))

	second := newRecord("https://b.example/x.zip", "x.zip", domain.StatusCancelled)
	second.IDHash = domain.StringPtr("abc")
	err := repo.Create(second)
	require.Error(t, err)
	assert.ErrorIs(t, err, gorm.ErrDuplicatedKey)
}

func TestCreate_AllowsMultipleNullIDHashes(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	require.NoError(t, repo.Create(newRecord("https://a.example/1", "1", domain.StatusCompleted)))
	require.NoError(t, repo.Create(newRecord("https://a.example/2", "2", domain.StatusCompleted)))

	records, err := repo.FindAll()
	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestExistsByIDHash(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	record := newRecord("https://a.example/x.zip", "x.zip", domain.StatusCompleted)
	record.IDHash = domain.StringPtr("abc")
	require.NoError(t, repo.Create(record))

	found, err := repo.ExistsByIDHash("abc")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.ExistsByIDHash("def")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestExistsByAttributes_OnlySuppliedFieldsNarrow(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	record := newRecord("https://a.example/x.zip", "x.zip", domain.StatusCompleted)
	record.ContentLength = domain.Int64Ptr(1000)
	record.ETag = domain.StringPtr(`"v1"`)
	require.NoError(t, repo.Create(record))

	found, err := repo.ExistsByAttributes(domain.AttributeQuery{Filename: "x.zip"})
	require.NoError(t, err)
	assert.True(t, found, "filename alone matches")

	found, err = repo.ExistsByAttributes(domain.AttributeQuery{Filename: "x.zip", ContentLength: domain.Int64Ptr(1000)})
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.ExistsByAttributes(domain.AttributeQuery{Filename: "x.zip", ContentLength: domain.Int64Ptr(2000)})
	require.NoError(t, err)
	assert.False(t, found)

	found, err = repo.ExistsByAttributes(domain.AttributeQuery{Filename: "x.zip", ETag: domain.StringPtr(`"v2"`)})
	require.NoError(t, err)
	assert.False(t, found)

	found, err = repo.ExistsByAttributes(domain.AttributeQuery{Filename: "x.zip", LastModified: domain.StringPtr("Mon, 01 Jan 2024 00:00:00 GMT")})
	require.NoError(t, err)
	assert.False(t, found, "stored NULL never equals a supplied value")
}

func TestExistsByProvenance(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	record := newRecord("https://a.example/x.zip", "x.zip", domain.StatusCompleted)
	record.Referrer = "https://a.example/page"
	require.NoError(t, repo.Create(record))

	found, err := repo.ExistsByProvenance("https://a.example/x.zip", "https://a.example/page")
	require.NoError(t, err)
	assert.True(t, found)

	found, err = repo.ExistsByProvenance("https://a.example/x.zip", "https://other.example/")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestDeleteByPartialHash(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	deleted, err := repo.DeleteByPartialHash("missing")
	require.NoError(t, err)
	assert.False(t, deleted)

	accepted := newRecord("https://a.example/x.zip", "x.zip", domain.StatusCompleted)
	accepted.PartialHash = domain.StringPtr("feed")
	require.NoError(t, repo.Create(accepted))

	rejected := newRecord("https://a.example/x.zip", "x.zip", domain.StatusCancelled)
	rejected.PartialHash = domain.StringPtr("feed")
	require.NoError(t, repo.Create(rejected))

	deleted, err = repo.DeleteByPartialHash("feed")
	require.NoError(t, err)
	assert.True(t, deleted)

	records, err := repo.FindAll()
	require.NoError(t, err)
	require.Len(t, records, 1, "exactly one row removed")
	assert.Equal(t, rejected.UUID, records[0].UUID, "the accepted record is removed first")
}

func TestGetStats(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	a := newRecord("https://a.example/1", "1", domain.StatusCancelled)
	a.ContentLength = domain.Int64Ptr(100)
	b := newRecord("https://a.example/2", "2", domain.StatusCancelled)
	b.ContentLength = domain.Int64Ptr(250)
	c := newRecord("https://a.example/3", "3", domain.StatusCompleted)
	c.ContentLength = domain.Int64Ptr(9)
	d := newRecord("https://a.example/4", "4", domain.StatusCancelled)
	for _, r := range []*domain.DownloadRecord{a, b, c, d} {
		require.NoError(t, repo.Create(r))
	}

	stats, err := repo.GetStats(domain.StatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.Count)
	assert.Equal(t, int64(350), stats.TotalContentLength)

	stats, err = repo.GetStats(domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Count)
	assert.Equal(t, int64(9), stats.TotalContentLength)
}

func TestGetStats_Empty(t *testing.T) {
	repo, cleanup := setupTestRepo(t)
	defer cleanup()

	stats, err := repo.GetStats(domain.StatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Count)
	assert.Equal(t, int64(0), stats.TotalContentLength)
	assert.NoError(t, repo.Ping())
}
