package app

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yourusername/reduce-go/internal/domain"
)

func validRequest() *domain.DecisionRequest {
	hash := "abc123"
	return &domain.DecisionRequest{
		ID: "req-1",
		Data: &domain.DecisionData{
			DownloadMetaData: map[string]interface{}{
				"url":      "https://cdn.example.com/files/archive.zip?token=1",
				"finalUrl": "https://cdn.example.com/files/archive.zip/",
				"referrer": "https://example.com/downloads",
			},
			FetchedCompleteMetadata: map[string]interface{}{
				"content-length": "1000",
				"content-type":   "application/zip",
				"etag":           `"v1"`,
				"last-modified":  "Mon, 01 Jan 2024 00:00:00 GMT",
			},
			FileDetails: map[string]interface{}{
				"downloadFileName": "archive.zip",
				"domain":           "cdn.example.com",
			},
			PartialHash: &hash,
			DeviceInfo:  &domain.DeviceInfo{DeviceID: "dev-1", DeviceName: "laptop"},
		},
	}
}

func TestBuildRecord(t *testing.T) {
	r, err := BuildRecord(validRequest())
	require.NoError(t, err)

	assert.NotEmpty(t, r.UUID)
	assert.Equal(t, "https://cdn.example.com/files/archive.zip?token=1", r.URL)
	assert.Equal(t, "https://example.com/downloads", r.Referrer)
	assert.Equal(t, "/files/archive.zip", r.NormalizedPath)
	assert.Equal(t, "archive.zip", r.Filename)
	assert.Equal(t, "cdn.example.com", r.Domain)
	require.NotNil(t, r.ContentLength)
	assert.Equal(t, int64(1000), *r.ContentLength)
	assert.Equal(t, IDHash("archive.zip", 1000), domain.Deref(r.IDHash))
	assert.Equal(t, `"v1"`, domain.Deref(r.ETag))
	assert.Equal(t, "abc123", domain.Deref(r.PartialHash))
	assert.Nil(t, r.ContentDisposition)
	assert.Equal(t, "dev-1", r.DeviceID)
	assert.Equal(t, domain.UnknownValue, r.MACAddress)
}

func TestBuildRecord_NumericContentLength(t *testing.T) {
	req := validRequest()
	req.Data.FetchedCompleteMetadata["content-length"] = float64(2048)

	r, err := BuildRecord(req)
	require.NoError(t, err)
	require.NotNil(t, r.ContentLength)
	assert.Equal(t, int64(2048), *r.ContentLength)
}

func TestBuildRecord_UnknownLengthHasNoIDHash(t *testing.T) {
	req := validRequest()
	delete(req.Data.FetchedCompleteMetadata, "content-length")

	r, err := BuildRecord(req)
	require.NoError(t, err)
	assert.Nil(t, r.ContentLength)
	assert.Nil(t, r.IDHash)
}

func TestBuildRecord_FallsBackToExtractedFilename(t *testing.T) {
	req := validRequest()
	delete(req.Data.FileDetails, "downloadFileName")
	req.Data.FetchedCompleteMetadata["content-disposition"] = `attachment; filename="report final.pdf"`

	r, err := BuildRecord(req)
	require.NoError(t, err)
	assert.Equal(t, "report final.pdf", r.Filename)
}

func TestBuildRecord_Errors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*domain.DecisionRequest)
		expected error
	}{
		{"missing id", func(r *domain.DecisionRequest) { r.ID = nil }, domain.ErrMissingEnvelope},
		{"missing data", func(r *domain.DecisionRequest) { r.Data = nil }, domain.ErrMissingEnvelope},
		{"missing section", func(r *domain.DecisionRequest) { r.Data.FileDetails = nil }, domain.ErrIncompleteData},
		{"missing finalUrl", func(r *domain.DecisionRequest) { delete(r.Data.DownloadMetaData, "finalUrl") }, domain.ErrMissingFinalURL},
		{"no filename", func(r *domain.DecisionRequest) {
			r.Data.DownloadMetaData["finalUrl"] = "https://example.com/"
		}, domain.ErrNoFilename},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := validRequest()
			tt.mutate(req)
			_, err := BuildRecord(req)
			assert.ErrorIs(t, err, tt.expected)
		})
	}
}

func TestExtractFilename(t *testing.T) {
	assert.Equal(t, "a.txt", ExtractFilename(`attachment; filename="a.txt"`, "https://x.example/b.txt"))
	assert.Equal(t, "a b.txt", ExtractFilename(`attachment; filename="a b.txt"; size=3`))
	assert.Equal(t, "b.txt", ExtractFilename("", "https://x.example/dir/b.txt/"))
	assert.Equal(t, "c.txt", ExtractFilename("", "", "https://x.example/c.txt"))
	assert.Equal(t, "", ExtractFilename("inline", "https://x.example/"))
}

func TestNormalizedPath(t *testing.T) {
	assert.Equal(t, "/a/b", NormalizedPath("https://x.example/a/b/"))
	assert.Equal(t, "", NormalizedPath("https://x.example/"))
	assert.Equal(t, "/a", NormalizedPath("https://x.example/a?q=1"))
}

func TestIDHash(t *testing.T) {
	// sha1("x.zip1000")
	assert.Len(t, IDHash("x.zip", 1000), 40)
	assert.Equal(t, IDHash("x.zip", 1000), IDHash("x.zip", 1000))
	assert.NotEqual(t, IDHash("x.zip", 1000), IDHash("x.zip", 1001))
}
