package app

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"mime"
	"net/url"
	"strconv"
	"strings"

	"github.com/yourusername/reduce-go/internal/domain"
)

// BuildRecord derives a DownloadRecord from a decision request. The record is
// not yet classified.
func BuildRecord(req *domain.DecisionRequest) (*domain.DownloadRecord, error) {
	if req == nil || isEmptyID(req.ID) || req.Data == nil {
		return nil, domain.ErrMissingEnvelope
	}
	data := req.Data
	if len(data.DownloadMetaData) == 0 || len(data.FetchedCompleteMetadata) == 0 || len(data.FileDetails) == 0 {
		return nil, domain.ErrIncompleteData
	}

	meta := data.DownloadMetaData
	fetched := data.FetchedCompleteMetadata
	details := data.FileDetails

	finalURL := stringValue(meta, "finalUrl")
	if finalURL == "" {
		return nil, domain.ErrMissingFinalURL
	}

	rawURL := stringValue(meta, "url")
	contentDisposition := stringValue(fetched, "content-disposition")

	extracted := ExtractFilename(contentDisposition, finalURL, rawURL)
	if extracted == "" {
		return nil, domain.ErrNoFilename
	}

	record := domain.NewDownloadRecord(rawURL)
	record.Referrer = stringValue(meta, "referrer")
	record.FinalURL = finalURL
	record.NormalizedPath = NormalizedPath(finalURL)
	record.Filename = stringValue(details, "downloadFileName")
	if record.Filename == "" {
		record.Filename = extracted
	}
	record.Domain = stringValue(details, "domain")
	if record.Domain == "" {
		record.Domain = hostOf(finalURL)
	}

	if n, ok := int64Value(fetched, "content-length"); ok {
		record.ContentLength = &n
		record.IDHash = domain.StringPtr(IDHash(record.Filename, n))
	}
	record.ContentType = domain.StringPtr(stringValue(fetched, "content-type"))
	record.LastModified = domain.StringPtr(stringValue(fetched, "last-modified"))
	record.ETag = domain.StringPtr(stringValue(fetched, "etag"))
	record.ContentDisposition = domain.StringPtr(contentDisposition)

	if data.PartialHash != nil {
		record.PartialHash = domain.StringPtr(*data.PartialHash)
	}

	var device domain.DeviceInfo
	if data.DeviceInfo != nil {
		device = *data.DeviceInfo
	}
	record.ApplyDevice(device)

	return record, nil
}

// IDHash is the sha1 of the filename followed by the decimal content length
func IDHash(filename string, contentLength int64) string {
	sum := sha1.Sum([]byte(filename + strconv.FormatInt(contentLength, 10)))
	return hex.EncodeToString(sum[:])
}

// NormalizedPath returns the URL path without trailing slashes
func NormalizedPath(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.TrimRight(u.Path, "/")
}

// ExtractFilename prefers the Content-Disposition filename, then the last
// segment of the first non-empty URL.
func ExtractFilename(contentDisposition string, urls ...string) string {
	if name := dispositionFilename(contentDisposition); name != "" {
		return name
	}
	for _, u := range urls {
		if u == "" {
			continue
		}
		path := NormalizedPath(u)
		return path[strings.LastIndex(path, "/")+1:]
	}
	return ""
}

func dispositionFilename(header string) string {
	if header == "" {
		return ""
	}
	if _, params, err := mime.ParseMediaType(header); err == nil {
		if name := params["filename"]; name != "" {
			return name
		}
	}
	// Lenient fallback for headers the MIME parser rejects
	for _, part := range strings.Split(header, ";") {
		part = strings.TrimSpace(part)
		if value, ok := strings.CutPrefix(part, "filename="); ok {
			return strings.Trim(value, `"`)
		}
	}
	return ""
}

func hostOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return u.Hostname()
}

func isEmptyID(id interface{}) bool {
	switch v := id.(type) {
	case nil:
		return true
	case string:
		return v == ""
	default:
		return false
	}
}

// stringValue reads a JSON scalar as text
func stringValue(m map[string]interface{}, key string) string {
	switch v := m[key].(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case json.Number:
		return v.String()
	case bool:
		return strconv.FormatBool(v)
	default:
		return ""
	}
}

// int64Value reads a non-negative integer sent as a number or a string
func int64Value(m map[string]interface{}, key string) (int64, bool) {
	raw := strings.TrimSpace(stringValue(m, key))
	if raw == "" {
		return 0, false
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
