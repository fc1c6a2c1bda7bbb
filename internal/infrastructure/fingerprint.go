package infrastructure

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/yourusername/reduce-go/internal/domain"
	"go.uber.org/zap"
)

const (
	mib = 1024 * 1024

	// streamCheckLimit bounds how much of the body the streaming check reads
	streamCheckLimit = 1024
)

// FingerprintEngine computes a partial-content hash of a remote resource
type FingerprintEngine struct {
	client        *http.Client
	headTimeout   time.Duration
	sampleTimeout time.Duration
	logger        *zap.Logger
}

// NewFingerprintEngine creates a new fingerprint engine
func NewFingerprintEngine(config *domain.FingerprintConfig, logger *zap.Logger) *FingerprintEngine {
	return &FingerprintEngine{
		client:        &http.Client{},
		headTimeout:   config.HeadTimeout,
		sampleTimeout: config.SampleTimeout,
		logger:        logger,
	}
}

// SampleSize returns how many leading bytes of a resource of total bytes are
// hashed. Zero means no fingerprint is taken.
func SampleSize(total int64) int64 {
	switch {
	case total < mib:
		return total
	case total < 10*mib:
		return mib
	case total < 25*mib:
		return 5 * mib / 2
	case total < 50*mib:
		return 5 * mib
	case total < 1024*mib:
		return 10 * mib
	default:
		return 20 * mib
	}
}

// Head issues a HEAD request and returns the response headers with lowercased
// names. Redirects are followed.
func (e *FingerprintEngine) Head(ctx context.Context, url string) (map[string]string, error) {
	headers := make(map[string]string)

	ctx, cancel := context.WithTimeout(ctx, e.headTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, url, nil)
	if err != nil {
		return headers, fmt.Errorf("failed to build HEAD request: %w", err)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		return headers, &domain.NetworkError{Operation: "head", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return headers, &domain.NetworkError{Operation: "head", URL: url, StatusCode: resp.StatusCode}
	}

	for name, values := range resp.Header {
		if len(values) > 0 {
			headers[strings.ToLower(name)] = values[0]
		}
	}
	return headers, nil
}

// ContentLength parses the content-length header. The second return value is
// false when the size is unknown.
func ContentLength(headers map[string]string) (int64, bool) {
	raw, ok := headers["content-length"]
	if !ok {
		return 0, false
	}
	n, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}

// Capabilities determines whether url supports range requests and
// streaming. Range support is read from headers, the result of an earlier
// Head call; only the streaming check goes to the network. Failures leave the
// corresponding capability false.
func (e *FingerprintEngine) Capabilities(ctx context.Context, url string, headers map[string]string) domain.ServerCapabilities {
	var caps domain.ServerCapabilities
	caps.RangeSupported = strings.EqualFold(strings.TrimSpace(headers["accept-ranges"]), "bytes")

	resp, err := e.do(ctx, e.headTimeout, http.MethodGet, url, nil)
	if err != nil {
		e.logger.Debug("Streaming check failed", zap.String("url", url), zap.Error(err))
		return caps
	}
	defer resp.Body.Close()

	if !isSuccess(resp.StatusCode) {
		return caps
	}

	for _, te := range resp.TransferEncoding {
		if strings.EqualFold(te, "chunked") {
			caps.StreamingSupported = true
			return caps
		}
	}

	buf := make([]byte, streamCheckLimit)
	n, _ := io.ReadFull(resp.Body, buf)
	caps.StreamingSupported = n > 0
	return caps
}

// Sample retrieves the first n bytes of url and returns their SHA-256 as
// lowercase hex. Partial data is never hashed.
func (e *FingerprintEngine) Sample(ctx context.Context, url string, n int64, caps domain.ServerCapabilities) (string, error) {
	var headers map[string]string
	switch {
	case caps.RangeSupported:
		headers = map[string]string{"Range": fmt.Sprintf("bytes=0-%d", n-1)}
	case caps.StreamingSupported:
	default:
		return "", domain.ErrUnsupportedTransfer
	}

	resp, err := e.do(ctx, e.sampleTimeout, http.MethodGet, url, headers)
	if err != nil {
		return "", &domain.NetworkError{Operation: "sample", URL: url, Err: err}
	}
	defer resp.Body.Close()

	if caps.RangeSupported && resp.StatusCode != http.StatusPartialContent {
		return "", fmt.Errorf("%w: got HTTP %d", domain.ErrRangeNotHonored, resp.StatusCode)
	}
	if !isSuccess(resp.StatusCode) {
		return "", &domain.NetworkError{Operation: "sample", URL: url, StatusCode: resp.StatusCode}
	}

	hasher := sha256.New()
	copied, err := io.CopyN(hasher, resp.Body, n)
	if copied < n {
		if err != nil && !errors.Is(err, io.EOF) {
			return "", &domain.NetworkError{Operation: "sample", URL: url, Err: err}
		}
		return "", fmt.Errorf("%w: read %d of %d bytes", domain.ErrShortRead, copied, n)
	}

	return hex.EncodeToString(hasher.Sum(nil)), nil
}

// Fingerprint inspects url and hashes its sampled prefix. headers are the
// lowercased HEAD response headers already fetched by the caller; when nil a
// HEAD request is issued here. An empty hash means no fingerprint is
// available; the reason is logged.
func (e *FingerprintEngine) Fingerprint(ctx context.Context, url string, headers map[string]string) (string, domain.ServerCapabilities) {
	if headers == nil {
		var err error
		headers, err = e.Head(ctx, url)
		if err != nil {
			e.logger.Warn("Failed to fetch headers", zap.String("url", url), zap.Error(err))
		}
	}

	caps := e.Capabilities(ctx, url, headers)

	total, ok := ContentLength(headers)
	if !ok {
		e.logger.Info("Total size unknown, skipping fingerprint",
			zap.String("url", url),
			zap.Error(domain.ErrUnknownSize))
		return "", caps
	}

	n := SampleSize(total)
	if n == 0 {
		return "", caps
	}

	e.logger.Debug("Sampling resource",
		zap.String("url", url),
		zap.String("total", humanize.IBytes(uint64(total))),
		zap.String("sample", humanize.IBytes(uint64(n))),
		zap.Bool("range", caps.RangeSupported),
		zap.Bool("streaming", caps.StreamingSupported))

	hash, err := e.Sample(ctx, url, n, caps)
	if err != nil {
		e.logger.Warn("Failed to fingerprint resource", zap.String("url", url), zap.Error(err))
		return "", caps
	}
	return hash, caps
}

// do issues a request bounded by timeout. The caller closes the body; the
// timeout stays in force until then.
func (e *FingerprintEngine) do(ctx context.Context, timeout time.Duration, method, url string, headers map[string]string) (*http.Response, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)

	req, err := http.NewRequestWithContext(ctx, method, url, nil)
	if err != nil {
		cancel()
		return nil, err
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := e.client.Do(req)
	if err != nil {
		cancel()
		return nil, err
	}
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (c *cancelOnClose) Close() error {
	err := c.ReadCloser.Close()
	c.cancel()
	return err
}

func isSuccess(status int) bool {
	return status >= 200 && status < 300
}
