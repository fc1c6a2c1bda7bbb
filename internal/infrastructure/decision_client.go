package infrastructure

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/yourusername/reduce-go/internal/domain"
	"github.com/yourusername/reduce-go/pkg/logger"
	"go.uber.org/zap"
)

// DecisionClient talks to the decision service over HTTP
type DecisionClient struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewDecisionClient creates a client for the service at baseURL
func NewDecisionClient(baseURL string, timeout time.Duration, logger *zap.Logger) *DecisionClient {
	return &DecisionClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  &http.Client{Timeout: timeout},
		logger:  logger,
	}
}

// ProcessDownload asks the service whether to proceed. Any failure is treated
// as ActionCancel; the client never proceeds without an explicit answer.
func (c *DecisionClient) ProcessDownload(ctx context.Context, req *domain.DecisionRequest) domain.Action {
	action, err := c.processDownload(ctx, req)
	if err != nil {
		c.logger.Warn("Decision request failed, cancelling download", zap.Error(err))
		return domain.ActionCancel
	}
	return action
}

func (c *DecisionClient) processDownload(ctx context.Context, req *domain.DecisionRequest) (domain.Action, error) {
	status, body, err := c.post(ctx, "/process_download", req)
	if err != nil {
		return domain.ActionCancel, &domain.NetworkError{Operation: "process_download", URL: c.baseURL, Err: err}
	}
	if !isSuccess(status) {
		return domain.ActionCancel, &domain.NetworkError{Operation: "process_download", URL: c.baseURL, StatusCode: status}
	}

	var resp domain.DecisionResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return domain.ActionCancel, &domain.MalformedResponseError{StatusCode: status, Body: string(body), Err: err}
	}
	if resp.Action == nil {
		return domain.ActionCancel, &domain.MalformedResponseError{StatusCode: status, Body: string(body)}
	}

	switch *resp.Action {
	case domain.ActionProceed, domain.ActionPause, domain.ActionCancel:
		return *resp.Action, nil
	default:
		return domain.ActionCancel, &domain.MalformedResponseError{StatusCode: status, Body: string(body)}
	}
}

// DeleteRecord asks the service to forget the record carrying partialHash.
// It reports false when the service had no such record.
func (c *DecisionClient) DeleteRecord(ctx context.Context, partialHash string, device domain.DeviceInfo) (bool, error) {
	status, body, err := c.post(ctx, "/delete_record", &domain.DeleteRequest{
		PartialHash: partialHash,
		DeviceInfo:  &device,
	})
	if err != nil {
		return false, &domain.NetworkError{Operation: "delete_record", URL: c.baseURL, Err: err}
	}

	switch status {
	case http.StatusOK:
		return true, nil
	case http.StatusNotFound:
		return false, nil
	default:
		return false, &domain.MalformedResponseError{StatusCode: status, Body: string(body)}
	}
}

// DeviceInfo fetches the service's view of the machine it runs on
func (c *DecisionClient) DeviceInfo(ctx context.Context) (domain.DeviceInfo, error) {
	var info domain.DeviceInfo
	err := c.getJSON(ctx, "/device_info", &info)
	return info, err
}

// ListDownloads fetches every record, newest first
func (c *DecisionClient) ListDownloads(ctx context.Context) ([]*domain.DownloadRecord, error) {
	var records []*domain.DownloadRecord
	err := c.getJSON(ctx, "/get_all_downloads", &records)
	return records, err
}

// Stats fetches the count and total size of records with status
func (c *DecisionClient) Stats(ctx context.Context, status domain.DownloadStatus) (*domain.DownloadStats, error) {
	var raw map[string]int64
	if err := c.getJSON(ctx, "/"+string(status)+"_download_stats", &raw); err != nil {
		return nil, err
	}
	return &domain.DownloadStats{
		Status:             status,
		Count:              raw[string(status)+"_count"],
		TotalContentLength: raw[string(status)+"_total_content_length"],
	}, nil
}

// Logs fetches the last limit entries of a server category log. An empty
// date means today.
func (c *DecisionClient) Logs(ctx context.Context, category logger.LogCategory, date string, limit int) ([]logger.LogEntry, error) {
	query := url.Values{}
	query.Set("limit", strconv.Itoa(limit))
	if date != "" {
		query.Set("date", date)
	}

	var resp struct {
		Entries []logger.LogEntry `json:"entries"`
	}
	if err := c.getJSON(ctx, "/logs/"+string(category)+"?"+query.Encode(), &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}

// FollowDecisions subscribes to the live decision stream and calls handle for
// each event until ctx is cancelled or the connection drops.
func (c *DecisionClient) FollowDecisions(ctx context.Context, handle func(domain.DecisionEvent)) error {
	endpoint, err := url.Parse(c.baseURL + "/decisions/stream")
	if err != nil {
		return err
	}
	switch endpoint.Scheme {
	case "https":
		endpoint.Scheme = "wss"
	default:
		endpoint.Scheme = "ws"
	}

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, endpoint.String(), nil)
	if err != nil {
		return &domain.NetworkError{Operation: "decisions_stream", URL: c.baseURL, Err: err}
	}
	defer conn.Close()

	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		var event domain.DecisionEvent
		if err := conn.ReadJSON(&event); err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return &domain.NetworkError{Operation: "decisions_stream", URL: c.baseURL, Err: err}
		}
		handle(event)
	}
}

// Health reports whether the service answers its health check
func (c *DecisionClient) Health(ctx context.Context) error {
	var body map[string]interface{}
	return c.getJSON(ctx, "/health", &body)
}

func (c *DecisionClient) post(ctx context.Context, path string, payload interface{}) (int, []byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

func (c *DecisionClient) getJSON(ctx context.Context, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}

	status, body, err := c.do(req)
	if err != nil {
		return &domain.NetworkError{Operation: strings.TrimPrefix(path, "/"), URL: c.baseURL, Err: err}
	}
	if !isSuccess(status) {
		return &domain.NetworkError{Operation: strings.TrimPrefix(path, "/"), URL: c.baseURL, StatusCode: status}
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &domain.MalformedResponseError{StatusCode: status, Body: string(body), Err: err}
	}
	return nil
}

func (c *DecisionClient) do(req *http.Request) (int, []byte, error) {
	resp, err := c.client.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, err
	}
	return resp.StatusCode, body, nil
}
