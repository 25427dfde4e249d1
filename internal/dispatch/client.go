package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"
)

// Client is the external dispatcher API: list, create, update, delete, each
// keyed by the job identity.
type Client interface {
	ListJobs(ctx context.Context) ([]Job, error)
	CreateJob(ctx context.Context, job Job) error
	UpdateJob(ctx context.Context, job Job) error
	DeleteJob(ctx context.Context, id int64) error
}

// HTTPClient talks JSON to a cron-job.org style dispatcher API.
type HTTPClient struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *slog.Logger
}

var _ Client = (*HTTPClient)(nil)

// NewHTTPClient constructs a dispatcher client.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *HTTPClient {
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &HTTPClient{
		baseURL: baseURL,
		apiKey:  apiKey,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// ListJobs fetches every job visible to this API key.
func (c *HTTPClient) ListJobs(ctx context.Context) ([]Job, error) {
	var out struct {
		Jobs []Job `json:"jobs"`
	}
	if err := c.do(ctx, http.MethodGet, "/jobs", nil, &out); err != nil {
		return nil, err
	}
	return out.Jobs, nil
}

// CreateJob registers a new job.
func (c *HTTPClient) CreateJob(ctx context.Context, job Job) error {
	payload := struct {
		Job Job `json:"job"`
	}{Job: job}
	return c.do(ctx, http.MethodPut, "/jobs", payload, nil)
}

// UpdateJob replaces the schedule and state of an existing job.
func (c *HTTPClient) UpdateJob(ctx context.Context, job Job) error {
	payload := struct {
		Job Job `json:"job"`
	}{Job: job}
	return c.do(ctx, http.MethodPatch, fmt.Sprintf("/jobs/%d", job.ID), payload, nil)
}

// DeleteJob removes a job by id.
func (c *HTTPClient) DeleteJob(ctx context.Context, id int64) error {
	return c.do(ctx, http.MethodDelete, fmt.Sprintf("/jobs/%d", id), nil, nil)
}

func (c *HTTPClient) do(ctx context.Context, method, path string, payload, out interface{}) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode dispatcher payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build dispatcher request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("dispatcher request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		c.log.Error("dispatcher rejected request", slog.String("method", method), slog.String("path", path), slog.Int("status", resp.StatusCode))
		return fmt.Errorf("dispatcher returned status %d", resp.StatusCode)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode dispatcher response: %w", err)
		}
	}

	return nil
}
