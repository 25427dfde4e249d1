package push

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/Proton-105/reminder-service/internal/reminder"
)

// Broker is the backend holder of push subscription records. Four
// request/response operations, each keyed by subscriber id.
type Broker interface {
	Register(ctx context.Context, record Record) error
	UpdateSettings(ctx context.Context, subscriberID string, settings reminder.Settings) error
	Unregister(ctx context.Context, subscriberID string) error
	Validate(ctx context.Context, subscriberID string) (bool, error)
}

// HTTPBroker talks JSON to the backend broker service.
type HTTPBroker struct {
	baseURL string
	client  *http.Client
	log     *slog.Logger
}

var _ Broker = (*HTTPBroker)(nil)

// NewHTTPBroker constructs a broker client with the given base URL and
// request timeout.
func NewHTTPBroker(baseURL string, timeout time.Duration, log *slog.Logger) *HTTPBroker {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	if log == nil {
		log = slog.Default()
	}

	return &HTTPBroker{
		baseURL: baseURL,
		client:  &http.Client{Timeout: timeout},
		log:     log,
	}
}

// Register creates or overwrites the subscription record.
func (b *HTTPBroker) Register(ctx context.Context, record Record) error {
	return b.send(ctx, http.MethodPost, "/api/push/subscriptions", record)
}

// UpdateSettings transmits only the settings delta for the subscriber.
func (b *HTTPBroker) UpdateSettings(ctx context.Context, subscriberID string, settings reminder.Settings) error {
	path := fmt.Sprintf("/api/push/subscriptions/%s/settings", subscriberID)
	return b.send(ctx, http.MethodPut, path, settings)
}

// Unregister deletes the subscription record.
func (b *HTTPBroker) Unregister(ctx context.Context, subscriberID string) error {
	path := fmt.Sprintf("/api/push/subscriptions/%s", subscriberID)
	return b.send(ctx, http.MethodDelete, path, nil)
}

// Validate reports whether the broker still holds a record for the
// subscriber. A missing record is a definitive false, not an error.
func (b *HTTPBroker) Validate(ctx context.Context, subscriberID string) (bool, error) {
	url := b.baseURL + fmt.Sprintf("/api/push/subscriptions/%s", subscriberID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, fmt.Errorf("build broker request: %w", err)
	}

	resp, err := b.client.Do(req)
	if err != nil {
		return false, fmt.Errorf("broker request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return true, nil
	default:
		return false, fmt.Errorf("broker returned status %d", resp.StatusCode)
	}
}

func (b *HTTPBroker) send(ctx context.Context, method, path string, payload interface{}) error {
	var body *bytes.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("encode broker payload: %w", err)
		}
		body = bytes.NewReader(data)
	} else {
		body = bytes.NewReader(nil)
	}

	req, err := http.NewRequestWithContext(ctx, method, b.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build broker request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.client.Do(req)
	if err != nil {
		return fmt.Errorf("broker request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		b.log.Error("broker rejected request", slog.String("method", method), slog.String("path", path), slog.Int("status", resp.StatusCode))
		return fmt.Errorf("broker returned status %d", resp.StatusCode)
	}

	return nil
}
