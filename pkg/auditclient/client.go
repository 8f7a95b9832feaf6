// Package auditclient is the outbound client business services use to
// report audit events after completing a mutation. Reporting is
// best-effort: the audit call never blocks, fails, or retries the
// business operation it describes.
package auditclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"audit-service/internal/domain"

	log "github.com/sirupsen/logrus"
)

const defaultTimeout = 30 * time.Second

// Config is passed explicitly at service startup; there is no process-wide
// client or hidden base URL.
type Config struct {
	// BaseURL of the audit service, e.g. "http://audit-service:8080".
	BaseURL string
	// Service names the producer in every event it reports.
	Service string
	// Timeout bounds the whole call. Defaults to 30s.
	Timeout time.Duration
	// HTTPClient overrides the transport, mostly for tests.
	HTTPClient *http.Client
}

// Entry is one audit event to report. Service and timestamp are filled in
// by the client.
type Entry struct {
	EventType string
	Entity    string
	EntityID  int64
	Details   string
	UserID    *int64
	IPAddress string
	UserAgent string
	Metadata  map[string]interface{}
}

// Result is what a Record call produced. Business code is expected to
// discard it: failures have already been logged here and must never
// propagate as a business-operation failure.
type Result struct {
	Delivered bool
	Status    int
	Err       error
}

type Client struct {
	baseURL    string
	service    string
	httpClient *http.Client
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL:    cfg.BaseURL,
		service:    cfg.Service,
		httpClient: httpClient,
	}
}

// Record reports one event with a single attempt. Timeouts, 5xx responses,
// and network errors are logged and swallowed; there is deliberately no
// retry, so a lost response can leave a gap in the trail.
func (c *Client) Record(ctx context.Context, entry Entry) Result {
	submission := domain.SubmitEventRequest{
		EventType: entry.EventType,
		Entity:    entry.Entity,
		EntityID:  entry.EntityID,
		Details:   entry.Details,
		Service:   c.service,
		UserID:    entry.UserID,
		IPAddress: entry.IPAddress,
		UserAgent: entry.UserAgent,
		Metadata:  entry.Metadata,
	}

	result := c.send(ctx, submission)
	if result.Err != nil {
		log.WithError(result.Err).WithFields(log.Fields{
			"event_type": entry.EventType,
			"entity":     entry.Entity,
			"entity_id":  entry.EntityID,
			"service":    c.service,
		}).Error("Failed to report audit event")
	}
	return result
}

func (c *Client) send(ctx context.Context, submission domain.SubmitEventRequest) Result {
	body, err := json.Marshal(submission)
	if err != nil {
		return Result{Err: fmt.Errorf("failed to encode audit event: %w", err)}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/events", bytes.NewReader(body))
	if err != nil {
		return Result{Err: fmt.Errorf("failed to build audit request: %w", err)}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Result{Err: fmt.Errorf("failed to reach audit service: %w", err)}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusCreated {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return Result{
			Status: resp.StatusCode,
			Err:    fmt.Errorf("audit service responded %d: %s", resp.StatusCode, detail),
		}
	}

	return Result{Delivered: true, Status: resp.StatusCode}
}
