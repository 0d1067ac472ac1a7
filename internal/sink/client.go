package sink

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/logger"
	"github.com/jobradar-hq/jobradar-feedwatch/pkg/httpclient"
)

// Outcome is the sink's answer to one delivery.
type Outcome int

const (
	OutcomeAccepted Outcome = iota
	OutcomeDuplicate
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeAccepted:
		return "accepted"
	case OutcomeDuplicate:
		return "duplicate"
	case OutcomeError:
		return "error"
	default:
		return "unknown"
	}
}

// Client posts accepted items to the downstream ingestion API. The item
// fingerprint travels as the idempotency key, so a sink that already holds
// it answers "duplicate", which counts as success.
type Client struct {
	client  *resty.Client
	baseURL string
	secret  string
	log     logger.Logger
}

// NewClient builds a delivery client with a bounded per-call timeout.
func NewClient(baseURL, secret string, timeout time.Duration, log logger.Logger) *Client {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Client{
		client:  httpclient.NewRestyHTTPClient(timeout),
		baseURL: strings.TrimRight(baseURL, "/"),
		secret:  secret,
		log:     log,
	}
}

type deliveryPayload struct {
	Source     string `json:"source"`
	SourceName string `json:"source_name"`
	ExternalID string `json:"external_id"`
	URL        string `json:"url,omitempty"`
	Text       string `json:"text"`
	Author     string `json:"author,omitempty"`
	CreatedAt  string `json:"created_at,omitempty"`
}

// Deliver posts one item. Transport failures and 5xx responses are retried
// once; after that the error surfaces to the coordinator as a per-item
// failure (the cursor still advances; items are not retried across cycles).
func (c *Client) Deliver(ctx context.Context, src domain.Source, item domain.Item) (Outcome, error) {
	fp := domain.ItemFingerprint(src.Identity, item.Seq)

	payload := deliveryPayload{
		Source:     domain.KindTelegram,
		SourceName: src.Title,
		ExternalID: fp,
		URL:        item.URL,
		Text:       item.Text,
		Author:     item.Author,
	}
	if !item.Date.IsZero() {
		payload.CreatedAt = item.Date.UTC().Format(time.RFC3339)
	}

	outcome, err := c.post(ctx, fp, payload)
	if err == nil {
		return outcome, nil
	}

	var perm *permanentError
	if errors.As(err, &perm) {
		// 4xx other than conflict will not get better on retry.
		return OutcomeError, fmt.Errorf("deliver %s: %w", fp, err)
	}

	// One retry for transient failure, then surface the error.
	outcome, retryErr := c.post(ctx, fp, payload)
	if retryErr == nil {
		return outcome, nil
	}
	return OutcomeError, fmt.Errorf("deliver %s: %w", fp, retryErr)
}

func (c *Client) post(ctx context.Context, fp string, payload deliveryPayload) (Outcome, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-KEY", c.secret).
		SetHeader("Idempotency-Key", fp).
		SetBody(payload).
		Post(c.baseURL + "/post")
	if err != nil {
		return OutcomeError, fmt.Errorf("sink post: %w", err)
	}

	code := resp.StatusCode()
	switch {
	case code >= 200 && code < 300:
		var body struct {
			Status string `json:"status"`
		}
		if err := json.Unmarshal(resp.Body(), &body); err == nil && body.Status == "duplicate" {
			return OutcomeDuplicate, nil
		}
		return OutcomeAccepted, nil
	case code == 409:
		// Some sink deployments signal duplicates with a conflict status.
		return OutcomeDuplicate, nil
	case code >= 500:
		return OutcomeError, fmt.Errorf("sink post: status %d", code)
	default:
		return OutcomeError, &permanentError{code: code}
	}
}

type permanentError struct {
	code int
}

func (e *permanentError) Error() string {
	return fmt.Sprintf("sink post: status %d", e.code)
}

// ReportStatus posts a best-effort health signal. Failures are logged and
// swallowed; status reporting never blocks or fails a cycle.
func (c *Client) ReportStatus(ctx context.Context, key, value string) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-KEY", c.secret).
		SetBody(map[string]string{"key": key, "value": value}).
		Post(c.baseURL + "/status")
	if err != nil {
		c.log.WarnObj("status report failed", "status_error", err.Error())
		return
	}
	if resp.IsError() {
		c.log.WarnObj("status report rejected", "status_code", resp.StatusCode())
	}
}
