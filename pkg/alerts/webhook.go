package alerts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/jobradar-hq/jobradar-feedwatch/pkg/httpclient"
)

type webhookAlerter struct {
	id      string
	typ     string
	method  string
	url     string
	headers map[string]string
	client  *resty.Client
}

func newWebhookAlerter(_ context.Context, cfg AlerterConfig, _ Logger) (Alerter, error) {
	if cfg.Webhook == nil {
		return nil, fmt.Errorf("alerter %q missing webhook configuration", cfg.ID)
	}

	client := httpclient.NewRestyHTTPClient(time.Duration(cfg.Webhook.TimeoutSeconds) * time.Second)

	return &webhookAlerter{
		id:      cfg.ID,
		typ:     TypeWebhook,
		method:  cfg.Webhook.Method,
		url:     cfg.Webhook.URL,
		headers: cfg.Webhook.Headers,
		client:  client,
	}, nil
}

func (w *webhookAlerter) ID() string   { return w.id }
func (w *webhookAlerter) Type() string { return w.typ }

func (w *webhookAlerter) Notify(ctx context.Context, alert Alert) error {
	req := w.client.R().
		SetContext(ctx).
		SetBody(alert)

	if len(w.headers) > 0 {
		req.SetHeaders(w.headers)
	}

	req.SetHeader("Content-Type", "application/json")

	resp, err := req.Execute(w.method, w.url)
	if err != nil {
		return fmt.Errorf("webhook request: %w", err)
	}
	if resp.IsError() {
		snippet := readBodySnippet(resp.Body())
		return fmt.Errorf("webhook response status %d: %s", resp.StatusCode(), snippet)
	}
	return nil
}

func readBodySnippet(body []byte) string {
	if len(body) == 0 {
		return ""
	}
	if len(body) > 512 {
		body = body[:512]
	}
	return strings.TrimSpace(string(body))
}
