package alerts

import (
	"os"
	"path/filepath"
	"testing"
)

func writeAlertsFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write alerts file: %v", err)
	}
	return path
}

func TestLoadRegistryYAML(t *testing.T) {
	path := writeAlertsFile(t, "alerts.yaml", `alerters:
  - id: ops-hook
    type: webhook
    webhook:
      url: https://hooks.example.com/ops
      headers:
        X-Token: "  abc  "
  - id: ops-log
    type: log
  - id: disabled-queue
    type: sqs
    enabled: false
    sqs:
      uri: https://sqs.eu-west-1.amazonaws.com/1/alerts
      region: eu-west-1
`)

	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry: %v", err)
	}

	if got := len(reg.All()); got != 3 {
		t.Fatalf("All = %d, want 3", got)
	}
	if got := len(reg.Enabled()); got != 2 {
		t.Fatalf("Enabled = %d, want 2", got)
	}

	hook, ok := reg.ByID("ops-hook")
	if !ok {
		t.Fatalf("ops-hook missing")
	}
	if hook.Webhook.Method != "POST" {
		t.Fatalf("method default not applied: %q", hook.Webhook.Method)
	}
	if hook.Webhook.TimeoutSeconds != webhookDefaultTimeoutSeconds {
		t.Fatalf("timeout default not applied: %d", hook.Webhook.TimeoutSeconds)
	}
	if hook.Webhook.Headers["X-Token"] != "abc" {
		t.Fatalf("headers not sanitized: %v", hook.Webhook.Headers)
	}
}

func TestLoadRegistryRejectsDuplicateIDs(t *testing.T) {
	path := writeAlertsFile(t, "alerts.yaml", `alerters:
  - id: dup
    type: log
  - id: dup
    type: log
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected duplicate id error")
	}
}

func TestLoadRegistryValidatesTypeConfig(t *testing.T) {
	path := writeAlertsFile(t, "alerts.yaml", `alerters:
  - id: broken
    type: sns
    sns:
      region: eu-west-1
`)
	if _, err := LoadRegistry(path); err == nil {
		t.Fatalf("expected validation error for missing topic_arn")
	}
}

func TestLoadRegistryJSON(t *testing.T) {
	path := writeAlertsFile(t, "alerts.json", `{"alerters":[{"id":"hook","type":"webhook","webhook":{"url":"https://x"}}]}`)
	reg, err := LoadRegistry(path)
	if err != nil {
		t.Fatalf("LoadRegistry json: %v", err)
	}
	if _, ok := reg.ByID("hook"); !ok {
		t.Fatalf("hook missing from json registry")
	}
}
