package sink

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
)

var testSource = domain.Source{Identity: "@alpha", Title: "Alpha", Enabled: true, Kind: domain.KindTelegram}

func newTestClient(url string) *Client {
	return NewClient(url, "secret-key", 2*time.Second, nil)
}

func TestDeliverAccepted(t *testing.T) {
	var gotKey, gotAPIKey string
	var payload map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("Idempotency-Key")
		gotAPIKey = r.Header.Get("X-API-KEY")
		json.NewDecoder(r.Body).Decode(&payload)
		w.Write([]byte(`{"status": "created"}`))
	}))
	defer srv.Close()

	item := domain.Item{Seq: 103, Text: "hiring remote engineer", URL: "https://t.me/alpha/103"}
	outcome, err := newTestClient(srv.URL).Deliver(context.Background(), testSource, item)
	if err != nil || outcome != OutcomeAccepted {
		t.Fatalf("Deliver = %v,%v", outcome, err)
	}

	wantFP := domain.ItemFingerprint("@alpha", 103)
	if gotKey != wantFP {
		t.Fatalf("idempotency key = %q, want %q", gotKey, wantFP)
	}
	if gotAPIKey != "secret-key" {
		t.Fatalf("api key header = %q", gotAPIKey)
	}
	if payload["external_id"] != wantFP || payload["source"] != "telegram" {
		t.Fatalf("payload = %v", payload)
	}
}

func TestDeliverDuplicateIsSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"status": "duplicate"}`))
	}))
	defer srv.Close()

	outcome, err := newTestClient(srv.URL).Deliver(context.Background(), testSource, domain.Item{Seq: 1, Text: "x"})
	if err != nil {
		t.Fatalf("duplicate must not be an error: %v", err)
	}
	if outcome != OutcomeDuplicate {
		t.Fatalf("outcome = %v, want duplicate", outcome)
	}
}

func TestDeliverRetriesTransientOnce(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		if calls == 1 {
			http.Error(w, "flaky", http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"status": "created"}`))
	}))
	defer srv.Close()

	outcome, err := newTestClient(srv.URL).Deliver(context.Background(), testSource, domain.Item{Seq: 2, Text: "x"})
	if err != nil || outcome != OutcomeAccepted {
		t.Fatalf("Deliver after retry = %v,%v", outcome, err)
	}
	if calls != 2 {
		t.Fatalf("expected exactly one retry, got %d calls", calls)
	}
}

func TestDeliverSurfacesPersistentFailure(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	outcome, err := newTestClient(srv.URL).Deliver(context.Background(), testSource, domain.Item{Seq: 3, Text: "x"})
	if err == nil || outcome != OutcomeError {
		t.Fatalf("expected delivery error, got %v,%v", outcome, err)
	}
	if calls != 2 {
		t.Fatalf("expected two attempts, got %d", calls)
	}
}

func TestDeliverDoesNotRetryClientError(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls++
		http.Error(w, "bad payload", http.StatusBadRequest)
	}))
	defer srv.Close()

	outcome, err := newTestClient(srv.URL).Deliver(context.Background(), testSource, domain.Item{Seq: 4, Text: "x"})
	if err == nil || outcome != OutcomeError {
		t.Fatalf("expected delivery error, got %v,%v", outcome, err)
	}
	if calls != 1 {
		t.Fatalf("4xx must not be retried, got %d calls", calls)
	}
}

func TestReportStatusSwallowsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	// Must not panic or propagate anything.
	newTestClient(srv.URL).ReportStatus(context.Background(), "feedwatch", "ok new=0 sent=0 sources=0")
}
