package registry

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jobradar-hq/jobradar-feedwatch/pkg/httpclient"
)

func testHTTPClient() httpclient.Client {
	return httpclient.NewRestyClient(2 * time.Second)
}

func TestListSourcesFiltersAndDeduplicates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sources" {
			http.NotFound(w, r)
			return
		}
		if got := r.Header.Get("Authorization"); got != "Bearer tok" {
			t.Errorf("missing auth header, got %q", got)
		}
		w.Write([]byte(`{"sources":[
			{"id": "https://t.me/alpha", "title": "Alpha", "enabled": true, "kind": "telegram"},
			{"id": "@alpha", "title": "Alpha dup", "enabled": true},
			{"id": "@beta", "enabled": false},
			{"id": "https://www.facebook.com/groups/1", "enabled": true},
			{"id": "@gamma", "enabled": true, "kind": "facebook"},
			{"id": "12345", "enabled": true}
		]}`))
	}))
	defer srv.Close()

	c := NewClient(testHTTPClient(), srv.URL, "tok", "", nil)
	sources := c.ListSources(context.Background())

	if len(sources) != 2 {
		t.Fatalf("expected 2 sources, got %d: %+v", len(sources), sources)
	}
	if sources[0].Identity != "@alpha" || sources[1].Identity != "12345" {
		t.Fatalf("unexpected order or identities: %+v", sources)
	}
	if sources[0].Title != "Alpha" {
		t.Fatalf("first discovery wins, got title %q", sources[0].Title)
	}
	if sources[1].Title != "12345" {
		t.Fatalf("missing title should default to identity, got %q", sources[1].Title)
	}
}

func TestListSourcesEmptyOnRegistryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(testHTTPClient(), srv.URL, "", "", nil)
	if sources := c.ListSources(context.Background()); len(sources) != 0 {
		t.Fatalf("registry failure must yield an empty list, got %+v", sources)
	}
}

func TestListSourcesFallsBackToFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sources.yaml")
	yaml := `sources:
  - id: "@alpha"
    title: Alpha
    enabled: true
    kind: telegram
  - id: "@disabled"
    enabled: false
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatalf("write fallback file: %v", err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "down", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(testHTTPClient(), srv.URL, "", path, nil)
	sources := c.ListSources(context.Background())
	if len(sources) != 1 || sources[0].Identity != "@alpha" {
		t.Fatalf("fallback file not used: %+v", sources)
	}
}

func TestSecret(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/secrets/session":
			w.Write([]byte(`{"value": "cred-1"}`))
		case "/secrets/empty":
			w.Write([]byte(`{"value": ""}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(testHTTPClient(), srv.URL, "", "", nil)

	if v, ok := c.Secret(context.Background(), "session"); !ok || v != "cred-1" {
		t.Fatalf("Secret(session) = %q,%v", v, ok)
	}
	if _, ok := c.Secret(context.Background(), "empty"); ok {
		t.Fatalf("empty secret value must report absent")
	}
	if _, ok := c.Secret(context.Background(), "missing"); ok {
		t.Fatalf("404 must report absent")
	}
}
