package filter

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
)

func newTestSemantic(url string) *Semantic {
	return NewSemantic(SemanticConfig{
		URL:      url,
		Model:    "test-model",
		MaxChars: 100,
		Timeout:  500 * time.Millisecond,
	}, nil)
}

func chatBody(content string) string {
	return `{"choices":[{"message":{"role":"assistant","content":` + content + `}}]}`
}

func TestSemanticParsesNegativeVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(chatBody(`"{\"relevant\": false, \"reason\": \"birthday greeting\"}"`)))
	}))
	defer srv.Close()

	v := newTestSemantic(srv.URL).Evaluate(context.Background(), domain.Item{Text: "hiring? no."})
	if v.Relevant {
		t.Fatalf("expected negative verdict, got %+v", v)
	}
	if v.Reason != "birthday greeting" {
		t.Fatalf("reason = %q", v.Reason)
	}
}

func TestSemanticParsesFencedVerdict(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatBody(`"` + "```json\\n{\\\"relevant\\\": true, \\\"reason\\\": \\\"vacancy\\\"}\\n```" + `"`)))
	}))
	defer srv.Close()

	v := newTestSemantic(srv.URL).Evaluate(context.Background(), domain.Item{Text: "hiring remote engineer"})
	if !v.Relevant || v.Reason != "vacancy" {
		t.Fatalf("expected fenced verdict parsed, got %+v", v)
	}
}

func TestSemanticFailsOpenOnTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(2 * time.Second)
	}))
	defer srv.Close()

	v := newTestSemantic(srv.URL).Evaluate(context.Background(), domain.Item{Text: "hiring"})
	if !v.Relevant {
		t.Fatalf("classifier timeout must fail open, got %+v", v)
	}
}

func TestSemanticFailsOpenOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	v := newTestSemantic(srv.URL).Evaluate(context.Background(), domain.Item{Text: "hiring"})
	if !v.Relevant {
		t.Fatalf("5xx must fail open, got %+v", v)
	}
}

func TestSemanticFailsOpenOnGarbage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(chatBody(`"definitely relevant, trust me"`)))
	}))
	defer srv.Close()

	v := newTestSemantic(srv.URL).Evaluate(context.Background(), domain.Item{Text: "hiring"})
	if !v.Relevant {
		t.Fatalf("unparsable verdict must fail open, got %+v", v)
	}
}

func TestSemanticTruncatesBody(t *testing.T) {
	var gotLen int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64*1024)
		n, _ := r.Body.Read(buf)
		gotLen = n
		w.Write([]byte(chatBody(`"{\"relevant\": true, \"reason\": \"ok\"}"`)))
	}))
	defer srv.Close()

	long := make([]byte, 50_000)
	for i := range long {
		long[i] = 'a'
	}
	newTestSemantic(srv.URL).Evaluate(context.Background(), domain.Item{Text: "hiring " + string(long)})

	// Request carries prompt plus at most maxChars of body.
	if gotLen > 5000 {
		t.Fatalf("request body not truncated, got %d bytes", gotLen)
	}
}

func TestTruncateNeverSplitsRune(t *testing.T) {
	body := strings.Repeat("вакансия ", 50)
	for max := 95; max <= 105; max++ {
		got := truncate(body, max)
		if len(got) > max {
			t.Fatalf("truncate(%d) kept %d bytes", max, len(got))
		}
		if !utf8.ValidString(got) {
			t.Fatalf("truncate(%d) produced invalid UTF-8 tail %q", max, got[len(got)-4:])
		}
	}

	if got := truncate("short", 100); got != "short" {
		t.Fatalf("short body changed: %q", got)
	}
	if got := truncate("anything", 0); got != "anything" {
		t.Fatalf("zero max must disable truncation, got %q", got)
	}
}
