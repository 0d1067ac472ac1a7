package filter

import (
	"context"
	"strings"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
)

// Lexical matches item bodies against a configured list of keyword phrases.
// Matching is a case-insensitive substring check. An empty phrase list is
// fail-closed: no item passes.
type Lexical struct {
	phrases []string
}

// NewLexical builds a lexical filter from the raw phrase list. Phrases are
// lowercased and trimmed; empties are dropped.
func NewLexical(phrases []string) *Lexical {
	out := make([]string, 0, len(phrases))
	for _, p := range phrases {
		p = strings.ToLower(strings.TrimSpace(p))
		if p == "" {
			continue
		}
		out = append(out, p)
	}
	return &Lexical{phrases: out}
}

// Empty reports whether no phrases are configured.
func (l *Lexical) Empty() bool {
	return len(l.phrases) == 0
}

// Evaluate checks the item body against every phrase.
func (l *Lexical) Evaluate(_ context.Context, item domain.Item) Verdict {
	if l.Empty() {
		return Verdict{Relevant: false, Reason: "no keywords configured"}
	}
	body := strings.ToLower(item.Text)
	for _, p := range l.phrases {
		if strings.Contains(body, p) {
			return Verdict{Relevant: true, Reason: "keyword " + p}
		}
	}
	return Verdict{Relevant: false, Reason: "no keyword match"}
}
