package filter

import (
	"context"
	"testing"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
)

func TestLexicalMatchesCaseInsensitive(t *testing.T) {
	l := NewLexical([]string{"Hiring", " remote "})

	v := l.Evaluate(context.Background(), domain.Item{Text: "We are HIRING a developer"})
	if !v.Relevant {
		t.Fatalf("expected match, got %+v", v)
	}

	v = l.Evaluate(context.Background(), domain.Item{Text: "happy birthday!"})
	if v.Relevant {
		t.Fatalf("expected no match, got %+v", v)
	}
}

func TestLexicalEmptyListFailsClosed(t *testing.T) {
	l := NewLexical([]string{" ", ""})
	if !l.Empty() {
		t.Fatalf("filter should report empty keyword list")
	}

	v := l.Evaluate(context.Background(), domain.Item{Text: "hiring hiring hiring"})
	if v.Relevant {
		t.Fatalf("empty keyword list must fail closed, got %+v", v)
	}
}

func TestChainSkipsSemanticWhenLexicalRejects(t *testing.T) {
	sem := &countingFilter{verdict: Verdict{Relevant: true}}
	c := NewChain(NewLexical([]string{"hiring"}), sem)

	v := c.Evaluate(context.Background(), domain.Item{Text: "nothing to see"})
	if v.Relevant {
		t.Fatalf("expected lexical rejection, got %+v", v)
	}
	if sem.calls != 0 {
		t.Fatalf("semantic stage must not run for lexical rejections, ran %d times", sem.calls)
	}
}

func TestChainConsultsSemanticOnLexicalPass(t *testing.T) {
	sem := &countingFilter{verdict: Verdict{Relevant: false, Reason: "spam"}}
	c := NewChain(NewLexical([]string{"hiring"}), sem)

	v := c.Evaluate(context.Background(), domain.Item{Text: "hiring!!! click here"})
	if v.Relevant || v.Reason != "spam" {
		t.Fatalf("expected semantic rejection, got %+v", v)
	}
	if sem.calls != 1 {
		t.Fatalf("semantic stage should run once, ran %d times", sem.calls)
	}
}

type countingFilter struct {
	verdict Verdict
	calls   int
}

func (c *countingFilter) Evaluate(context.Context, domain.Item) Verdict {
	c.calls++
	return c.verdict
}
