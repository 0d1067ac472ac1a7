package filter

import (
	"context"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
)

// Verdict is the outcome of a relevance check for one item.
type Verdict struct {
	Relevant bool
	Reason   string
}

// Filter decides whether an item is worth delivering downstream.
type Filter interface {
	Evaluate(ctx context.Context, item domain.Item) Verdict
}

// Chain runs the cheap lexical pass first and consults the optional
// semantic classifier only for items that already matched a keyword.
type Chain struct {
	lexical  *Lexical
	semantic Filter
}

// NewChain builds the filter chain. semantic may be nil to run lexical-only.
func NewChain(lexical *Lexical, semantic Filter) *Chain {
	return &Chain{lexical: lexical, semantic: semantic}
}

// NoKeywords reports the fail-closed condition: an empty keyword list means
// nothing passes, and the coordinator surfaces a distinct health status.
func (c *Chain) NoKeywords() bool {
	return c.lexical == nil || c.lexical.Empty()
}

// Evaluate applies the lexical stage, then the semantic stage if present.
func (c *Chain) Evaluate(ctx context.Context, item domain.Item) Verdict {
	if c.lexical == nil {
		return Verdict{Relevant: false, Reason: "no keywords configured"}
	}
	v := c.lexical.Evaluate(ctx, item)
	if !v.Relevant {
		return v
	}
	if c.semantic == nil {
		return v
	}
	return c.semantic.Evaluate(ctx, item)
}
