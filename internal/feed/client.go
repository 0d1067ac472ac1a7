package feed

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/domain"
)

// Package feed defines the provider capability surface the ingestion engine
// consumes. The provider itself (handshake, entity resolution, message
// retrieval) is opaque behind the Client interface.

// Handle identifies a resolved provider-side entity for a source.
type Handle struct {
	ID       int64
	Username string
	Title    string
}

// Client is the narrow surface of the remote feed provider.
type Client interface {
	// Connect establishes the provider connection for the session credential.
	Connect(ctx context.Context) error
	// Authorized verifies the credential identifies an active principal and
	// returns a human-readable principal name.
	Authorized(ctx context.Context) (string, error)
	// Resolve maps a normalized source identity to a provider-side handle.
	Resolve(ctx context.Context, source string) (Handle, error)
	// FetchSince returns items with sequence numbers greater than sinceSeq,
	// at most limit of them, in ascending sequence order.
	FetchSince(ctx context.Context, h Handle, sinceSeq int64, limit int) ([]domain.Item, error)
	// CurrentMax returns the highest sequence number currently present.
	CurrentMax(ctx context.Context, h Handle) (int64, error)
	Close() error
}

// ErrUnauthorized signals the provider rejected the session credential.
var ErrUnauthorized = errors.New("feed: credential not authorized")

// ErrSourceUnresolvable signals the source identity has no provider-side entity.
var ErrSourceUnresolvable = errors.New("feed: source unresolvable")

// FloodWaitError is the provider-mandated cool-down after exceeding a rate
// limit. No provider call may be made for at least RetryAfter.
type FloodWaitError struct {
	RetryAfter time.Duration
}

func (e *FloodWaitError) Error() string {
	return fmt.Sprintf("feed: flood wait %s", e.RetryAfter)
}
