package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"
)

// Domain contains core models shared across the ingestion engine.

// KindTelegram is the only provider kind this engine ingests. Registry
// entries carrying any other kind tag are filtered out at fetch time.
const KindTelegram = "telegram"

// Source is one externally configured feed endpoint (channel/group).
// The identity is the normalized form produced by the registry client.
type Source struct {
	Identity string `json:"id" yaml:"id"`
	Title    string `json:"title" yaml:"title"`
	Enabled  bool   `json:"enabled" yaml:"enabled"`
	Kind     string `json:"kind" yaml:"kind"`
}

// Item is a single message fetched from a source. Seq is the
// provider-assigned sequence number, monotonic within a source.
type Item struct {
	Seq    int64
	Text   string
	Date   time.Time
	Author string
	URL    string
}

// ItemFingerprint derives the stable idempotency key for an item from its
// source identity and sequence number. The same pair always yields the same
// fingerprint, so re-delivery across cycles or restarts is detectable by
// the sink.
func ItemFingerprint(sourceIdentity string, seq int64) string {
	raw := fmt.Sprintf("tg:%s:%d", sourceIdentity, seq)
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}

// CycleStats aggregates counters for one ingestion cycle.
type CycleStats struct {
	Sources    int
	Seen       int
	Filtered   int
	Delivered  int
	Duplicates int
	Failed     int
}
