package storage

import (
	"fmt"
	"strings"
	"time"
)

// Package storage provides the optional persistent fingerprint store. It is
// a second line of dedup defense behind the in-memory window: fingerprints
// marked here survive process restarts, cursors do not.

// Store tracks delivered item fingerprints.
type Store interface {
	Close() error
	SeenFingerprint(fp string) (bool, error)
	MarkFingerprint(fp string) error
}

// Options controls retention characteristics for concrete store implementations.
type Options struct {
	FingerprintTTL  time.Duration
	CleanupInterval time.Duration
}

const (
	defaultFingerprintTTL  = 5 * 24 * time.Hour
	defaultCleanupInterval = 12 * time.Hour
)

// NewStore creates the configured storage backend.
func NewStore(typ, path string, opts Options) (Store, error) {
	typ = strings.TrimSpace(strings.ToLower(typ))
	opts = normalizeOptions(opts)

	switch typ {
	case "", "none", "disabled":
		return noopStore{}, nil
	case "bbolt":
		if strings.TrimSpace(path) == "" {
			return nil, fmt.Errorf("bbolt storage requires a path")
		}
		return openBolt(path, opts)
	default:
		return nil, fmt.Errorf("unsupported storage type %q", typ)
	}
}

func normalizeOptions(opts Options) Options {
	if opts.FingerprintTTL <= 0 {
		opts.FingerprintTTL = defaultFingerprintTTL
	}
	if opts.CleanupInterval <= 0 {
		opts.CleanupInterval = defaultCleanupInterval
	}
	return opts
}

type noopStore struct{}

func (noopStore) Close() error                         { return nil }
func (noopStore) SeenFingerprint(string) (bool, error) { return false, nil }
func (noopStore) MarkFingerprint(string) error         { return nil }
