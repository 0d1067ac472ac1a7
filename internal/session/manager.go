package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jobradar-hq/jobradar-feedwatch/internal/feed"
	"github.com/jobradar-hq/jobradar-feedwatch/internal/logger"
)

// Package session owns the provider connection. It is the only component
// allowed to build, replace, or tear down the live feed client. The manager
// is strictly headless: a lost credential is alerted and re-polled from the
// secret store, never acquired interactively.

// State is the position in the reconnect/rotation state machine.
type State int

const (
	StateNoCredential State = iota
	StateConnecting
	StateAuthorized
	StateUnauthorized
	StateFloodWait
)

func (s State) String() string {
	switch s {
	case StateNoCredential:
		return "no_credential"
	case StateConnecting:
		return "connecting"
	case StateAuthorized:
		return "authorized"
	case StateUnauthorized:
		return "unauthorized"
	case StateFloodWait:
		return "flood_wait"
	default:
		return "unknown"
	}
}

// ErrNoCredential signals no session credential is available from either
// the secret store or local configuration.
var ErrNoCredential = errors.New("session: no credential available")

// ErrCredentialInvalid signals the current credential cannot produce a
// session; it must be rotated out-of-band.
var ErrCredentialInvalid = errors.New("session: credential invalid")

// SecretSource reads the rotating session credential.
type SecretSource interface {
	Secret(ctx context.Context, key string) (string, bool)
}

// Dialer constructs a feed client from a credential value.
type Dialer func(credential string) (feed.Client, error)

// Notifier posts best-effort operator alerts.
type Notifier interface {
	Notify(ctx context.Context, text string)
}

// Manager drives the connect/authorize/flood-backoff/rotation lifecycle.
// It is not safe for concurrent use; the single ingestion worker owns it.
type Manager struct {
	secrets   SecretSource
	secretKey string
	fallback  string
	dial      Dialer
	notify    Notifier
	log       logger.Logger

	state      State
	credential string
	client     feed.Client
	floodUntil time.Time

	now func() time.Time
}

// NewManager builds a session manager. fallback is the locally configured
// credential used when the secret store has no value; it may be empty.
func NewManager(secrets SecretSource, secretKey, fallback string, dial Dialer, notify Notifier, log logger.Logger) *Manager {
	if log == nil {
		log = &logger.NopLogger{}
	}
	return &Manager{
		secrets:   secrets,
		secretKey: secretKey,
		fallback:  fallback,
		dial:      dial,
		notify:    notify,
		log:       log,
		state:     StateNoCredential,
		now:       time.Now,
	}
}

// State returns the current machine state for health reporting.
func (m *Manager) State() State {
	return m.state
}

// ReportFloodWait arms the flood gate: Ensure and FloodRemaining fail fast
// until at least d has elapsed.
func (m *Manager) ReportFloodWait(d time.Duration) {
	until := m.now().Add(d)
	if until.After(m.floodUntil) {
		m.floodUntil = until
	}
	m.state = StateFloodWait
}

// FloodRemaining returns how long the provider-mandated cool-down still has
// to run, or zero when calls are allowed again.
func (m *Manager) FloodRemaining() time.Duration {
	if remaining := m.floodUntil.Sub(m.now()); remaining > 0 {
		return remaining
	}
	return 0
}

// Invalidate drops the live client so the next Ensure re-polls the secret
// store and reconnects. Called when authorization loss is observed mid-cycle.
func (m *Manager) Invalidate() {
	m.teardown()
	m.state = StateUnauthorized
}

// Close tears down the live connection.
func (m *Manager) Close() error {
	m.teardown()
	m.state = StateNoCredential
	return nil
}

// Ensure returns a live authorized client, rotating the session when the
// secret store holds a different credential than the one in use. All
// failure modes come back as typed errors the coordinator can map to
// health statuses.
func (m *Manager) Ensure(ctx context.Context) (feed.Client, error) {
	if remaining := m.FloodRemaining(); remaining > 0 {
		m.state = StateFloodWait
		return nil, &feed.FloodWaitError{RetryAfter: remaining}
	}

	credential, ok := m.currentCredential(ctx)
	if !ok {
		m.teardown()
		m.state = StateNoCredential
		return nil, ErrNoCredential
	}

	// Rotation: a changed credential replaces the session wholesale even
	// when the old connection was still authorized.
	if m.client != nil && credential != m.credential {
		m.log.InfoObj("session credential rotated, reconnecting", "session_state", m.state.String())
		m.alert(ctx, "session credential rotated; reconnecting with the new value")
		m.teardown()
	}

	if m.client == nil {
		if err := m.connect(ctx, credential); err != nil {
			return nil, err
		}
	}

	principal, err := m.client.Authorized(ctx)
	if err != nil {
		return nil, m.handleAuthError(ctx, err)
	}

	if m.state != StateAuthorized {
		m.log.InfoObj("session authorized", "principal", principal)
	}
	m.state = StateAuthorized
	return m.client, nil
}

func (m *Manager) connect(ctx context.Context, credential string) error {
	m.state = StateConnecting

	client, err := m.dial(credential)
	if err != nil {
		// A credential that cannot produce a session object is handled
		// like a missing one: alert and wait for out-of-band rotation.
		m.state = StateNoCredential
		m.alert(ctx, "session credential is malformed and must be rotated: "+err.Error())
		return fmt.Errorf("%w: %v", ErrCredentialInvalid, err)
	}

	if err := client.Connect(ctx); err != nil {
		var fw *feed.FloodWaitError
		if errors.As(err, &fw) {
			client.Close()
			m.ReportFloodWait(fw.RetryAfter)
			return fw
		}
		client.Close()
		return fmt.Errorf("connect provider: %w", err)
	}

	m.client = client
	m.credential = credential
	return nil
}

func (m *Manager) handleAuthError(ctx context.Context, err error) error {
	var fw *feed.FloodWaitError
	switch {
	case errors.As(err, &fw):
		m.ReportFloodWait(fw.RetryAfter)
		return fw
	case errors.Is(err, feed.ErrUnauthorized):
		// Authorization loss: drop the session and re-poll the secret
		// store on the next attempt in case the credential was rotated.
		m.teardown()
		m.state = StateUnauthorized
		m.alert(ctx, "provider rejected the session credential; re-polling secret store for a rotated value")
		return feed.ErrUnauthorized
	default:
		return fmt.Errorf("authorize check: %w", err)
	}
}

// currentCredential prefers the secret store value and falls back to local
// configuration.
func (m *Manager) currentCredential(ctx context.Context) (string, bool) {
	if m.secrets != nil {
		if value, ok := m.secrets.Secret(ctx, m.secretKey); ok && value != "" {
			return value, true
		}
	}
	if m.fallback != "" {
		return m.fallback, true
	}
	return "", false
}

func (m *Manager) teardown() {
	if m.client != nil {
		m.client.Close()
		m.client = nil
	}
	m.credential = ""
}

func (m *Manager) alert(ctx context.Context, text string) {
	if m.notify == nil {
		return
	}
	m.notify.Notify(ctx, text)
}
