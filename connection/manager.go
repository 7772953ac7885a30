// Package connection manages the lifecycle of the single cached storage
// handle: lazy dialing, credential-fingerprint reuse, idle eviction and
// idempotent close.
package connection

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/couchmesh/core"
	"github.com/hupe1980/couchmesh/logging"
	"github.com/hupe1980/couchmesh/retry"
)

const (
	// DefaultConnectTimeout bounds each dial attempt.
	DefaultConnectTimeout = 10 * time.Second
	// DefaultIdleTimeout closes a handle no acquire has touched for 5 minutes.
	DefaultIdleTimeout = 5 * time.Minute
)

// CredentialSource supplies the credential tuple on every acquire, so value
// changes between calls drive re-acquisition.
type CredentialSource func() (core.Credentials, error)

// StaticCredentials adapts a fixed tuple into a CredentialSource.
func StaticCredentials(creds core.Credentials) CredentialSource {
	return func() (core.Credentials, error) { return creds, nil }
}

// Options configure a Manager.
type Options struct {
	// ConnectTimeout bounds each dial attempt.
	ConnectTimeout time.Duration
	// IdleTimeout is the inactivity window after which the cached handle
	// is closed automatically.
	IdleTimeout time.Duration
	// Clock drives the idle timer and activity timestamps; tests inject a fake.
	Clock core.Clock
	// Logger defaults to NoOpLogger.
	Logger logging.Logger
	// DialRetry, when non-nil, wraps each dial in a retry policy.
	DialRetry *retry.Retrier
}

// Manager owns at most one cached handle at a time, keyed by the credential
// fingerprint that produced it. Construct one per process (or one per
// independent test) and share it by reference. All methods are safe for
// concurrent use, including the idle-timer callback; a dial in progress
// holds the lock, serializing handle replacement.
type Manager struct {
	dialer core.Dialer
	source CredentialSource
	opts   Options

	mu           sync.Mutex
	handle       core.Handle
	fingerprint  *core.Credentials
	lastActivity time.Time
	idleTimer    core.Timer
}

// NewManager creates a manager in the disconnected state. The first Acquire
// dials lazily.
func NewManager(dialer core.Dialer, source CredentialSource, optFns ...func(o *Options)) *Manager {
	opts := Options{
		ConnectTimeout: DefaultConnectTimeout,
		IdleTimeout:    DefaultIdleTimeout,
		Clock:          core.RealClock{},
		Logger:         logging.NoOpLogger{},
	}
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Manager{dialer: dialer, source: source, opts: opts}
}

// Acquire returns the cached handle when the credential tuple is unchanged,
// resetting the idle timer. A changed tuple (or no cached handle) closes the
// stale handle if any — close errors are logged and swallowed, the handle is
// discarded either way — and dials a fresh one. A dial failure leaves the
// manager fully reset: no handle, no fingerprint, no pending timer.
func (m *Manager) Acquire(ctx context.Context) (core.Handle, error) {
	creds, err := m.source()
	if err != nil {
		return nil, core.E(core.KindValidation, "acquire", "", err)
	}
	if err := creds.Validate(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.handle != nil && m.fingerprint != nil && m.fingerprint.Equal(creds) {
		m.touchLocked()
		return m.handle, nil
	}

	if m.handle != nil {
		m.opts.Logger.Info("credentials changed, replacing storage handle", "endpoint", creds.Endpoint)
		m.closeLocked()
	}

	start := m.opts.Clock.Now()
	handle, err := m.dial(ctx, creds)
	if err != nil {
		m.closeLocked()
		return nil, err
	}

	m.handle = handle
	m.fingerprint = &creds
	m.touchLocked()
	m.opts.Logger.Info("storage handle opened",
		"endpoint", creds.Endpoint,
		"duration", m.opts.Clock.Now().Sub(start).String(),
	)
	return handle, nil
}

func (m *Manager) dial(ctx context.Context, creds core.Credentials) (core.Handle, error) {
	if m.opts.DialRetry == nil {
		return m.dialer.Dial(ctx, creds, m.opts.ConnectTimeout)
	}
	var handle core.Handle
	err := m.opts.DialRetry.Do(func() error {
		h, err := m.dialer.Dial(ctx, creds, m.opts.ConnectTimeout)
		if err != nil {
			return err
		}
		handle = h
		return nil
	})
	return handle, err
}

// Close releases the cached handle and cancels the idle timer. Calling it
// with no cached handle is a no-op; close errors from the handle are logged
// and swallowed.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closeLocked()
	return nil
}

// HasActiveConnection reports whether a handle is currently cached.
func (m *Manager) HasActiveConnection() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.handle != nil
}

// IdleTime reports the elapsed time since the last successful acquire, or
// zero when no handle has ever been cached.
func (m *Manager) IdleTime() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastActivity.IsZero() {
		return 0
	}
	return m.opts.Clock.Now().Sub(m.lastActivity)
}

// touchLocked records activity and (re)arms the idle timer. Caller holds mu.
func (m *Manager) touchLocked() {
	m.lastActivity = m.opts.Clock.Now()
	if m.idleTimer != nil {
		m.idleTimer.Reset(m.opts.IdleTimeout)
		return
	}
	m.idleTimer = m.opts.Clock.AfterFunc(m.opts.IdleTimeout, m.evict)
}

// evict is the idle-timer callback; it behaves exactly like Close.
func (m *Manager) evict() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.handle == nil {
		return
	}
	m.opts.Logger.Info("closing idle storage handle",
		"idle", m.opts.Clock.Now().Sub(m.lastActivity).String(),
	)
	m.closeLocked()
}

// closeLocked cancels the timer, closes the handle (errors swallowed) and
// clears the fingerprint. Caller holds mu.
func (m *Manager) closeLocked() {
	if m.idleTimer != nil {
		m.idleTimer.Stop()
		m.idleTimer = nil
	}
	if m.handle != nil {
		if err := m.handle.Close(); err != nil {
			m.opts.Logger.Warn("closing storage handle failed", "error", err)
		}
		m.handle = nil
	}
	m.fingerprint = nil
}
