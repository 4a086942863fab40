package entitlement

import (
	"context"
	"sync"
	"time"

	"github.com/web3shield/shield-sdk/pkg/core"
	"github.com/web3shield/shield-sdk/pkg/errors"
)

// DefaultRefreshRetryDelay is how long the manager waits before re-checking
// the credit balance after a sign-in. The identity store may lag behind the
// auth event, so the first lookup can observe a pre-provisioning balance.
const DefaultRefreshRetryDelay = 1500 * time.Millisecond

// CreditSource looks up the current credit balance for a user.
type CreditSource interface {
	Credits(ctx context.Context, userID string) (int, error)
}

// CreditSourceFunc adapts a function to the CreditSource interface.
type CreditSourceFunc func(ctx context.Context, userID string) (int, error)

func (f CreditSourceFunc) Credits(ctx context.Context, userID string) (int, error) {
	return f(ctx, userID)
}

// Manager owns the entitlement state. All mutation goes through it; callers
// read snapshots via State and never write fields directly.
//
// Credit refreshes carry a monotonic sequence number. A response is applied
// only if no newer refresh has completed since it was issued, so a slow
// lookup cannot overwrite a fresher balance. Signing out bumps the session
// epoch, which turns any in-flight refresh into a no-op.
type Manager struct {
	mu    sync.Mutex
	state State

	epoch      uint64 // incremented on sign-out
	nextSeq    uint64
	appliedSeq uint64

	retryTimer *time.Timer

	credits    CreditSource
	retryDelay time.Duration
	logger     core.Logger
}

// ManagerOption configures a Manager.
type ManagerOption func(*Manager)

// WithLogger sets the logger used for refresh diagnostics.
func WithLogger(l core.Logger) ManagerOption {
	return func(m *Manager) {
		if l != nil {
			m.logger = l
		}
	}
}

// WithRefreshRetryDelay overrides the post-sign-in re-check delay.
func WithRefreshRetryDelay(d time.Duration) ManagerOption {
	return func(m *Manager) {
		if d > 0 {
			m.retryDelay = d
		}
	}
}

// NewManager creates a Manager backed by the given credit source.
func NewManager(credits CreditSource, opts ...ManagerOption) *Manager {
	m := &Manager{
		credits:    credits,
		retryDelay: DefaultRefreshRetryDelay,
		logger:     core.NopLogger{},
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a snapshot of the current entitlement state.
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// SetLicenseKey records the user's license key for zero-balance deep scans.
func (m *Manager) SetLicenseKey(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.state.LicenseKey = key
}

// SignIn records an authenticated session, refreshes the balance once
// immediately, and schedules the single compensating re-check. The identity
// store is eventually consistent after provisioning, so the immediate lookup
// can see zero; the delayed one catches up. Exactly one retry, never more.
func (m *Manager) SignIn(ctx context.Context, userID string) error {
	m.mu.Lock()
	m.state.Authenticated = true
	m.state.UserID = userID
	epoch := m.epoch
	m.mu.Unlock()

	if err := m.Refresh(ctx); err != nil {
		m.logger.Warn("initial credit refresh after sign-in failed: %v", err)
	}

	m.mu.Lock()
	if m.retryTimer != nil {
		m.retryTimer.Stop()
	}
	m.retryTimer = time.AfterFunc(m.retryDelay, func() {
		m.mu.Lock()
		stale := m.epoch != epoch
		m.mu.Unlock()
		if stale {
			return
		}
		if err := m.Refresh(context.Background()); err != nil {
			m.logger.Warn("delayed credit refresh failed: %v", err)
		}
	})
	m.mu.Unlock()
	return nil
}

// SignOut clears the session. Any refresh still in flight resolves against
// the old epoch and is discarded.
func (m *Manager) SignOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.epoch++
	if m.retryTimer != nil {
		m.retryTimer.Stop()
		m.retryTimer = nil
	}
	m.state = State{LicenseKey: m.state.LicenseKey}
}

// Refresh fetches the balance from the credit source and applies it unless
// a newer refresh already completed or the session changed underneath it.
func (m *Manager) Refresh(ctx context.Context) error {
	const op = "entitlement.Refresh"

	m.mu.Lock()
	if !m.state.Authenticated {
		m.mu.Unlock()
		return errors.E(op, errors.KindAuth, errors.ErrNotAuthenticated)
	}
	userID := m.state.UserID
	epoch := m.epoch
	m.nextSeq++
	seq := m.nextSeq
	m.mu.Unlock()

	balance, err := m.credits.Credits(ctx, userID)
	if err != nil {
		return errors.E(op, "credit lookup failed", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.epoch != epoch {
		m.logger.Debug("discarding credit refresh from a previous session")
		return nil
	}
	if seq < m.appliedSeq {
		m.logger.Debug("discarding stale credit refresh seq=%d applied=%d", seq, m.appliedSeq)
		return nil
	}
	m.appliedSeq = seq
	m.state.Credits = balance
	m.state.CreditsKnown = true
	m.logger.Debug("credit balance updated: %d", balance)
	return nil
}
