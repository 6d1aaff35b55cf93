package service

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/atinyakov/FoodScan/internal/errs"
)

// GateState is the session gate's current decision.
type GateState int

const (
	// Checking means a session lookup is in progress.
	Checking GateState = iota
	// Authenticated routes the user to the dashboard.
	Authenticated
	// Unauthenticated routes the user to the login form.
	Unauthenticated
)

func (s GateState) String() string {
	switch s {
	case Checking:
		return "checking"
	case Authenticated:
		return "authenticated"
	case Unauthenticated:
		return "unauthenticated"
	default:
		return "unknown"
	}
}

// AccountGateway is the slice of the account store the gate needs.
type AccountGateway interface {
	SessionSource
	// SignOut invalidates the current session.
	SignOut(ctx context.Context) error
}

// SessionGate decides, on each focus-in to the gated area, whether to present
// the dashboard or the login form. The decided state holds for the duration
// of one focus visit; only the next Resolve re-enters Checking.
type SessionGate struct {
	accounts AccountGateway
	log      *zap.Logger

	mu    sync.Mutex
	state GateState
}

// NewSessionGate constructs a gate in the Checking state.
func NewSessionGate(accounts AccountGateway, log *zap.Logger) *SessionGate {
	return &SessionGate{accounts: accounts, log: log, state: Checking}
}

// State returns the gate's current state.
func (g *SessionGate) State() GateState {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Resolve runs one focus visit: enter Checking, look the session up, land on
// Authenticated or Unauthenticated. A lookup error is treated the same as no
// session and only logged. Overlapping Resolve calls from a rapid re-focus
// are benign; the last write wins.
func (g *SessionGate) Resolve(ctx context.Context) GateState {
	g.mu.Lock()
	g.state = Checking
	g.mu.Unlock()

	next := Unauthenticated
	sess, err := g.accounts.Session()
	switch {
	case err != nil:
		g.log.Debug("session lookup failed", zap.Error(err))
	case sess.Valid():
		next = Authenticated
	}

	g.mu.Lock()
	g.state = next
	g.mu.Unlock()
	return next
}

// SignOut invalidates the remote session. It is only available from the
// Authenticated state. The gate re-enters Checking either way, so the next
// Resolve runs a fresh lookup, mirroring the forced navigation back to the
// gate after sign-out.
func (g *SessionGate) SignOut(ctx context.Context) error {
	g.mu.Lock()
	if g.state != Authenticated {
		g.mu.Unlock()
		return errs.ErrNoSession
	}
	g.mu.Unlock()

	err := g.accounts.SignOut(ctx)

	g.mu.Lock()
	g.state = Checking
	g.mu.Unlock()
	return err
}
