// Package session tracks the operator's authentication state and the
// edit-mode flag. The gate is an explicit state container passed through
// dependencies; observers subscribe for transitions instead of polling a
// package-level global.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/FullBlownAinz/dotcom/internal/gateway"
	"go.uber.org/zap"
)

// State is the authentication state machine position.
type State string

const (
	StateLoggedOut State = "logged_out"
	StateLoggedIn  State = "logged_in"
)

// Snapshot is a point-in-time view of the gate delivered to subscribers.
type Snapshot struct {
	State    State
	Session  gateway.Session
	EditMode bool
}

// GateConfig configures a Gate.
type GateConfig struct {
	Clock  func() time.Time
	Logger *zap.Logger
}

// Gate gatekeeps edit mode on the presence of an authenticated session.
// Edit mode may only turn on while logged in; any transition to logged out
// forces edit mode off in the same notification.
type Gate struct {
	mu          sync.Mutex
	loggedIn    bool
	session     gateway.Session
	editMode    bool
	subscribers map[int64]func(Snapshot)
	nextID      int64
	clock       func() time.Time
	logger      *zap.Logger
}

// NewGate constructs a gate in the logged-out state.
func NewGate(cfg GateConfig) *Gate {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{
		subscribers: make(map[int64]func(Snapshot)),
		clock:       clock,
		logger:      logger,
	}
}

// Snapshot returns the current gate state.
func (g *Gate) Snapshot() Snapshot {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.snapshotLocked()
}

func (g *Gate) snapshotLocked() Snapshot {
	state := StateLoggedOut
	if g.loggedIn {
		state = StateLoggedIn
	}
	return Snapshot{State: state, Session: g.session, EditMode: g.editMode}
}

// LoggedIn reports whether an operator session is present.
func (g *Gate) LoggedIn() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.loggedIn
}

// EditMode reports whether edit mode is active.
func (g *Gate) EditMode() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.editMode
}

// Session returns the recorded session, if any.
func (g *Gate) Session() (gateway.Session, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.session, g.loggedIn
}

// SetSession records a session obtained from a successful credential
// exchange and transitions the gate to logged in.
func (g *Gate) SetSession(s gateway.Session) {
	g.mu.Lock()
	g.loggedIn = true
	g.session = s
	snapshot, fns := g.collectLocked()
	g.mu.Unlock()
	dispatch(snapshot, fns)
}

// ClearSession transitions the gate to logged out, regardless of what caused
// the session loss. Edit mode is forced off as part of the same transition.
func (g *Gate) ClearSession() {
	g.mu.Lock()
	wasEditing := g.editMode
	g.loggedIn = false
	g.session = gateway.Session{}
	g.editMode = false
	snapshot, fns := g.collectLocked()
	g.mu.Unlock()
	if wasEditing {
		g.logger.Info("session lost, edit mode forced off")
	}
	dispatch(snapshot, fns)
}

// SetEditMode toggles the edit-mode flag. Turning it on requires a session;
// turning it off is always allowed.
func (g *Gate) SetEditMode(on bool) error {
	g.mu.Lock()
	if on && !g.loggedIn {
		g.mu.Unlock()
		return gateway.ErrNotAuthenticated
	}
	if g.editMode == on {
		g.mu.Unlock()
		return nil
	}
	g.editMode = on
	snapshot, fns := g.collectLocked()
	g.mu.Unlock()
	dispatch(snapshot, fns)
	return nil
}

// Subscribe registers a transition observer. The returned function removes
// the subscription.
func (g *Gate) Subscribe(fn func(Snapshot)) func() {
	g.mu.Lock()
	g.nextID++
	id := g.nextID
	g.subscribers[id] = fn
	g.mu.Unlock()
	return func() {
		g.mu.Lock()
		delete(g.subscribers, id)
		g.mu.Unlock()
	}
}

// WatchExpiry polls the recorded session against the clock and clears it
// once expired. Passive expiry observed here triggers the same forced
// edit-mode exit as an explicit sign-out.
func (g *Gate) WatchExpiry(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			g.CheckExpiry()
		}
	}
}

// CheckExpiry clears the session if it has passed its expiry.
func (g *Gate) CheckExpiry() {
	g.mu.Lock()
	expired := g.loggedIn && g.session.Expired(g.clock())
	g.mu.Unlock()
	if expired {
		g.logger.Info("operator session expired")
		g.ClearSession()
	}
}

func (g *Gate) collectLocked() (Snapshot, []func(Snapshot)) {
	fns := make([]func(Snapshot), 0, len(g.subscribers))
	for _, fn := range g.subscribers {
		fns = append(fns, fn)
	}
	return g.snapshotLocked(), fns
}

func dispatch(snapshot Snapshot, fns []func(Snapshot)) {
	for _, fn := range fns {
		fn(snapshot)
	}
}
