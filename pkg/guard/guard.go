package guard

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// RootActionID names the orchestrator's own top-level action, the one
// action exempt from verification. The orchestrator is the issuer of
// grants and cannot be required to already hold one. Keeping this a
// constant avoids widening the bypass surface into an allow-list.
const RootActionID = "warden.orchestrate"

// contextKey is the private type for context values set by this package.
type contextKey string

const grantKey contextKey = "governance_grant"

// Grant is a task-scoped authorization marker issued by a Guard. It
// travels on the context returned by Authorize and authorizes every
// governed primitive invoked transitively on that context until released.
type Grant struct {
	// ID uniquely identifies this grant.
	ID string

	// ActionID is the orchestrator action the grant was issued for.
	ActionID string

	// IssuedAt records when the grant was created.
	IssuedAt time.Time

	guard   *Guard
	release sync.Once
}

// Release revokes the grant. Contexts still carrying it fail Verify
// afterwards. Release is idempotent and safe to defer, so the grant is
// revoked on every exit path including panics.
func (g *Grant) Release() {
	g.release.Do(func() {
		g.guard.revoke(g)
	})
}

// Guard issues and verifies authorization grants for governed mutating
// operations. Each Guard keeps its own ledger of active grants; grants
// issued by one Guard are not honored by another.
type Guard struct {
	mu     sync.RWMutex
	active map[string]*Grant
	logger *slog.Logger
}

// NewGuard creates a guard with an empty grant ledger. A nil logger
// falls back to slog.Default().
func NewGuard(logger *slog.Logger) *Guard {
	if logger == nil {
		logger = slog.Default()
	}
	return &Guard{
		active: make(map[string]*Grant),
		logger: logger.With("component", "guard"),
	}
}

// Authorize issues a grant for actionID and returns a context carrying
// it. The returned context authorizes the entire call chain it is passed
// through; the caller must release the grant when the governed call
// returns, normally via defer.
func (g *Guard) Authorize(ctx context.Context, actionID string) (context.Context, *Grant, error) {
	if actionID == "" {
		return ctx, nil, ErrEmptyActionID
	}

	grant := &Grant{
		ID:       uuid.NewString(),
		ActionID: actionID,
		IssuedAt: time.Now(),
		guard:    g,
	}

	g.mu.Lock()
	g.active[grant.ID] = grant
	g.mu.Unlock()

	g.logger.Debug("authorization granted",
		"action_id", actionID,
		"grant_id", grant.ID,
	)

	return context.WithValue(ctx, grantKey, grant), grant, nil
}

// Verify checks that ctx carries an active grant and returns a
// BypassError otherwise. actionID identifies the governed primitive being
// invoked; it is recorded for diagnostics and compared against
// RootActionID for the single root-authority exemption, but a grant
// issued for any action authorizes the whole chain.
func (g *Guard) Verify(ctx context.Context, actionID string) error {
	if actionID == RootActionID {
		return nil
	}

	grant, ok := ctx.Value(grantKey).(*Grant)
	if !ok {
		g.logger.Warn("governance bypass attempt",
			"action_id", actionID,
		)
		return &BypassError{ActionID: actionID}
	}

	g.mu.RLock()
	_, active := g.active[grant.ID]
	g.mu.RUnlock()

	if !active {
		g.logger.Warn("governance bypass attempt with released grant",
			"action_id", actionID,
			"grant_id", grant.ID,
			"granted_action", grant.ActionID,
		)
		return &BypassError{ActionID: actionID, GrantID: grant.ID}
	}

	return nil
}

// ActiveGrants returns the number of grants issued and not yet released.
func (g *Guard) ActiveGrants() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.active)
}

func (g *Guard) revoke(grant *Grant) {
	g.mu.Lock()
	delete(g.active, grant.ID)
	g.mu.Unlock()

	g.logger.Debug("authorization released",
		"action_id", grant.ActionID,
		"grant_id", grant.ID,
	)
}

var (
	defaultGuard *Guard
	defaultOnce  sync.Once
)

// Default returns the process-wide guard, creating it on first use.
//
// For testing, prefer injecting an explicit Guard instance rather than
// relying on the global.
func Default() *Guard {
	defaultOnce.Do(func() {
		defaultGuard = NewGuard(slog.Default())
	})
	return defaultGuard
}

// Authorize issues a grant from the process-wide guard. See Guard.Authorize.
func Authorize(ctx context.Context, actionID string) (context.Context, *Grant, error) {
	return Default().Authorize(ctx, actionID)
}

// Verify checks ctx against the process-wide guard. See Guard.Verify.
func Verify(ctx context.Context, actionID string) error {
	return Default().Verify(ctx, actionID)
}
