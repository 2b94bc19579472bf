package approval

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// Notifier surfaces a newly pending approval to whatever hosts the session,
// typically a CLI prompt or UI overlay. It must not block.
type Notifier func(*types.Approval)

// Manager owns the single pending approval slot for a session and the
// bounded wait for its resolution.
type Manager struct {
	timeout time.Duration
	notify  Notifier

	mu      sync.Mutex
	pending *pendingApproval
}

// pendingApproval tracks one request waiting for resolution.
type pendingApproval struct {
	approval  *types.Approval
	response  chan types.ApprovalDecision
	closeOnce sync.Once
}

// NewManager creates an approval manager. notify may be nil when the host
// polls Pending instead of being pushed to.
func NewManager(timeout time.Duration, notify Notifier) *Manager {
	return &Manager{timeout: timeout, notify: notify}
}

// Request creates the pending approval for a flagged action and blocks
// until it is resolved, times out, or ctx is cancelled. Cancellation counts
// as rejection. Exactly one approval may be pending; a second concurrent
// request is an error in the caller's sequencing.
func (m *Manager) Request(ctx context.Context, action *types.Action, reason string) (types.ApprovalDecision, error) {
	approval := &types.Approval{
		ID:            uuid.New().String(),
		Action:        *action,
		Description:   action.Describe(),
		Reason:        reason,
		TargetSummary: targetSummary(action),
		CreatedAt:     time.Now(),
	}

	pa := &pendingApproval{
		approval: approval,
		response: make(chan types.ApprovalDecision, 1),
	}

	m.mu.Lock()
	if m.pending != nil {
		m.mu.Unlock()
		return types.ApprovalRejected, fmt.Errorf("approval %s still pending", m.pending.approval.ID)
	}
	m.pending = pa
	m.mu.Unlock()

	defer m.cleanup(pa)

	if m.notify != nil {
		m.notify(approval)
	}

	timeout := time.NewTimer(m.timeout)
	defer timeout.Stop()

	select {
	case <-ctx.Done():
		approval.Decision = types.ApprovalRejected
		approval.DecidedAt = time.Now()
		return types.ApprovalRejected, nil

	case <-timeout.C:
		approval.Decision = types.ApprovalTimeout
		approval.DecidedAt = time.Now()
		return types.ApprovalTimeout, nil

	case decision, ok := <-pa.response:
		if !ok {
			decision = types.ApprovalRejected
		}
		approval.Decision = decision
		approval.DecidedAt = time.Now()
		return decision, nil
	}
}

// Resolve records the human decision for the pending approval. Returns
// false when no approval with that id is waiting, which the host should
// treat as a stale prompt.
func (m *Manager) Resolve(id string, approved bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.pending == nil || m.pending.approval.ID != id {
		return false
	}

	decision := types.ApprovalRejected
	if approved {
		decision = types.ApprovalApproved
	}

	// Non-blocking send: cleanup may already be underway after a timeout.
	select {
	case m.pending.response <- decision:
	default:
	}
	return true
}

// Pending returns the approval currently awaiting resolution, or nil.
func (m *Manager) Pending() *types.Approval {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.pending == nil {
		return nil
	}
	return m.pending.approval
}

// Clear drops the pending slot without resolving it. Used by session
// cleanup so a stop never leaves a dangling prompt.
func (m *Manager) Clear() {
	m.mu.Lock()
	pa := m.pending
	m.pending = nil
	m.mu.Unlock()

	if pa != nil {
		pa.closeOnce.Do(func() { close(pa.response) })
	}
}

func (m *Manager) cleanup(pa *pendingApproval) {
	m.mu.Lock()
	if m.pending == pa {
		m.pending = nil
	}
	m.mu.Unlock()

	pa.closeOnce.Do(func() { close(pa.response) })
}

func targetSummary(action *types.Action) string {
	switch {
	case action.TargetLabel != "":
		return action.TargetLabel
	case action.TargetText != "":
		return action.TargetText
	default:
		return action.Selector
	}
}
