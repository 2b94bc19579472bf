package types

import "time"

// ApprovalDecision is the terminal resolution of an approval request.
type ApprovalDecision string

const (
	ApprovalPending  ApprovalDecision = ""         // ApprovalPending means no resolution yet.
	ApprovalApproved ApprovalDecision = "approved" // ApprovalApproved means the action may execute.
	ApprovalRejected ApprovalDecision = "rejected" // ApprovalRejected means the action must not execute.
	ApprovalTimeout  ApprovalDecision = "timeout"  // ApprovalTimeout means no resolution arrived in the wait window.
)

// Approval is a human-in-the-loop gate record for one flagged action.
// Exactly one approval may be pending per session; resolution is terminal.
type Approval struct {
	ID            string           `json:"id"`
	Action        Action           `json:"action"`
	Description   string           `json:"description"`
	Reason        string           `json:"reason"`
	TargetSummary string           `json:"target_summary,omitempty"`
	CreatedAt     time.Time        `json:"created_at"`
	Decision      ApprovalDecision `json:"decision,omitempty"`
	DecidedAt     time.Time        `json:"decided_at,omitzero"`
}

// Resolved reports whether a terminal decision has been recorded.
func (a *Approval) Resolved() bool {
	return a.Decision != ApprovalPending
}
