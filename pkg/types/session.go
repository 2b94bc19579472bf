package types

import "time"

// StopReason records why a session ended. Sessions always end with exactly
// one reason; stopping is idempotent so later reasons are ignored.
type StopReason string

const (
	StopGoalComplete  StopReason = "goal_complete"   // StopGoalComplete means the model issued finish.
	StopStepLimit     StopReason = "step_limit"      // StopStepLimit means the step budget was exhausted.
	StopStagnation    StopReason = "stagnation"      // StopStagnation means too many iterations without detected change.
	StopScrollStall   StopReason = "scroll_stall"    // StopScrollStall means consecutive scrolls produced negligible movement.
	StopNotApproved   StopReason = "not_approved"    // StopNotApproved means a flagged action was rejected or timed out.
	StopProviderError StopReason = "provider_error"  // StopProviderError means an unrecoverable provider failure.
	StopUnparseable   StopReason = "unparseable"     // StopUnparseable means no usable decision after all attempts.
	StopExecutorLost  StopReason = "executor_lost"   // StopExecutorLost means the page became unreachable.
	StopOutOfScope    StopReason = "out_of_scope"    // StopOutOfScope means navigation left the allowed-domain scope.
	StopRequested     StopReason = "stop_requested"  // StopRequested means an explicit external stop.
)

// Session is the unit of work: one run of the agent toward a single goal.
// At most one session is active at a time; the controller enforces this at
// start. All mutation happens on the controller's loop goroutine, guarded by
// the controller's lock.
type Session struct {
	ID   string `json:"id"`
	Goal string `json:"goal"`

	Running bool `json:"running"`

	Step     int `json:"step"`
	MaxSteps int `json:"max_steps"`

	StagnationCount int `json:"stagnation_count"`
	MaxStagnation   int `json:"max_stagnation"`

	ScrollStallCount int `json:"scroll_stall_count"`
	MaxScrollStall   int `json:"max_scroll_stall"`

	LastAction        *Action `json:"last_action,omitempty"`
	LastChangeSummary string  `json:"last_change_summary,omitempty"`

	PendingApproval *Approval `json:"pending_approval,omitempty"`

	StartedAt   time.Time  `json:"started_at"`
	StoppedAt   time.Time  `json:"stopped_at,omitzero"`
	StopCause   StopReason `json:"stop_cause,omitempty"`
	FinalAnswer string     `json:"final_answer,omitempty"`
}
