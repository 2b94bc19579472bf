// Package executor defines the browser-side capability the agent drives.
//
// The control loop never touches a browser directly. It observes and acts
// through this interface, so any automation backend that can read page state
// and perform normalized actions can host a session. A playwright-backed
// implementation lives in the playwright subpackage.
package executor

import (
	"context"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// Result reports the outcome of one performed action. A failed action is
// not fatal to the session; the loop surfaces Message back to the model on
// the next step.
type Result struct {
	OK      bool
	Message string
}

// Executor is the browser capability surface consumed by the control loop.
type Executor interface {
	// GetPageState captures the current observation: URL, title, viewport,
	// scroll state, interactive elements, text excerpt, and screenshot.
	GetPageState(ctx context.Context) (*types.Observation, error)

	// PerformAction executes one normalized action against the page.
	// A nil error with Result.OK false means the action failed softly,
	// for example a selector that matched nothing.
	PerformAction(ctx context.Context, action *types.Action) (*Result, error)

	// Ping verifies the browser target is still reachable. The loop stops
	// the session when liveness is lost.
	Ping(ctx context.Context) error

	// SetRunningIndicator toggles any in-page affordance showing that an
	// automated session is active, with the current step for display.
	// Implementations may treat it as a no-op. Failures are best-effort
	// and never end the session.
	SetRunningIndicator(ctx context.Context, active bool, step int) error
}
