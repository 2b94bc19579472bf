// Package agent implements the session controller: the decision loop that
// observes a page, asks the configured provider for the next action, gates
// risky actions behind human approval, and stops itself when progress
// stalls.
//
// Example usage:
//
//	provider, _ := factory.New(llmCfg)
//	ctrl := agent.NewController(provider, exec,
//	    agent.WithGate(approval.NewGate(true, keywords)),
//	)
//	session, err := ctrl.Start(ctx, "find the cheapest flight to Lisbon")
package agent

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/webpilot-ai/webpilot/pkg/agent/approval"
	"github.com/webpilot-ai/webpilot/pkg/config"
	"github.com/webpilot-ai/webpilot/pkg/executor"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/llm/tokenizer"
	"github.com/webpilot-ai/webpilot/pkg/logging"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

var log *logging.Logger

func init() {
	var err error
	log, err = logging.NewLogger("agent")
	if err != nil {
		log.Warnf("Failed to initialize agent logger, using stderr fallback: %v", err)
	}
}

// Config holds the per-session tuning knobs. Zero values are replaced with
// the defaults from the agent config section.
type Config struct {
	MaxSteps        int
	MaxStagnation   int
	MaxScrollStall  int
	SettleDelay     time.Duration
	ApprovalTimeout time.Duration

	// Language the final answer should be written in, e.g. "en".
	Language string

	// Generation parameters forwarded to the provider.
	Temperature     float64
	MaxOutputTokens int

	// AutoApprove executes flagged actions without waiting for a human.
	// Intended for unattended runs against trusted goals.
	AutoApprove bool
}

func (c *Config) applyDefaults() {
	if c.MaxSteps <= 0 {
		c.MaxSteps = config.DefaultMaxSteps
	}
	if c.MaxStagnation <= 0 {
		c.MaxStagnation = config.DefaultMaxStagnation
	}
	if c.MaxScrollStall <= 0 {
		c.MaxScrollStall = config.DefaultMaxScrollStall
	}
	if c.SettleDelay <= 0 {
		c.SettleDelay = config.DefaultSettleDelayMS * time.Millisecond
	}
	if c.ApprovalTimeout <= 0 {
		c.ApprovalTimeout = config.DefaultApprovalTimeoutMS * time.Millisecond
	}
	if c.Temperature <= 0 {
		c.Temperature = 0.2
	}
	if c.MaxOutputTokens <= 0 {
		c.MaxOutputTokens = 1024
	}
}

// tokenCounter abstracts the tokenizer behind the prompt budget.
type tokenCounter interface {
	CountTokens(text string) int
}

// Controller drives at most one session at a time. Starting a new session
// while one is running stops the prior one first.
type Controller struct {
	provider llm.Provider
	exec     executor.Executor
	gate     *approval.Gate
	scope    *config.ScopeGuard
	cfg      Config
	tok      tokenCounter
	notify   approval.Notifier

	chat *types.ChatLog

	mu           sync.Mutex
	session      *types.Session
	approvals    *approval.Manager
	cancel       context.CancelFunc
	stopOnce     *sync.Once
	done         chan struct{}
	instructions []string
}

// ControllerOption configures a Controller.
type ControllerOption func(*Controller)

// WithConfig sets the session tuning knobs.
func WithConfig(cfg Config) ControllerOption {
	return func(c *Controller) {
		c.cfg = cfg
	}
}

// WithGate sets the risk gate. Without one, no action is ever flagged.
func WithGate(gate *approval.Gate) ControllerOption {
	return func(c *Controller) {
		c.gate = gate
	}
}

// WithScopeGuard restricts navigation to the configured domain patterns.
func WithScopeGuard(scope *config.ScopeGuard) ControllerOption {
	return func(c *Controller) {
		c.scope = scope
	}
}

// WithApprovalNotifier sets the callback invoked when an approval becomes
// pending. It must not block.
func WithApprovalNotifier(notify approval.Notifier) ControllerOption {
	return func(c *Controller) {
		c.notify = notify
	}
}

// WithChatLimit bounds the transcript ring.
func WithChatLimit(limit int) ControllerOption {
	return func(c *Controller) {
		c.chat = types.NewChatLog(limit)
	}
}

// NewController creates a controller over the given provider and executor.
func NewController(provider llm.Provider, exec executor.Executor, opts ...ControllerOption) *Controller {
	c := &Controller{
		provider: provider,
		exec:     exec,
		gate:     approval.NewGate(false, nil),
		chat:     types.NewChatLog(types.DefaultChatLimit),
	}
	if tok, err := tokenizer.New(); err == nil {
		c.tok = tok
	}
	for _, opt := range opts {
		opt(c)
	}
	c.cfg.applyDefaults()
	return c
}

// Start begins a session toward the given goal. If a session is already
// running it is stopped first; no two sessions overlap.
func (c *Controller) Start(ctx context.Context, goal string) (*types.Session, error) {
	if goal == "" {
		return nil, fmt.Errorf("goal is required")
	}

	// Stop any running session and wait for its loop to exit.
	c.Stop(types.StopRequested)

	loopCtx, cancel := context.WithCancel(ctx)

	session := &types.Session{
		ID:             uuid.New().String(),
		Goal:           goal,
		Running:        true,
		MaxSteps:       c.cfg.MaxSteps,
		MaxStagnation:  c.cfg.MaxStagnation,
		MaxScrollStall: c.cfg.MaxScrollStall,
		StartedAt:      time.Now(),
	}

	// Mirror pending approvals onto the session record before handing them
	// to the host's notifier.
	notify := func(a *types.Approval) {
		c.mu.Lock()
		if c.session == session {
			session.PendingApproval = a
		}
		c.mu.Unlock()
		if c.notify != nil {
			c.notify(a)
		}
	}

	c.mu.Lock()
	c.session = session
	c.approvals = approval.NewManager(c.cfg.ApprovalTimeout, notify)
	c.cancel = cancel
	c.stopOnce = &sync.Once{}
	c.done = make(chan struct{})
	c.mu.Unlock()

	c.chat.Append(types.RoleUser, goal, nil)
	log.Infof("session %s started: %s", session.ID, goal)

	go c.runLoop(loopCtx, session)
	return session, nil
}

// Stop ends the running session with the given reason. Stopping is
// idempotent; when no session is running it is a no-op. Stop returns after
// the loop goroutine has exited.
func (c *Controller) Stop(reason types.StopReason) {
	c.mu.Lock()
	session := c.session
	done := c.done
	c.mu.Unlock()

	if session == nil {
		return
	}

	c.finish(session, reason)
	if done != nil {
		<-done
	}
}

// finish is the single cleanup routine every termination path converges
// on. It records the stop cause, clears any pending approval, cancels the
// loop context, and flips Running exactly once.
func (c *Controller) finish(session *types.Session, reason types.StopReason) {
	c.mu.Lock()
	once := c.stopOnce
	approvals := c.approvals
	cancel := c.cancel
	c.mu.Unlock()

	if once == nil {
		return
	}

	once.Do(func() {
		c.mu.Lock()
		session.Running = false
		session.StopCause = reason
		session.StoppedAt = time.Now()
		session.PendingApproval = nil
		c.mu.Unlock()

		if approvals != nil {
			approvals.Clear()
		}
		if cancel != nil {
			cancel()
		}

		c.chat.Append(types.RoleSystem, "session stopped: "+string(reason), nil)
		log.Infof("session %s stopped after %d steps: %s", session.ID, session.Step, reason)
	})
}

// QueueInstruction adds a mid-session user instruction. Instructions are
// consumed into the next prompt, at most three per iteration. Instructions
// queued while no session is running are picked up by the next session.
func (c *Controller) QueueInstruction(text string) {
	if text == "" {
		return
	}
	c.mu.Lock()
	c.instructions = append(c.instructions, text)
	c.mu.Unlock()

	c.chat.Append(types.RoleUser, text, nil)
}

// takeInstructions removes and returns up to three queued instructions.
func (c *Controller) takeInstructions() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := len(c.instructions)
	if n == 0 {
		return nil
	}
	if n > 3 {
		n = 3
	}
	taken := c.instructions[:n]
	c.instructions = c.instructions[n:]
	return taken
}

// ResolveApproval records the human decision for the pending approval.
func (c *Controller) ResolveApproval(id string, approved bool) bool {
	c.mu.Lock()
	approvals := c.approvals
	c.mu.Unlock()

	if approvals == nil {
		return false
	}
	return approvals.Resolve(id, approved)
}

// PendingApproval returns the approval awaiting resolution, or nil.
func (c *Controller) PendingApproval() *types.Approval {
	c.mu.Lock()
	approvals := c.approvals
	c.mu.Unlock()

	if approvals == nil {
		return nil
	}
	return approvals.Pending()
}

// Session returns a snapshot of the current session state, or nil when no
// session has been started.
func (c *Controller) Session() *types.Session {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.session == nil {
		return nil
	}
	snapshot := *c.session
	return &snapshot
}

// Chat returns the transcript so far.
func (c *Controller) Chat() []types.ChatMessage {
	return c.chat.Messages()
}

// Wait blocks until the current session's loop has exited. Returns
// immediately when no session is running.
func (c *Controller) Wait() {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()

	if done != nil {
		<-done
	}
}
