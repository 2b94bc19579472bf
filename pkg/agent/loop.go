package agent

import (
	"context"
	"errors"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/agent/action"
	"github.com/webpilot-ai/webpilot/pkg/agent/decision"
	"github.com/webpilot-ai/webpilot/pkg/agent/progress"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

// keepGoing is the zero StopReason, meaning the iteration may proceed.
const keepGoing = types.StopReason("")

// runLoop drives one session to termination. Every exit path goes through
// finish with an explicit reason.
func (c *Controller) runLoop(ctx context.Context, session *types.Session) {
	c.mu.Lock()
	done := c.done
	c.mu.Unlock()
	defer close(done)

	_ = c.exec.SetRunningIndicator(ctx, true, 0)
	defer func() {
		// Best effort: the loop context is usually cancelled by now.
		_ = c.exec.SetRunningIndicator(context.Background(), false, session.Step)
	}()

	obs, stop := c.observe(ctx)
	if stop != keepGoing {
		c.finish(session, stop)
		return
	}

	for {
		if ctx.Err() != nil {
			c.finish(session, types.StopRequested)
			return
		}

		c.mu.Lock()
		if session.Step >= session.MaxSteps {
			c.mu.Unlock()
			c.finish(session, types.StopStepLimit)
			return
		}
		session.Step++
		step := session.Step
		c.mu.Unlock()

		_ = c.exec.SetRunningIndicator(ctx, true, step)

		dec, err := c.requestDecision(ctx, session, obs)
		if err != nil {
			c.finish(session, classifyDecisionError(ctx, err))
			return
		}
		if dec.Reasoning != "" {
			c.chat.Append(types.RoleAssistant, dec.Reasoning, chatMeta(step, obs))
		}

		act := action.Normalize(dec.Action, obs)
		if act == nil {
			log.Warnf("step %d: decision parsed but action %q was unusable", step, dec.Action.Type)
			c.finish(session, types.StopUnparseable)
			return
		}

		if act.Type == types.ActionFinish {
			c.mu.Lock()
			session.FinalAnswer = dec.FinalAnswer
			c.mu.Unlock()
			if dec.FinalAnswer != "" {
				c.chat.Append(types.RoleAssistant, dec.FinalAnswer, chatMeta(step, obs))
			}
			c.finish(session, types.StopGoalComplete)
			return
		}

		if stop := c.vetAction(ctx, session, step, act); stop != keepGoing {
			c.finish(session, stop)
			return
		}
		if ctx.Err() != nil {
			c.finish(session, types.StopRequested)
			return
		}

		c.perform(ctx, step, act)
		c.settle(ctx, act)

		after, stop := c.observe(ctx)
		if stop != keepGoing {
			c.finish(session, stop)
			return
		}

		change := progress.Diff(obs, after)

		if act.Type == types.ActionScroll {
			if progress.ScrollStalled(act, obs, after) {
				c.mu.Lock()
				session.ScrollStallCount++
				stalled := session.ScrollStallCount >= session.MaxScrollStall
				c.mu.Unlock()
				if stalled {
					c.finish(session, types.StopScrollStall)
					return
				}
			} else {
				c.mu.Lock()
				session.ScrollStallCount = 0
				c.mu.Unlock()
			}
		}

		// One shot at the model-supplied fallback before counting the
		// iteration as stagnant. The fallback is vetted exactly like the
		// primary action: scope first, then the risk gate.
		if !change.Changed && dec.FallbackAction != nil {
			if fb := action.Normalize(dec.FallbackAction, after); fb != nil && fb.Type != types.ActionFinish {
				if stop := c.vetAction(ctx, session, step, fb); stop != keepGoing {
					c.finish(session, stop)
					return
				}
				log.Infof("step %d: no change detected, trying fallback: %s", step, fb.Describe())
				c.perform(ctx, step, fb)
				c.settle(ctx, fb)

				after, stop = c.observe(ctx)
				if stop != keepGoing {
					c.finish(session, stop)
					return
				}
				change = progress.Diff(obs, after)
			}
		}

		c.mu.Lock()
		if change.Changed {
			session.StagnationCount = 0
		} else {
			session.StagnationCount++
			if session.StagnationCount >= session.MaxStagnation {
				c.mu.Unlock()
				c.finish(session, types.StopStagnation)
				return
			}
		}
		session.LastAction = act
		session.LastChangeSummary = change.Summary
		c.mu.Unlock()

		obs = after
	}
}

// chatMeta tags a transcript entry with the step it belongs to and a
// reference to the screenshot the decision was based on, when one was
// captured.
func chatMeta(step int, obs *types.Observation) map[string]interface{} {
	meta := map[string]interface{}{"step": step}
	if hash := obs.ScreenshotHash(); hash != "" {
		meta["screenshot"] = hash
	}
	return meta
}

// observe captures page state, checking liveness and domain scope first.
func (c *Controller) observe(ctx context.Context) (*types.Observation, types.StopReason) {
	if ctx.Err() != nil {
		return nil, types.StopRequested
	}

	if err := c.exec.Ping(ctx); err != nil {
		log.Errorf("executor liveness check failed: %v", err)
		return nil, types.StopExecutorLost
	}

	obs, err := c.exec.GetPageState(ctx)
	if err != nil {
		log.Errorf("failed to observe page state: %v", err)
		return nil, types.StopExecutorLost
	}

	if c.scope != nil && !c.scope.Allows(obs.URL) {
		log.Warnf("page %s is outside allowed scope", obs.URL)
		return nil, types.StopOutOfScope
	}
	return obs, keepGoing
}

// vetAction runs every pre-execution check an action must pass: explicit
// navigation is scope-checked before it happens (not just on the next
// observation), then the risk gate decides whether a human must approve.
func (c *Controller) vetAction(ctx context.Context, session *types.Session, step int, act *types.Action) types.StopReason {
	if act.Type == types.ActionNavigate || act.Type == types.ActionNewTab {
		if c.scope != nil && !c.scope.Allows(act.URL) {
			log.Warnf("step %d: navigation to %s is outside allowed scope", step, act.URL)
			return types.StopOutOfScope
		}
	}
	return c.gateAction(ctx, session, act)
}

// gateAction runs the risk gate and, when flagged, blocks for the human
// decision.
func (c *Controller) gateAction(ctx context.Context, session *types.Session, act *types.Action) types.StopReason {
	reason := c.gate.Assess(act)
	if reason == "" {
		return keepGoing
	}

	if c.cfg.AutoApprove {
		log.Infof("auto-approving flagged action (%s): %s", reason, act.Describe())
		return keepGoing
	}

	c.mu.Lock()
	approvals := c.approvals
	c.mu.Unlock()

	log.Infof("awaiting approval (%s): %s", reason, act.Describe())
	verdict, err := approvals.Request(ctx, act, reason)

	c.mu.Lock()
	session.PendingApproval = nil
	c.mu.Unlock()

	if err != nil {
		log.Errorf("approval request failed: %v", err)
		return types.StopNotApproved
	}
	if verdict != types.ApprovalApproved {
		log.Infof("action not approved (%s): %s", verdict, act.Describe())
		return types.StopNotApproved
	}
	return keepGoing
}

// perform executes one action. Execution failures are soft: they are logged
// and the loop continues, relying on the change evaluator to notice the
// lack of progress.
func (c *Controller) perform(ctx context.Context, step int, act *types.Action) {
	result, err := c.exec.PerformAction(ctx, act)
	switch {
	case err != nil:
		log.Warnf("step %d: action failed: %v", step, err)
	case result != nil && !result.OK:
		log.Warnf("step %d: action not performed: %s", step, result.Message)
	default:
		log.Debugf("step %d: performed %s", step, act.Describe())
	}
}

// settle waits for the page to render after a mutating action before the
// next observation. Wait actions already carry their own delay.
func (c *Controller) settle(ctx context.Context, act *types.Action) {
	switch act.Type {
	case types.ActionWait, types.ActionFinish:
		return
	}

	timer := time.NewTimer(c.cfg.SettleDelay)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}

// classifyDecisionError maps a requestDecision failure to a stop reason.
func classifyDecisionError(ctx context.Context, err error) types.StopReason {
	if ctx.Err() != nil {
		return types.StopRequested
	}
	var verr *decision.ValidationError
	if errors.As(err, &verr) {
		return types.StopUnparseable
	}
	return types.StopProviderError
}
