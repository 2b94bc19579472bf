package agent

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/webpilot-ai/webpilot/pkg/agent/decision"
	"github.com/webpilot-ai/webpilot/pkg/agent/prompts"
	"github.com/webpilot-ai/webpilot/pkg/llm"
	"github.com/webpilot-ai/webpilot/pkg/types"
)

const (
	// decisionAttempts is the total attempt budget per iteration. Only
	// malformed output is retried; transport and auth failures are fatal
	// on the first occurrence.
	decisionAttempts = 3

	// retryBackoffStep scales linearly with the attempt number.
	retryBackoffStep = 500 * time.Millisecond

	// maxPromptTokens is the budget one decision prompt may spend. Prompts
	// over it are rebuilt with a smaller excerpt and element list.
	maxPromptTokens = 6000

	// minPromptElements is the floor the element list never shrinks below:
	// without targets the model has nothing to act on.
	minPromptElements = 10
)

// requestDecision runs one prompt/parse cycle with the retry budget.
// Queued user instructions are consumed once, not re-consumed per attempt.
func (c *Controller) requestDecision(ctx context.Context, session *types.Session, obs *types.Observation) (*types.Decision, error) {
	instructions := c.takeInstructions()

	c.mu.Lock()
	step := session.Step
	lastAction := session.LastAction
	lastSummary := session.LastChangeSummary
	goal := session.Goal
	c.mu.Unlock()

	snippet := ""
	for attempt := 1; attempt <= decisionAttempts; attempt++ {
		build := func(excerptLimit, elementLimit int) string {
			pb := prompts.NewPromptBuilder(goal, step).
				WithLanguage(c.cfg.Language).
				WithObservation(obs).
				WithInstructions(instructions).
				WithExcerptLimit(excerptLimit).
				WithElementLimit(elementLimit)
			if lastAction != nil {
				pb = pb.WithLastAction(lastAction, lastSummary)
			}
			if snippet != "" {
				pb = pb.WithRetrySnippet(snippet)
			}
			return pb.Build()
		}
		prompt := c.fitPrompt(step, attempt, build)

		req := &llm.Request{
			System:      prompts.SystemPrompt,
			Prompt:      prompt,
			Image:       obs.Screenshot,
			Temperature: c.cfg.Temperature,
			MaxTokens:   c.cfg.MaxOutputTokens,
		}

		raw, err := c.provider.Send(ctx, req)
		if err != nil {
			return nil, fmt.Errorf("provider %s: %w", c.provider.Name(), err)
		}

		dec, perr := decision.Parse(raw)
		if perr == nil {
			return dec, nil
		}

		var verr *decision.ValidationError
		if errors.As(perr, &verr) && attempt < decisionAttempts {
			log.Warnf("step %d attempt %d: %s, retrying", step, attempt, verr.Code)
			snippet = verr.Snippet

			backoff := time.NewTimer(time.Duration(attempt) * retryBackoffStep)
			select {
			case <-backoff.C:
			case <-ctx.Done():
				backoff.Stop()
				return nil, ctx.Err()
			}
			continue
		}
		return nil, perr
	}

	// Unreachable: the final attempt either returns the decision or its
	// parse error above.
	return nil, &decision.ValidationError{Code: decision.CodeInvalidActionJSON}
}

// fitPrompt assembles the prompt inside the token budget, halving the page
// excerpt and element list until it fits or both floors are reached.
func (c *Controller) fitPrompt(step, attempt int, build func(excerptLimit, elementLimit int) string) string {
	excerptLimit, elementLimit := prompts.MaxExcerpt, prompts.MaxElements
	prompt := build(excerptLimit, elementLimit)
	if c.tok == nil {
		return prompt
	}

	tokens := c.tok.CountTokens(prompt)
	for tokens > maxPromptTokens && (excerptLimit > 0 || elementLimit > minPromptElements) {
		excerptLimit /= 2
		if elementLimit/2 >= minPromptElements {
			elementLimit /= 2
		}
		prompt = build(excerptLimit, elementLimit)
		tokens = c.tok.CountTokens(prompt)
		log.Warnf("step %d attempt %d: prompt over budget, shrunk to excerpt=%d elements=%d (%d tokens)",
			step, attempt, excerptLimit, elementLimit, tokens)
	}
	log.Debugf("step %d attempt %d: prompt is %d tokens", step, attempt, tokens)
	return prompt
}
