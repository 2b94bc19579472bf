// Package approval implements the risk gate: classifying actions that need
// a human decision before execution, and the bounded wait for that decision.
package approval

import (
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// Gate flags high-risk actions. It holds the configured sensitive-keyword
// set and is safe for reuse across sessions; assessment is read-only.
type Gate struct {
	enabled  bool
	keywords []string
}

// NewGate builds a gate over the given keyword set. Keywords are matched as
// case-insensitive substrings; they are lowercased once here.
func NewGate(enabled bool, keywords []string) *Gate {
	lowered := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if kw != "" {
			lowered = append(lowered, kw)
		}
	}
	return &Gate{enabled: enabled, keywords: lowered}
}

// Enabled reports whether the gate is active.
func (g *Gate) Enabled() bool { return g.enabled }

// Assess returns a human-readable reason when the action must be approved
// before execution, or "" when it may run unattended.
//
// Coordinate clicks are always flagged: without a resolved element there is
// no way to tell what the click will land on. Everything else is flagged on
// a sensitive-keyword match over the typed text and the resolved target's
// label, text, and selector.
func (g *Gate) Assess(action *types.Action) string {
	if !g.enabled || action == nil {
		return ""
	}

	if action.Type == types.ActionClickAt {
		return "coordinate-based click with no identified element"
	}

	for _, field := range []string{action.Text, action.TargetLabel, action.TargetText, action.Selector} {
		if field == "" {
			continue
		}
		lowered := strings.ToLower(field)
		for _, kw := range g.keywords {
			if strings.Contains(lowered, kw) {
				return "matches sensitive keyword \"" + kw + "\""
			}
		}
	}
	return ""
}
