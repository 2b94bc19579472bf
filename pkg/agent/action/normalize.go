// Package action converts loosely-typed provider actions into executable,
// bounds-checked operations. Normalize is the only gate between model
// output and the executor; anything it cannot satisfy is rejected rather
// than guessed at.
package action

import (
	"net/url"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

const (
	minMoveDuration     = 80
	maxMoveDuration     = 3000
	defaultMoveDuration = 500

	minMoveSteps     = 2
	maxMoveSteps     = 40
	defaultMoveSteps = 16

	// Scroll deltas are biased toward large viewport-proportional moves to
	// avoid sequences of tiny redundant scrolls.
	preferredScrollFraction = 0.85
	smallScrollFactor       = 0.65
	maxScrollDelta          = 4000

	minWaitMS = 200
	maxWaitMS = 10000

	defaultKey = "Enter"
)

// Normalize validates a proposed action against the current observation and
// returns the executable form, or nil when the proposal is semantically
// unusable. A nil result is terminal for the session: the object parsed
// fine, so re-asking with the same context will not improve it.
func Normalize(raw *types.RawAction, obs *types.Observation) *types.Action {
	if raw == nil || obs == nil {
		return nil
	}

	switch types.ActionType(raw.Type) {
	case types.ActionClick:
		return normalizeClick(raw, obs)
	case types.ActionClickAt:
		return normalizeClickAt(raw, obs)
	case types.ActionTypeText:
		return normalizeType(raw, obs)
	case types.ActionScroll:
		return normalizeScroll(raw, obs)
	case types.ActionKeypress:
		return normalizeKeypress(raw, obs)
	case types.ActionNavigate, types.ActionNewTab:
		return normalizeNavigate(raw)
	case types.ActionWait:
		return normalizeWait(raw)
	case types.ActionFinish:
		return &types.Action{Type: types.ActionFinish}
	}
	return nil
}

// resolveTarget maps a raw target onto the observation's element list. An
// element id must resolve to a known element; a bare selector is accepted
// as-is, picking up label and text when it matches a listed element.
func resolveTarget(target *types.RawTarget, obs *types.Observation) (selector, label, text string, id int, ok bool) {
	if target == nil {
		return "", "", "", 0, false
	}

	if target.ElementID != nil {
		el := obs.ElementByID(*target.ElementID)
		if el == nil || el.Selector == "" {
			return "", "", "", 0, false
		}
		return el.Selector, elementLabel(el), el.Text, el.ID, true
	}

	if target.Selector == "" {
		return "", "", "", 0, false
	}
	for i := range obs.Elements {
		if obs.Elements[i].Selector == target.Selector {
			el := &obs.Elements[i]
			return el.Selector, elementLabel(el), el.Text, el.ID, true
		}
	}
	return target.Selector, "", "", 0, true
}

func elementLabel(el *types.Element) string {
	if el.Label != "" {
		return el.Label
	}
	if el.AriaLabel != "" {
		return el.AriaLabel
	}
	return el.Placeholder
}

func normalizeClick(raw *types.RawAction, obs *types.Observation) *types.Action {
	selector, label, text, id, ok := resolveTarget(raw.Target, obs)
	if !ok {
		return nil
	}
	return &types.Action{
		Type:        types.ActionClick,
		Selector:    selector,
		ElementID:   id,
		TargetLabel: label,
		TargetText:  text,
	}
}

func normalizeClickAt(raw *types.RawAction, obs *types.Observation) *types.Action {
	x, okX := argFloat(raw.Args, "x")
	y, okY := argFloat(raw.Args, "y")
	if !okX || !okY {
		return nil
	}

	// Both coordinates within the unit interval means normalized space.
	normalized := x >= 0 && x <= 1 && y >= 0 && y <= 1
	if !normalized {
		x = clampFloat(x, 0, float64(obs.Viewport.Width-1))
		y = clampFloat(y, 0, float64(obs.Viewport.Height-1))
	}

	duration := defaultMoveDuration
	if v, ok := argFloat(raw.Args, "duration", "move_duration"); ok {
		duration = clampInt(int(v), minMoveDuration, maxMoveDuration)
	}
	steps := defaultMoveSteps
	if v, ok := argFloat(raw.Args, "steps", "move_steps"); ok {
		steps = clampInt(int(v), minMoveSteps, maxMoveSteps)
	}

	return &types.Action{
		Type:         types.ActionClickAt,
		X:            x,
		Y:            y,
		Normalized:   normalized,
		MoveDuration: duration,
		MoveSteps:    steps,
	}
}

func normalizeType(raw *types.RawAction, obs *types.Observation) *types.Action {
	selector, label, targetText, id, ok := resolveTarget(raw.Target, obs)
	if !ok {
		return nil
	}
	text, ok := argString(raw.Args, "text", "value")
	if !ok || text == "" {
		return nil
	}
	pressEnter, _ := argBool(raw.Args, "press_enter", "enter")
	return &types.Action{
		Type:        types.ActionTypeText,
		Selector:    selector,
		ElementID:   id,
		TargetLabel: label,
		TargetText:  targetText,
		Text:        text,
		PressEnter:  pressEnter,
	}
}

func normalizeScroll(raw *types.RawAction, obs *types.Observation) *types.Action {
	dx, _ := argFloat(raw.Args, "dx", "delta_x")
	dy, _ := argFloat(raw.Args, "dy", "delta_y")

	preferred := preferredScrollFraction * float64(obs.Viewport.Height)
	if absFloat(dy) < smallScrollFactor*preferred {
		// Missing or too-small vertical delta: replace with the preferred
		// viewport-proportional move, preserving direction. No direction
		// defaults to scrolling down.
		if dy < 0 {
			dy = -preferred
		} else {
			dy = preferred
		}
	}

	return &types.Action{
		Type:   types.ActionScroll,
		DeltaX: clampInt(int(dx), -maxScrollDelta, maxScrollDelta),
		DeltaY: clampInt(int(dy), -maxScrollDelta, maxScrollDelta),
	}
}

func normalizeKeypress(raw *types.RawAction, obs *types.Observation) *types.Action {
	key, ok := argString(raw.Args, "key")
	if !ok || key == "" {
		key = defaultKey
	}

	a := &types.Action{Type: types.ActionKeypress, Key: key}
	// Target is optional for keypress. A resolvable one focuses the element
	// first; an unresolvable one is ignored rather than rejected.
	if selector, label, text, id, ok := resolveTarget(raw.Target, obs); ok {
		a.Selector = selector
		a.ElementID = id
		a.TargetLabel = label
		a.TargetText = text
	}
	return a
}

func normalizeNavigate(raw *types.RawAction) *types.Action {
	rawURL, ok := argString(raw.Args, "url")
	if !ok || rawURL == "" {
		return nil
	}
	parsed, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil
	}
	return &types.Action{Type: types.ActionType(raw.Type), URL: parsed.String()}
}

func normalizeWait(raw *types.RawAction) *types.Action {
	ms, _ := argFloat(raw.Args, "ms", "duration", "duration_ms")
	return &types.Action{
		Type:       types.ActionWait,
		DurationMS: clampInt(int(ms), minWaitMS, maxWaitMS),
	}
}

func argFloat(args map[string]interface{}, keys ...string) (float64, bool) {
	for _, key := range keys {
		if v, ok := args[key]; ok {
			switch n := v.(type) {
			case float64:
				return n, true
			case int:
				return float64(n), true
			}
		}
	}
	return 0, false
}

func argString(args map[string]interface{}, keys ...string) (string, bool) {
	for _, key := range keys {
		if v, ok := args[key].(string); ok {
			return v, true
		}
	}
	return "", false
}

func argBool(args map[string]interface{}, keys ...string) (bool, bool) {
	for _, key := range keys {
		if v, ok := args[key].(bool); ok {
			return v, true
		}
	}
	return false, false
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
