package types

// ActionType identifies one of the executable operation kinds.
type ActionType string

const (
	ActionClick    ActionType = "click"     // ActionClick clicks a resolved element.
	ActionClickAt  ActionType = "click_at"  // ActionClickAt clicks at viewport coordinates.
	ActionTypeText ActionType = "type"      // ActionTypeText types text into a resolved element.
	ActionScroll   ActionType = "scroll"    // ActionScroll scrolls the page by a delta.
	ActionKeypress ActionType = "keypress"  // ActionKeypress presses a key, optionally on a target.
	ActionNavigate ActionType = "navigate"  // ActionNavigate loads a URL in the current tab.
	ActionNewTab   ActionType = "new_tab"   // ActionNewTab opens a URL in a new tab.
	ActionWait     ActionType = "wait"      // ActionWait pauses for a bounded duration.
	ActionFinish   ActionType = "finish"    // ActionFinish ends the session successfully.
)

// Action is a fully normalized, executable operation. Only the fields
// relevant to its Type are populated; everything else is zero. Actions are
// produced by the normalizer and never constructed directly from model
// output.
type Action struct {
	Type ActionType `json:"type"`

	// Element targeting (click, type, keypress).
	Selector  string `json:"selector,omitempty"`
	ElementID int    `json:"element_id,omitempty"`

	// Resolved target metadata, carried for risk assessment and transcripts.
	TargetLabel string `json:"target_label,omitempty"`
	TargetText  string `json:"target_text,omitempty"`

	// Coordinate click (click_at). Normalized reports whether X/Y are in
	// the [0,1] unit space rather than raw pixels.
	X            float64 `json:"x,omitempty"`
	Y            float64 `json:"y,omitempty"`
	Normalized   bool    `json:"normalized,omitempty"`
	MoveDuration int     `json:"move_duration,omitempty"`
	MoveSteps    int     `json:"move_steps,omitempty"`

	// Typing (type).
	Text       string `json:"text,omitempty"`
	PressEnter bool   `json:"press_enter,omitempty"`

	// Scrolling (scroll).
	DeltaX int `json:"delta_x,omitempty"`
	DeltaY int `json:"delta_y,omitempty"`

	// Keypress.
	Key string `json:"key,omitempty"`

	// Navigation (navigate, new_tab).
	URL string `json:"url,omitempty"`

	// Waiting (wait), milliseconds.
	DurationMS int `json:"duration_ms,omitempty"`
}

// HasTarget reports whether the action addresses a specific element.
func (a *Action) HasTarget() bool {
	return a.Selector != ""
}

// Describe returns a short human-readable summary of the action, used for
// approval prompts and the chat transcript.
func (a *Action) Describe() string {
	switch a.Type {
	case ActionClick:
		if a.TargetLabel != "" {
			return "click \"" + a.TargetLabel + "\""
		}
		return "click " + a.Selector
	case ActionClickAt:
		return "click at coordinates"
	case ActionTypeText:
		return "type into " + a.Selector
	case ActionScroll:
		if a.DeltaY < 0 {
			return "scroll up"
		}
		return "scroll down"
	case ActionKeypress:
		return "press " + a.Key
	case ActionNavigate:
		return "navigate to " + a.URL
	case ActionNewTab:
		return "open new tab " + a.URL
	case ActionWait:
		return "wait"
	case ActionFinish:
		return "finish"
	}
	return string(a.Type)
}
