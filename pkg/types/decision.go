package types

import (
	"encoding/json"
	"strconv"
	"strings"
)

// RawTarget is the loosely-typed element reference a provider may attach to
// a proposed action. Providers are inconsistent: the target arrives as a bare
// element number, a selector string, or an object carrying either. The custom
// unmarshaller accepts all three shapes.
type RawTarget struct {
	ElementID *int   `json:"element_id,omitempty"`
	Selector  string `json:"selector,omitempty"`
}

// UnmarshalJSON accepts a number (element id), a string (numeric id or
// selector), or an object with element_id/id/selector fields.
func (t *RawTarget) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" {
		return nil
	}

	// Bare number: element id.
	if n, err := strconv.Atoi(trimmed); err == nil {
		t.ElementID = &n
		return nil
	}

	// Bare string: numeric id or selector.
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		if n, err := strconv.Atoi(strings.TrimSpace(s)); err == nil {
			t.ElementID = &n
			return nil
		}
		t.Selector = s
		return nil
	}

	// Object form.
	var obj struct {
		ElementID *int   `json:"element_id"`
		ID        *int   `json:"id"`
		Selector  string `json:"selector"`
	}
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	t.ElementID = obj.ElementID
	if t.ElementID == nil {
		t.ElementID = obj.ID
	}
	t.Selector = obj.Selector
	return nil
}

// RawAction is the unvalidated action shape proposed by a provider. It is
// converted to an Action by the normalizer before execution; a RawAction is
// never executed directly.
type RawAction struct {
	Type   string                 `json:"type"`
	Target *RawTarget             `json:"target,omitempty"`
	Args   map[string]interface{} `json:"args,omitempty"`
}

// Decision is the parsed output of one provider call. It is ephemeral and
// is not persisted beyond the iteration that produced it.
type Decision struct {
	Reasoning       string     `json:"reasoning"`
	Action          *RawAction `json:"action"`
	SuccessCriteria []string   `json:"success_criteria,omitempty"`
	FallbackAction  *RawAction `json:"fallback_action,omitempty"`
	FinalAnswer     string     `json:"final_answer,omitempty"`
}
