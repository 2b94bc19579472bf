// Package types defines the shared data model for the webpilot agent loop:
// observations of page state, proposed and normalized actions, provider
// decisions, approvals, and session bookkeeping.
package types

import "time"

// Viewport holds the visible page dimensions in CSS pixels.
type Viewport struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// ScrollState describes the scroll position and bounds of the page at the
// moment an observation was captured.
type ScrollState struct {
	X        int  `json:"x"`
	Y        int  `json:"y"`
	MaxX     int  `json:"max_x"`
	MaxY     int  `json:"max_y"`
	AtTop    bool `json:"at_top"`
	AtBottom bool `json:"at_bottom"`
}

// Element is one interactive element surfaced to the model. The ID is
// assigned by the executor per observation; Selector is the authoritative
// locator the executor will accept back.
type Element struct {
	ID          int    `json:"id"`
	Tag         string `json:"tag"`
	Role        string `json:"role,omitempty"`
	Label       string `json:"label,omitempty"`
	Text        string `json:"text,omitempty"`
	Placeholder string `json:"placeholder,omitempty"`
	AriaLabel   string `json:"aria_label,omitempty"`
	Selector    string `json:"selector"`
}

// Screenshot is an opaque capture of the page plus a precomputed similarity
// hash. The agent never inspects the pixels; it forwards the blob to
// multimodal providers and compares hashes between observations.
type Screenshot struct {
	Data []byte `json:"-"`
	MIME string `json:"mime"`
	Hash string `json:"hash"`
}

// Observation is an immutable snapshot of page state at one instant.
// Produced once per iteration edge (before and after acting).
type Observation struct {
	URL          string      `json:"url"`
	Title        string      `json:"title"`
	CapturedAt   time.Time   `json:"captured_at"`
	Viewport     Viewport    `json:"viewport"`
	Scroll       ScrollState `json:"scroll"`
	Elements     []Element   `json:"elements"`
	TextExcerpt  string      `json:"text_excerpt"`
	DOMSignature string      `json:"dom_signature"`
	Screenshot   *Screenshot `json:"screenshot,omitempty"`
}

// ElementByID returns the element with the given identifier, or nil.
func (o *Observation) ElementByID(id int) *Element {
	for i := range o.Elements {
		if o.Elements[i].ID == id {
			return &o.Elements[i]
		}
	}
	return nil
}

// ScreenshotHash returns the screenshot similarity hash, or "" when no
// screenshot was captured.
func (o *Observation) ScreenshotHash() string {
	if o.Screenshot == nil {
		return ""
	}
	return o.Screenshot.Hash
}
