// Package progress detects whether an action changed the page, and whether
// scrolling is still moving. The control loop uses it to decide when a
// session has stopped making progress.
package progress

import (
	"fmt"
	"strings"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

const (
	// Minimum realized scroll movement considered meaningful, as a fraction
	// of viewport height with an absolute floor.
	stallFraction = 0.04
	stallFloorPx  = 18
)

// Change reports the outcome of comparing two observations.
type Change struct {
	Changed bool
	Summary string
}

// Diff compares two observations and reports which signals moved. Any one
// firing signal counts as progress.
func Diff(before, after *types.Observation) Change {
	if before == nil || after == nil {
		return Change{Changed: false, Summary: "missing observation"}
	}

	var signals []string
	if before.URL != after.URL {
		signals = append(signals, fmt.Sprintf("url %s -> %s", before.URL, after.URL))
	}
	if before.Title != after.Title {
		signals = append(signals, fmt.Sprintf("title %q -> %q", before.Title, after.Title))
	}
	if before.Scroll.Y != after.Scroll.Y {
		signals = append(signals, fmt.Sprintf("scroll %d -> %d", before.Scroll.Y, after.Scroll.Y))
	}
	if before.DOMSignature != after.DOMSignature {
		signals = append(signals, "dom structure changed")
	}
	if before.ScreenshotHash() != after.ScreenshotHash() {
		signals = append(signals, "screenshot changed")
	}

	if len(signals) == 0 {
		return Change{Changed: false, Summary: "no change detected"}
	}
	return Change{Changed: true, Summary: strings.Join(signals, "; ")}
}

// ScrollStalled reports whether a scroll action failed to move the page
// meaningfully. It applies only to scroll actions; the caller is expected
// to gate on the action type.
//
// A scroll is stalled when the realized vertical movement is below
// max(stallFloorPx, stallFraction * viewport height), or when the page was
// already at the boundary in the direction of travel.
func ScrollStalled(action *types.Action, before, after *types.Observation) bool {
	if action == nil || action.Type != types.ActionScroll {
		return false
	}
	if before == nil || after == nil {
		return false
	}

	if action.DeltaY > 0 && before.Scroll.AtBottom {
		return true
	}
	if action.DeltaY < 0 && before.Scroll.AtTop {
		return true
	}

	threshold := int(stallFraction * float64(after.Viewport.Height))
	if threshold < stallFloorPx {
		threshold = stallFloorPx
	}

	realized := after.Scroll.Y - before.Scroll.Y
	if realized < 0 {
		realized = -realized
	}
	return realized < threshold
}
