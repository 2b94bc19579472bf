package action

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

func testObservation() *types.Observation {
	return &types.Observation{
		URL:      "https://example.com/search",
		Title:    "Search",
		Viewport: types.Viewport{Width: 1280, Height: 800},
		Elements: []types.Element{
			{ID: 1, Tag: "input", Placeholder: "Search query", Selector: "#q"},
			{ID: 2, Tag: "button", Label: "Search", Text: "Search", Selector: "#submit"},
			{ID: 3, Tag: "a", Text: "Delete my account", Selector: "a.danger"},
		},
	}
}

func intPtr(n int) *int { return &n }

func TestUnknownTypeRejected(t *testing.T) {
	for _, kind := range []string{"", "hover", "drag", "screenshot", "CLICK"} {
		raw := &types.RawAction{Type: kind}
		assert.Nil(t, Normalize(raw, testObservation()), "type %q", kind)
	}
}

func TestClickResolvesElementID(t *testing.T) {
	raw := &types.RawAction{
		Type:   "click",
		Target: &types.RawTarget{ElementID: intPtr(2)},
	}

	a := Normalize(raw, testObservation())
	require.NotNil(t, a)
	assert.Equal(t, types.ActionClick, a.Type)
	assert.Equal(t, "#submit", a.Selector)
	assert.Equal(t, 2, a.ElementID)
	assert.Equal(t, "Search", a.TargetLabel)
}

func TestClickUnknownElementRejected(t *testing.T) {
	raw := &types.RawAction{
		Type:   "click",
		Target: &types.RawTarget{ElementID: intPtr(99)},
	}
	assert.Nil(t, Normalize(raw, testObservation()))
}

func TestClickBareSelectorAccepted(t *testing.T) {
	raw := &types.RawAction{
		Type:   "click",
		Target: &types.RawTarget{Selector: "button.cta"},
	}

	a := Normalize(raw, testObservation())
	require.NotNil(t, a)
	assert.Equal(t, "button.cta", a.Selector)
	assert.Empty(t, a.TargetLabel)
}

func TestClickMissingTargetRejected(t *testing.T) {
	assert.Nil(t, Normalize(&types.RawAction{Type: "click"}, testObservation()))
}

func TestClickAtNormalizedCoordinatesPreserved(t *testing.T) {
	raw := &types.RawAction{
		Type: "click_at",
		Args: map[string]interface{}{"x": 0.5, "y": 0.25},
	}

	a := Normalize(raw, testObservation())
	require.NotNil(t, a)
	assert.True(t, a.Normalized)
	assert.Equal(t, 0.5, a.X)
	assert.Equal(t, 0.25, a.Y)
}

func TestClickAtPixelCoordinatesClamped(t *testing.T) {
	raw := &types.RawAction{
		Type: "click_at",
		Args: map[string]interface{}{"x": float64(5000), "y": float64(-20)},
	}

	a := Normalize(raw, testObservation())
	require.NotNil(t, a)
	assert.False(t, a.Normalized)
	assert.Equal(t, float64(1279), a.X)
	assert.Equal(t, float64(0), a.Y)
}

func TestClickAtMotionClamped(t *testing.T) {
	raw := &types.RawAction{
		Type: "click_at",
		Args: map[string]interface{}{
			"x": float64(100), "y": float64(100),
			"duration": float64(50000),
			"steps":    float64(1),
		},
	}

	a := Normalize(raw, testObservation())
	require.NotNil(t, a)
	assert.Equal(t, maxMoveDuration, a.MoveDuration)
	assert.Equal(t, minMoveSteps, a.MoveSteps)
}

func TestClickAtMissingCoordinatesRejected(t *testing.T) {
	raw := &types.RawAction{
		Type: "click_at",
		Args: map[string]interface{}{"x": 0.5},
	}
	assert.Nil(t, Normalize(raw, testObservation()))
}

func TestTypeRequiresText(t *testing.T) {
	raw := &types.RawAction{
		Type:   "type",
		Target: &types.RawTarget{ElementID: intPtr(1)},
	}
	assert.Nil(t, Normalize(raw, testObservation()))

	raw.Args = map[string]interface{}{"text": "golang tutorials", "press_enter": true}
	a := Normalize(raw, testObservation())
	require.NotNil(t, a)
	assert.Equal(t, "#q", a.Selector)
	assert.Equal(t, "golang tutorials", a.Text)
	assert.True(t, a.PressEnter)
}

func TestScrollSmallDeltaReplaced(t *testing.T) {
	obs := testObservation()
	preferred := int(preferredScrollFraction * float64(obs.Viewport.Height))

	tests := []struct {
		name string
		dy   float64
		want int
	}{
		{"missing delta defaults down", 0, preferred},
		{"small positive replaced", 120, preferred},
		{"small negative replaced preserving sign", -120, -preferred},
		{"large delta kept", 900, 900},
		{"large negative kept", -900, -900},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := &types.RawAction{Type: "scroll"}
			if tt.dy != 0 {
				raw.Args = map[string]interface{}{"dy": tt.dy}
			}
			a := Normalize(raw, obs)
			require.NotNil(t, a)
			assert.Equal(t, tt.want, a.DeltaY)
		})
	}
}

func TestScrollAxesClamped(t *testing.T) {
	raw := &types.RawAction{
		Type: "scroll",
		Args: map[string]interface{}{"dx": float64(9999), "dy": float64(-9999)},
	}

	a := Normalize(raw, testObservation())
	require.NotNil(t, a)
	assert.Equal(t, maxScrollDelta, a.DeltaX)
	assert.Equal(t, -maxScrollDelta, a.DeltaY)
}

func TestKeypressDefaultsToEnter(t *testing.T) {
	a := Normalize(&types.RawAction{Type: "keypress"}, testObservation())
	require.NotNil(t, a)
	assert.Equal(t, "Enter", a.Key)
	assert.Empty(t, a.Selector)
}

func TestKeypressWithTarget(t *testing.T) {
	raw := &types.RawAction{
		Type:   "keypress",
		Target: &types.RawTarget{ElementID: intPtr(1)},
		Args:   map[string]interface{}{"key": "Escape"},
	}

	a := Normalize(raw, testObservation())
	require.NotNil(t, a)
	assert.Equal(t, "Escape", a.Key)
	assert.Equal(t, "#q", a.Selector)
}

func TestNavigateRequiresHTTPScheme(t *testing.T) {
	tests := []struct {
		url string
		ok  bool
	}{
		{"https://example.com/page", true},
		{"http://localhost:8080", true},
		{"ftp://example.com", false},
		{"javascript:alert(1)", false},
		{"file:///etc/passwd", false},
		{"example.com", false},
		{"", false},
	}

	for _, tt := range tests {
		raw := &types.RawAction{
			Type: "navigate",
			Args: map[string]interface{}{"url": tt.url},
		}
		a := Normalize(raw, testObservation())
		if tt.ok {
			require.NotNil(t, a, "url %q", tt.url)
			assert.Equal(t, tt.url, a.URL)
		} else {
			assert.Nil(t, a, "url %q", tt.url)
		}
	}
}

func TestNewTabSharesNavigateRules(t *testing.T) {
	raw := &types.RawAction{
		Type: "new_tab",
		Args: map[string]interface{}{"url": "https://example.com/docs"},
	}

	a := Normalize(raw, testObservation())
	require.NotNil(t, a)
	assert.Equal(t, types.ActionNewTab, a.Type)
}

func TestWaitClamped(t *testing.T) {
	tests := []struct {
		ms   float64
		want int
	}{
		{0, minWaitMS},
		{50, minWaitMS},
		{500, 500},
		{60000, maxWaitMS},
	}

	for _, tt := range tests {
		raw := &types.RawAction{
			Type: "wait",
			Args: map[string]interface{}{"ms": tt.ms},
		}
		a := Normalize(raw, testObservation())
		require.NotNil(t, a)
		assert.Equal(t, tt.want, a.DurationMS)
	}
}

func TestFinishPassthrough(t *testing.T) {
	a := Normalize(&types.RawAction{Type: "finish"}, testObservation())
	require.NotNil(t, a)
	assert.Equal(t, types.ActionFinish, a.Type)
}
