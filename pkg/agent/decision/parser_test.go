package decision

import (
	"encoding/json"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

func TestParseStrictObject(t *testing.T) {
	raw := `{"reasoning":"the login button is visible","action":{"type":"click","target":3}}`

	d, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "the login button is visible", d.Reasoning)
	assert.Equal(t, "click", d.Action.Type)
	require.NotNil(t, d.Action.Target)
	require.NotNil(t, d.Action.Target.ElementID)
	assert.Equal(t, 3, *d.Action.Target.ElementID)
}

func TestParseRecoversFromProseAndFences(t *testing.T) {
	raw := "Sure! ```json {\"action\":{\"type\":\"wait\",\"args\":{\"ms\":500}}} ``` "

	d, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "wait", d.Action.Type)
	assert.Equal(t, float64(500), d.Action.Args["ms"])
}

func TestParseWrappedEqualsUnwrapped(t *testing.T) {
	obj := &types.Decision{
		Reasoning: "scrolling to reveal more results",
		Action: &types.RawAction{
			Type: "scroll",
			Args: map[string]interface{}{"dy": float64(900)},
		},
		FinalAnswer: "",
	}
	encoded, err := json.Marshal(obj)
	require.NoError(t, err)

	plain, err := Parse(string(encoded))
	require.NoError(t, err)

	wrapped, err := Parse("Here is my decision:\n```json\n" + string(encoded) + "\n```\nLet me know how it goes.")
	require.NoError(t, err)

	assert.Equal(t, plain, wrapped)
}

func TestParseSkipsNonDecisionObjects(t *testing.T) {
	raw := `The page state is {"url": "https://example.com"} so I will {"action":{"type":"finish"},"final_answer":"done"}`

	d, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "finish", d.Action.Type)
	assert.Equal(t, "done", d.FinalAnswer)
}

func TestParseBracesInsideStrings(t *testing.T) {
	raw := `{"reasoning":"selector is div{color} and } is fine","action":{"type":"click","target":{"selector":"a[href=\"{x}\"]"}}}`

	d, err := Parse(raw)
	require.NoError(t, err)
	assert.Equal(t, "click", d.Action.Type)
	assert.Equal(t, `a[href="{x}"]`, d.Action.Target.Selector)
}

func TestParseMissingActionIsInvalid(t *testing.T) {
	_, err := Parse(`{"reasoning":"thinking out loud, no action yet"}`)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, CodeInvalidActionJSON, verr.Code)
}

func TestParseInvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{"empty", ""},
		{"whitespace", "   \n\t"},
		{"prose only", "I could not decide on an action."},
		{"unterminated object", `{"action":{"type":"click"`},
		{"array without object", `[1, 2, 3]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(tt.raw)
			require.Error(t, err)

			var verr *ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Equal(t, CodeInvalidActionJSON, verr.Code)
		})
	}
}

func TestSnippetTruncation(t *testing.T) {
	raw := "not json " + strings.Repeat("x", 1000)

	_, err := Parse(raw)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.LessOrEqual(t, len(verr.Snippet), maxSnippet)
	assert.True(t, strings.HasPrefix(verr.Snippet, "not json"))
}

func TestSnippetTruncationKeepsRunesWhole(t *testing.T) {
	// The leading byte misaligns the two-byte runes so a naive byte cut at
	// maxSnippet would land mid-rune.
	raw := "x" + strings.Repeat("é", maxSnippet)

	_, err := Parse(raw)
	require.Error(t, err)

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.LessOrEqual(t, len(verr.Snippet), maxSnippet)
	assert.True(t, utf8.ValidString(verr.Snippet))
}
