package prompts

import (
	"fmt"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

func testObservation() *types.Observation {
	return &types.Observation{
		URL:      "https://example.com/search?q=go",
		Title:    "Search results",
		Viewport: types.Viewport{Width: 1280, Height: 800},
		Scroll:   types.ScrollState{Y: 400, MaxY: 5000},
		Elements: []types.Element{
			{ID: 1, Tag: "input", Placeholder: "Search", Selector: "#q"},
			{ID: 2, Tag: "button", Label: "Go", Selector: "#go"},
		},
		TextExcerpt: "Results for go...",
	}
}

func TestBuildIncludesCoreSections(t *testing.T) {
	prompt := NewPromptBuilder("find the Go release notes", 3).
		WithLanguage("en").
		WithObservation(testObservation()).
		Build()

	assert.Contains(t, prompt, "<goal>\nfind the Go release notes\n</goal>")
	assert.Contains(t, prompt, "step 3")
	assert.Contains(t, prompt, "<response_language>\nen\n</response_language>")
	assert.Contains(t, prompt, "url: https://example.com/search?q=go")
	assert.Contains(t, prompt, "viewport: 1280x800")
	assert.Contains(t, prompt, `[1] input placeholder="Search"`)
	assert.Contains(t, prompt, `[2] button label="Go"`)
	assert.Contains(t, prompt, "Results for go...")
	assert.NotContains(t, prompt, "#q")
}

func TestBuildElementCap(t *testing.T) {
	obs := testObservation()
	obs.Elements = nil
	for i := 0; i < 60; i++ {
		obs.Elements = append(obs.Elements, types.Element{
			ID: i, Tag: "a", Text: fmt.Sprintf("link %d", i), Selector: fmt.Sprintf("#l%d", i),
		})
	}

	prompt := NewPromptBuilder("goal", 1).WithObservation(obs).Build()
	assert.Contains(t, prompt, "[39] a")
	assert.NotContains(t, prompt, "[40] a")
}

func TestBuildExcerptCap(t *testing.T) {
	obs := testObservation()
	obs.TextExcerpt = strings.Repeat("a", 5000)

	prompt := NewPromptBuilder("goal", 1).WithObservation(obs).Build()
	assert.NotContains(t, prompt, strings.Repeat("a", MaxExcerpt+1))
	assert.Contains(t, prompt, strings.Repeat("a", MaxExcerpt))
}

func TestBuildExcerptCapKeepsRunesWhole(t *testing.T) {
	obs := testObservation()
	// The leading byte misaligns the two-byte runes so a naive byte cut at
	// MaxExcerpt would land mid-rune.
	obs.TextExcerpt = "a" + strings.Repeat("é", MaxExcerpt)

	prompt := NewPromptBuilder("goal", 1).WithObservation(obs).Build()
	assert.True(t, utf8.ValidString(prompt))
}

func TestBuildShrunkLimits(t *testing.T) {
	obs := testObservation()
	obs.TextExcerpt = strings.Repeat("a", 5000)
	obs.Elements = nil
	for i := 0; i < 20; i++ {
		obs.Elements = append(obs.Elements, types.Element{
			ID: i, Tag: "a", Text: fmt.Sprintf("link %d", i), Selector: fmt.Sprintf("#l%d", i),
		})
	}

	prompt := NewPromptBuilder("goal", 1).
		WithObservation(obs).
		WithExcerptLimit(100).
		WithElementLimit(5).
		Build()

	assert.NotContains(t, prompt, strings.Repeat("a", 101))
	assert.Contains(t, prompt, "[4] a")
	assert.NotContains(t, prompt, "[5] a")

	// A zero excerpt limit drops the page text section entirely.
	bare := NewPromptBuilder("goal", 1).
		WithObservation(obs).
		WithExcerptLimit(0).
		Build()
	assert.NotContains(t, bare, "<page_text>")
}

func TestBuildInstructionCap(t *testing.T) {
	prompt := NewPromptBuilder("goal", 1).
		WithObservation(testObservation()).
		WithInstructions([]string{"first", "second", "third", "fourth"}).
		Build()

	assert.Contains(t, prompt, "- first")
	assert.Contains(t, prompt, "- third")
	assert.NotContains(t, prompt, "- fourth")
}

func TestBuildLastActionAndSummary(t *testing.T) {
	prompt := NewPromptBuilder("goal", 2).
		WithObservation(testObservation()).
		WithLastAction(&types.Action{Type: types.ActionScroll, DeltaY: 680}, "scroll 400 -> 1080").
		Build()

	assert.Contains(t, prompt, "scroll down")
	assert.Contains(t, prompt, "result: scroll 400 -> 1080")
}

func TestBuildRetrySnippet(t *testing.T) {
	plain := NewPromptBuilder("goal", 1).WithObservation(testObservation()).Build()
	assert.NotContains(t, plain, "<format_correction>")

	retry := NewPromptBuilder("goal", 1).
		WithObservation(testObservation()).
		WithRetrySnippet("Sure! Here is my").
		Build()
	assert.Contains(t, retry, "<format_correction>")
	assert.Contains(t, retry, "Sure! Here is my")
}
