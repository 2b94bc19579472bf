// Package prompts constructs the provider-agnostic decision prompt from the
// current observation and session state.
package prompts

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

const (
	// MaxElements bounds how many interactive elements are surfaced.
	MaxElements = 40
	// MaxExcerpt bounds the page-text excerpt, in bytes.
	MaxExcerpt = 1200
	// MaxInstructions bounds queued user instructions per prompt.
	MaxInstructions = 3
)

// PromptBuilder assembles the user prompt for one decision call.
type PromptBuilder struct {
	goal              string
	step              int
	language          string
	observation       *types.Observation
	lastAction        *types.Action
	lastChangeSummary string
	instructions      []string
	retrySnippet      string
	excerptLimit      int
	elementLimit      int
}

// NewPromptBuilder creates a builder for the given goal and step.
func NewPromptBuilder(goal string, step int) *PromptBuilder {
	return &PromptBuilder{
		goal:         goal,
		step:         step,
		excerptLimit: MaxExcerpt,
		elementLimit: MaxElements,
	}
}

// WithLanguage sets the language the final answer should be written in.
func (pb *PromptBuilder) WithLanguage(language string) *PromptBuilder {
	pb.language = language
	return pb
}

// WithObservation sets the current page state.
func (pb *PromptBuilder) WithObservation(obs *types.Observation) *PromptBuilder {
	pb.observation = obs
	return pb
}

// WithLastAction records the previously executed action and the change
// summary it produced.
func (pb *PromptBuilder) WithLastAction(action *types.Action, changeSummary string) *PromptBuilder {
	pb.lastAction = action
	pb.lastChangeSummary = changeSummary
	return pb
}

// WithInstructions adds queued mid-session user instructions. At most
// MaxInstructions are included.
func (pb *PromptBuilder) WithInstructions(instructions []string) *PromptBuilder {
	if len(instructions) > MaxInstructions {
		instructions = instructions[:MaxInstructions]
	}
	pb.instructions = instructions
	return pb
}

// WithRetrySnippet marks this prompt as a retry after malformed output,
// echoing the truncated previous response.
func (pb *PromptBuilder) WithRetrySnippet(snippet string) *PromptBuilder {
	pb.retrySnippet = snippet
	return pb
}

// WithExcerptLimit lowers the page-text bound below MaxExcerpt. Used when
// the assembled prompt must be shrunk to fit a token budget.
func (pb *PromptBuilder) WithExcerptLimit(limit int) *PromptBuilder {
	if limit >= 0 && limit < pb.excerptLimit {
		pb.excerptLimit = limit
	}
	return pb
}

// WithElementLimit lowers the element-list bound below MaxElements.
func (pb *PromptBuilder) WithElementLimit(limit int) *PromptBuilder {
	if limit >= 0 && limit < pb.elementLimit {
		pb.elementLimit = limit
	}
	return pb
}

// Build assembles the prompt text.
func (pb *PromptBuilder) Build() string {
	var b strings.Builder

	fmt.Fprintf(&b, "<goal>\n%s\n</goal>\n\n", pb.goal)
	fmt.Fprintf(&b, "<progress>\nstep %d\n</progress>\n\n", pb.step)

	if pb.language != "" {
		fmt.Fprintf(&b, "<response_language>\n%s\n</response_language>\n\n", pb.language)
	}

	if obs := pb.observation; obs != nil {
		b.WriteString("<page>\n")
		fmt.Fprintf(&b, "url: %s\n", obs.URL)
		fmt.Fprintf(&b, "title: %s\n", obs.Title)
		fmt.Fprintf(&b, "viewport: %dx%d\n", obs.Viewport.Width, obs.Viewport.Height)
		fmt.Fprintf(&b, "scroll: y=%d of %d", obs.Scroll.Y, obs.Scroll.MaxY)
		if obs.Scroll.AtTop {
			b.WriteString(" (at top)")
		}
		if obs.Scroll.AtBottom {
			b.WriteString(" (at bottom)")
		}
		b.WriteString("\n</page>\n\n")

		writeElements(&b, obs.Elements, pb.elementLimit)

		if obs.TextExcerpt != "" && pb.excerptLimit > 0 {
			excerpt := truncate(obs.TextExcerpt, pb.excerptLimit)
			fmt.Fprintf(&b, "<page_text>\n%s\n</page_text>\n\n", excerpt)
		}
	}

	if pb.lastAction != nil {
		fmt.Fprintf(&b, "<last_action>\n%s\n", pb.lastAction.Describe())
		if pb.lastChangeSummary != "" {
			fmt.Fprintf(&b, "result: %s\n", pb.lastChangeSummary)
		}
		b.WriteString("</last_action>\n\n")
	}

	if len(pb.instructions) > 0 {
		b.WriteString("<user_instructions>\n")
		for _, instr := range pb.instructions {
			fmt.Fprintf(&b, "- %s\n", instr)
		}
		b.WriteString("</user_instructions>\n\n")
	}

	b.WriteString("Choose the single next action.")

	if pb.retrySnippet != "" {
		fmt.Fprintf(&b, retryHint, pb.retrySnippet)
	}

	return b.String()
}

// writeElements emits up to limit interactive elements, id-first so the
// model can reference them as targets. Raw markup never appears here.
func writeElements(b *strings.Builder, elements []types.Element, limit int) {
	if len(elements) == 0 || limit <= 0 {
		return
	}
	if len(elements) > limit {
		elements = elements[:limit]
	}

	b.WriteString("<elements>\n")
	for _, el := range elements {
		fmt.Fprintf(b, "[%d] %s", el.ID, el.Tag)
		if el.Role != "" {
			fmt.Fprintf(b, " role=%q", el.Role)
		}
		if el.Label != "" {
			fmt.Fprintf(b, " label=%q", el.Label)
		}
		if el.Text != "" {
			fmt.Fprintf(b, " text=%q", el.Text)
		}
		if el.Placeholder != "" {
			fmt.Fprintf(b, " placeholder=%q", el.Placeholder)
		}
		if el.AriaLabel != "" {
			fmt.Fprintf(b, " aria-label=%q", el.AriaLabel)
		}
		b.WriteString("\n")
	}
	b.WriteString("</elements>\n\n")
}

// truncate shortens s to at most max bytes without splitting a rune.
func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	cut := max
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut]
}
