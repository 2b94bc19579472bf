// Package decision validates raw provider output into a typed Decision.
//
// Providers are instructed to answer with a single JSON object and nothing
// else, but in practice the object often arrives wrapped in prose or
// markdown fences. Parse tries a strict decode first and falls back to
// balanced-brace extraction before classifying the output as malformed.
package decision

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// CodeInvalidActionJSON is the single retryable classification. Any parse
// failure, and any parsed object with no action field, collapses to it.
const CodeInvalidActionJSON = "INVALID_ACTION_JSON"

// maxSnippet bounds how much of the offending output is echoed back to the
// provider in a retry hint.
const maxSnippet = 320

// ValidationError reports unusable provider output. Snippet carries a
// truncated copy of the raw text for the retry hint.
type ValidationError struct {
	Code    string
	Snippet string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Snippet)
}

func invalid(raw string) *ValidationError {
	snippet := strings.TrimSpace(raw)
	if len(snippet) > maxSnippet {
		// Back up to a rune boundary so the echoed snippet stays valid UTF-8.
		cut := maxSnippet
		for cut > 0 && !utf8.RuneStart(snippet[cut]) {
			cut--
		}
		snippet = snippet[:cut]
	}
	return &ValidationError{Code: CodeInvalidActionJSON, Snippet: snippet}
}

// Parse converts raw provider text into a Decision. The only error type it
// returns is *ValidationError.
func Parse(raw string) (*types.Decision, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, invalid(raw)
	}

	if d := tryDecode(trimmed); d != nil {
		return d, nil
	}

	// Wrapped output: recover every balanced object and take the first one
	// that decodes with an action field.
	rest := trimmed
	for {
		candidate, next := extractObject(rest)
		if candidate == "" {
			return nil, invalid(raw)
		}
		if d := tryDecode(candidate); d != nil {
			return d, nil
		}
		rest = next
	}
}

// tryDecode returns a Decision only when the text is valid JSON carrying an
// action field.
func tryDecode(text string) *types.Decision {
	var d types.Decision
	if err := json.Unmarshal([]byte(text), &d); err != nil {
		return nil
	}
	if d.Action == nil || d.Action.Type == "" {
		return nil
	}
	return &d
}

// extractObject scans for the first opening brace and returns the balanced
// object starting there, plus the remainder of the text after it. Nesting
// depth is tracked while respecting quoted strings and escape sequences.
// Returns "" when no balanced object exists.
func extractObject(text string) (candidate, rest string) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return "", ""
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return text[start : i+1], text[i+1:]
			}
		}
	}
	// Unterminated object. Retry past the opening brace in case a balanced
	// object begins inside it.
	return extractObject(text[start+1:])
}
