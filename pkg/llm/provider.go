// Package llm defines the provider abstraction for the agent's decision
// calls: send one multimodal chat turn, get raw assistant text back.
//
// Three interchangeable implementations live in subpackages, differing only
// in endpoint shape, authentication, and payload encoding:
//
//   - openai:  bearer-token auth against OpenAI-compatible chat completions
//   - gemini:  header API key against the Gemini generateContent endpoint
//   - bedrock: SigV4-signed requests against the Bedrock runtime
//
// Providers perform no retries and no output parsing; classification of the
// returned text is the decision engine's job. A transport or HTTP-level
// failure is fatal to the session.
package llm

import (
	"context"
	"fmt"

	"github.com/webpilot-ai/webpilot/pkg/types"
)

// Request is one chat turn. Prompt carries the full serialized page context;
// Image is optional and forwarded only by multimodal-capable providers.
type Request struct {
	System      string
	Prompt      string
	Image       *types.Screenshot
	Temperature float64
	MaxTokens   int
}

// Provider sends a chat turn and returns the assistant's raw text.
// Implementations join multi-part responses with newlines and return an
// error for any non-2xx response.
type Provider interface {
	// Name identifies the provider kind for logging.
	Name() string

	// Send performs one chat turn. The returned string is the raw
	// assistant text with no unwrapping beyond envelope extraction.
	Send(ctx context.Context, req *Request) (string, error)
}

// maxErrorBody bounds how much of a failed response body is surfaced.
const maxErrorBody = 512

// RequestError is a fatal transport or HTTP failure from a provider call.
type RequestError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("%s request failed with status %d: %s", e.Provider, e.StatusCode, e.Body)
}

// NewRequestError builds a RequestError with the body truncated to a bounded
// snippet.
func NewRequestError(provider string, statusCode int, body []byte) *RequestError {
	snippet := string(body)
	if len(snippet) > maxErrorBody {
		snippet = snippet[:maxErrorBody] + "..."
	}
	return &RequestError{Provider: provider, StatusCode: statusCode, Body: snippet}
}
