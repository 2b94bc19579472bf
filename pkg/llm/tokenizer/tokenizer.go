// Package tokenizer provides client-side token counting for prompt
// accounting. Counts are informational (logging and budget checks); no
// behavior depends on exact tokenizer parity with the selected provider.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"
)

// encodingName is a reasonable cross-provider default.
const encodingName = "cl100k_base"

// Tokenizer counts tokens using a fixed BPE encoding.
type Tokenizer struct {
	encoding *tiktoken.Tiktoken
}

// New creates a tokenizer. Callers should treat failure as non-fatal and
// fall back to byte-length heuristics.
func New() (*Tokenizer, error) {
	encoding, err := tiktoken.GetEncoding(encodingName)
	if err != nil {
		return nil, fmt.Errorf("failed to load %s encoding: %w", encodingName, err)
	}
	return &Tokenizer{encoding: encoding}, nil
}

// CountTokens returns the token count of the given text.
func (t *Tokenizer) CountTokens(text string) int {
	if t == nil || t.encoding == nil {
		return 0
	}
	return len(t.encoding.Encode(text, nil, nil))
}
