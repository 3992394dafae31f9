// Package tokenizer counts text tokens with the cl100k_base BPE encoding.
//
// Passage budgets are expressed in tokens rather than characters so that
// chunks line up with what embedding models actually consume. cl100k_base
// is the encoding family used by the OpenAI embedding models and is a
// close proxy for the local ones.
package tokenizer

import (
	"fmt"

	"github.com/pkoukk/tiktoken-go"

	"github.com/custodia-labs/quarry/internal/core/ports/driven"
)

// Encoding is the BPE encoding name used for all token counting.
const Encoding = "cl100k_base"

// Counter counts tokens using a tiktoken encoding.
// A Counter is safe for concurrent use.
type Counter struct {
	enc *tiktoken.Tiktoken
}

// Compile-time check that Counter implements the TokenCounter port.
var _ driven.TokenCounter = (*Counter)(nil)

// New creates a Counter backed by the cl100k_base encoding.
// The encoding dictionary is fetched and cached on first use.
func New() (*Counter, error) {
	enc, err := tiktoken.GetEncoding(Encoding)
	if err != nil {
		return nil, fmt.Errorf("loading %s encoding: %w", Encoding, err)
	}
	return &Counter{enc: enc}, nil
}

// Count returns the number of tokens in text. Empty text counts zero.
func (c *Counter) Count(text string) int {
	if text == "" {
		return 0
	}
	return len(c.enc.Encode(text, nil, nil))
}
