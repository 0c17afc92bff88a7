// Package tokenize wraps tiktoken-go so the Embedding Client's token
// ceiling check and the Answer Assembler's context budget share a
// single, consistent tokenizer.
package tokenize

import (
	"sync"

	"github.com/pkoukk/tiktoken-go"
)

const encodingName = "cl100k_base"

var (
	once sync.Once
	enc  *tiktoken.Tiktoken
	errI error
)

func encoder() (*tiktoken.Tiktoken, error) {
	once.Do(func() {
		enc, errI = tiktoken.GetEncoding(encodingName)
	})
	return enc, errI
}

// Count returns the number of tokens text encodes to. Falls back to a
// conservative ~4-chars-per-token estimate if the encoder couldn't be
// loaded, so a missing BPE vocab file never panics a request.
func Count(text string) int {
	e, err := encoder()
	if err != nil || e == nil {
		return (len(text) + 3) / 4
	}
	return len(e.Encode(text, nil, nil))
}

// Truncate trims text to at most maxTokens tokens, returning the
// truncated string and whether truncation occurred.
func Truncate(text string, maxTokens int) (string, bool) {
	e, err := encoder()
	if err != nil || e == nil {
		limit := maxTokens * 4
		if len(text) <= limit {
			return text, false
		}
		return text[:limit], true
	}
	ids := e.Encode(text, nil, nil)
	if len(ids) <= maxTokens {
		return text, false
	}
	return e.Decode(ids[:maxTokens]), true
}
