package core

import (
	"fmt"
	"strings"
)

// Segments holds the three raw parts of a compact token.
type Segments struct {
	Header    string
	Payload   string
	Signature string
}

// SigningInput returns the exact bytes covered by the signature.
func (s Segments) SigningInput() string {
	return s.Header + "." + s.Payload
}

// String reassembles the compact serialization.
func (s Segments) String() string {
	return s.Header + "." + s.Payload + "." + s.Signature
}

// Split separates a compact token into its segments. It fails with
// ErrMalformedToken unless there are exactly three non-empty segments.
func Split(token string) (Segments, error) {
	tokenLen := len(token)
	if tokenLen == 0 {
		return Segments{}, fmt.Errorf("%w: empty token", ErrMalformedToken)
	}
	if tokenLen > MaxTokenLength {
		return Segments{}, fmt.Errorf("%w: token too large: maximum %d characters allowed", ErrMalformedToken, MaxTokenLength)
	}

	part1, part2, part3, ok := fastSplit3(token, '.')
	if !ok {
		return Segments{}, fmt.Errorf("%w: expected 3 segments, got %d", ErrMalformedToken, strings.Count(token, ".")+1)
	}
	if part1 == "" || part2 == "" || part3 == "" {
		return Segments{}, fmt.Errorf("%w: empty segment", ErrMalformedToken)
	}

	return Segments{Header: part1, Payload: part2, Signature: part3}, nil
}

// fastSplit3 splits s around exactly two separators.
func fastSplit3(s string, sep byte) (string, string, string, bool) {
	first := strings.IndexByte(s, sep)
	if first == -1 {
		return "", "", "", false
	}
	second := strings.IndexByte(s[first+1:], sep)
	if second == -1 {
		return "", "", "", false
	}
	second += first + 1
	if strings.IndexByte(s[second+1:], sep) != -1 {
		return "", "", "", false
	}

	return s[:first], s[first+1 : second], s[second+1:], true
}
