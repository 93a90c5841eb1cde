package security

import (
	"bytes"
	"strings"
)

var weakPatterns = [...]string{
	"12345678", "87654321", "11111111", "00000000", "aaaaaaaa",
	"abcdefgh", "qwerty", "asdfgh", "zxcvbn", "letmein", "welcome",
	"password", "secret", "changeme", "default", "example", "admin",
}

// IsWeakKey reports whether an HMAC secret is too short or too predictable to
// be trusted: fewer than 32 bytes, a single repeated byte, a short repeated
// pattern, an ascending or descending run, or a well-known weak substring.
func IsWeakKey(key []byte) bool {
	if len(key) < 32 {
		return true
	}

	if bytes.Count(key, key[:1]) == len(key) {
		return true
	}

	if hasLowEntropy(key) || isSequential(key) || isRepeatedPattern(key) {
		return true
	}

	lower := strings.ToLower(string(key))
	for _, pattern := range weakPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}

	return false
}

// hasLowEntropy flags keys where fewer than 30% of the bytes are distinct.
func hasLowEntropy(key []byte) bool {
	var seen [256]bool
	unique := 0
	for _, b := range key {
		if !seen[b] {
			seen[b] = true
			unique++
		}
	}
	return float64(unique)/float64(len(key)) < 0.3
}

func isSequential(key []byte) bool {
	ascending, descending := true, true
	for i := 1; i < len(key) && i < 8; i++ {
		if key[i] != key[i-1]+1 {
			ascending = false
		}
		if key[i] != key[i-1]-1 {
			descending = false
		}
	}
	return ascending || descending
}

// isRepeatedPattern detects keys built from a 2-4 byte unit, e.g. "abcabc...".
func isRepeatedPattern(key []byte) bool {
	for unit := 2; unit <= 4; unit++ {
		if len(key) < unit*3 {
			continue
		}
		pattern := key[:unit]
		repeated := true
		for i := unit; i < len(key); i += unit {
			end := min(i+unit, len(key))
			if !bytes.Equal(key[i:end], pattern[:end-i]) {
				repeated = false
				break
			}
		}
		if repeated {
			return true
		}
	}
	return false
}
