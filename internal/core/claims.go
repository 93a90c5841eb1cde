package core

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
)

// ClaimSet is an insertion-ordered JSON object used for both the header and
// the payload. Serialization emits keys in insertion order, so the bytes
// signed at issuance are stable for a given sequence of Set calls.
//
// Decoded numbers are stored as json.Number.
type ClaimSet struct {
	keys   []string
	values map[string]any
}

// NewClaimSet returns an empty ClaimSet with room for n claims.
func NewClaimSet(n int) ClaimSet {
	return ClaimSet{
		keys:   make([]string, 0, n),
		values: make(map[string]any, n),
	}
}

// Set stores value under key. Replacing an existing key keeps its position.
func (c *ClaimSet) Set(key string, value any) {
	if c.values == nil {
		c.values = make(map[string]any)
	}
	if _, exists := c.values[key]; !exists {
		c.keys = append(c.keys, key)
	}
	c.values[key] = value
}

// Get returns the raw stored value and whether key is present.
func (c ClaimSet) Get(key string) (any, bool) {
	v, ok := c.values[key]
	return v, ok
}

// Has reports whether key is present, including explicit nulls.
func (c ClaimSet) Has(key string) bool {
	_, ok := c.values[key]
	return ok
}

// String returns the value under key when it is present and a JSON string.
func (c ClaimSet) String(key string) (string, bool) {
	s, ok := c.values[key].(string)
	return s, ok
}

// Int64 returns the value under key when it is present and numeric.
// Fractional values are truncated toward zero and out-of-range values
// saturate at math.MinInt64 or math.MaxInt64.
func (c ClaimSet) Int64(key string) (int64, bool) {
	switch v := c.values[key].(type) {
	case json.Number:
		if i, err := v.Int64(); err == nil {
			return i, true
		}
		f, err := v.Float64()
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		return saturateInt64(f), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case int32:
		return int64(v), true
	case float64:
		if math.IsNaN(v) {
			return 0, false
		}
		return saturateInt64(v), true
	default:
		return 0, false
	}
}

// saturateInt64 truncates f toward zero, clamping to the int64 range.
// float64(math.MaxInt64) rounds up to 2^63, so the upper bound is exclusive.
func saturateInt64(f float64) int64 {
	switch {
	case f >= math.MaxInt64:
		return math.MaxInt64
	case f <= math.MinInt64:
		return math.MinInt64
	default:
		return int64(f)
	}
}

// Keys returns the claim names in order.
func (c ClaimSet) Keys() []string {
	return slices.Clone(c.keys)
}

func (c ClaimSet) Len() int {
	return len(c.keys)
}

// Map returns a shallow copy of the claims as a plain map.
func (c ClaimSet) Map() map[string]any {
	out := make(map[string]any, len(c.values))
	for k, v := range c.values {
		out[k] = v
	}
	return out
}

// Clone returns a ClaimSet that shares no key slice or map with c.
func (c ClaimSet) Clone() ClaimSet {
	out := NewClaimSet(len(c.keys))
	for _, k := range c.keys {
		out.Set(k, c.values[k])
	}
	return out
}

// MarshalJSON implements json.Marshaler.
func (c ClaimSet) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	buf.WriteByte('{')
	for i, k := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := enc.Encode(k); err != nil {
			return nil, fmt.Errorf("failed to marshal claim name %q: %w", k, err)
		}
		trimNewline(&buf)
		buf.WriteByte(':')
		if err := enc.Encode(c.values[k]); err != nil {
			return nil, fmt.Errorf("failed to marshal claim %q: %w", k, err)
		}
		trimNewline(&buf)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// trimNewline drops the newline json.Encoder appends after each value.
func trimNewline(buf *bytes.Buffer) {
	if n := buf.Len(); n > 0 && buf.Bytes()[n-1] == '\n' {
		buf.Truncate(n - 1)
	}
}

// UnmarshalJSON implements json.Unmarshaler, preserving document key order.
func (c *ClaimSet) UnmarshalJSON(data []byte) error {
	parsed, err := ParseClaimSet(data)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// ParseClaimSet decodes a JSON object. Anything else, including null, arrays,
// scalars, trailing data and duplicate keys, fails with ErrMalformedClaims.
func ParseClaimSet(data []byte) (ClaimSet, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	tok, err := dec.Token()
	if err != nil {
		return ClaimSet{}, fmt.Errorf("%w: %v", ErrMalformedClaims, err)
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return ClaimSet{}, fmt.Errorf("%w: expected JSON object, got %s", ErrMalformedClaims, describeToken(tok))
	}

	claims := NewClaimSet(8)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return ClaimSet{}, fmt.Errorf("%w: %v", ErrMalformedClaims, err)
		}
		key, ok := tok.(string)
		if !ok {
			return ClaimSet{}, fmt.Errorf("%w: invalid object key", ErrMalformedClaims)
		}
		if claims.Has(key) {
			return ClaimSet{}, fmt.Errorf("%w: duplicate key %q", ErrMalformedClaims, key)
		}

		var value any
		if err := dec.Decode(&value); err != nil {
			return ClaimSet{}, fmt.Errorf("%w: value of %q: %v", ErrMalformedClaims, key, err)
		}
		claims.Set(key, value)
	}

	if _, err := dec.Token(); err != nil {
		return ClaimSet{}, fmt.Errorf("%w: %v", ErrMalformedClaims, err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return ClaimSet{}, fmt.Errorf("%w: trailing data after object", ErrMalformedClaims)
	}

	return claims, nil
}

func describeToken(tok json.Token) string {
	switch v := tok.(type) {
	case nil:
		return "null"
	case json.Delim:
		if v == '[' {
			return "array"
		}
		return v.String()
	case string:
		return "string"
	case json.Number:
		return "number"
	case bool:
		return "boolean"
	default:
		return fmt.Sprintf("%T", v)
	}
}
