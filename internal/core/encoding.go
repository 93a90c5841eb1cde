package core

import (
	"encoding/base64"
	"fmt"
	"strings"
)

// segmentEncoding rejects non-zero trailing bits so every signature has
// exactly one textual form.
var segmentEncoding = base64.URLEncoding.Strict()

// EncodeSegment encodes data as unpadded base64url.
func EncodeSegment(data []byte) string {
	return base64.RawURLEncoding.EncodeToString(data)
}

// DecodeSegment decodes a base64url segment. Trailing "=" padding is accepted
// but not required; when present it must complete the last quantum exactly.
func DecodeSegment(segment string) ([]byte, error) {
	trimmed := strings.TrimRight(segment, "=")
	if pad := len(segment) - len(trimmed); pad > 0 && (pad > 2 || len(segment)%4 != 0) {
		return nil, fmt.Errorf("%w: invalid padding in segment", ErrMalformedEncoding)
	}

	if !isValidBase64URL(trimmed) {
		return nil, fmt.Errorf("%w: invalid base64url character in segment", ErrMalformedEncoding)
	}

	switch len(trimmed) % 4 {
	case 1:
		return nil, fmt.Errorf("%w: impossible segment length %d", ErrMalformedEncoding, len(trimmed))
	case 2:
		trimmed += "=="
	case 3:
		trimmed += "="
	}

	data, err := segmentEncoding.DecodeString(trimmed)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEncoding, err)
	}
	return data, nil
}

// DecodeClaims decodes a header or payload segment into a ClaimSet.
func DecodeClaims(segment string) (ClaimSet, error) {
	data, err := DecodeSegment(segment)
	if err != nil {
		return ClaimSet{}, err
	}
	return ParseClaimSet(data)
}

// EncodeClaims serializes claims and encodes the JSON as a segment.
func EncodeClaims(claims ClaimSet) (string, error) {
	data, err := claims.MarshalJSON()
	if err != nil {
		return "", err
	}
	return EncodeSegment(data), nil
}

// isValidBase64URL checks if string contains only valid base64url characters
func isValidBase64URL(s string) bool {
	for i := 0; i < len(s); i++ {
		c := s[i]
		if !((c >= 'A' && c <= 'Z') ||
			(c >= 'a' && c <= 'z') ||
			(c >= '0' && c <= '9') ||
			c == '-' || c == '_') {
			return false
		}
	}
	return true
}
