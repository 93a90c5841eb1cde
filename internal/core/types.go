package core

import "errors"

var (
	ErrMalformedToken    = errors.New("malformed token")
	ErrMalformedEncoding = errors.New("malformed base64url encoding")
	ErrMalformedClaims   = errors.New("malformed claims")
)

const (
	// MaxTokenLength bounds the accepted compact serialization.
	MaxTokenLength = 8192

	// TokenType is the only accepted "typ" header value.
	TokenType = "JWT"
)

// Registered header and payload keys.
const (
	HeaderAlgorithm = "alg"
	HeaderType      = "typ"

	ClaimIssuer   = "iss"
	ClaimAudience = "aud"
	ClaimExpiry   = "exp"
	ClaimIssuedAt = "iat"
	ClaimNonce    = "nonce"
	ClaimID       = "jti"
)
