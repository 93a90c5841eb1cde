package idtoken

import (
	"time"

	"github.com/cybergodev/idtoken/internal/core"
	"github.com/cybergodev/idtoken/internal/signing"
)

// Algorithm identifies a supported signing algorithm.
type Algorithm = signing.Algorithm

const (
	// HS256 uses HMAC with SHA-256
	HS256 = signing.HS256

	// HS384 uses HMAC with SHA-384
	HS384 = signing.HS384

	// HS512 uses HMAC with SHA-512
	HS512 = signing.HS512

	// RS256 uses RSASSA-PKCS1-v1_5 with SHA-256
	RS256 = signing.RS256

	// RS384 uses RSASSA-PKCS1-v1_5 with SHA-384
	RS384 = signing.RS384

	// RS512 uses RSASSA-PKCS1-v1_5 with SHA-512
	RS512 = signing.RS512
)

// Family groups algorithms by the kind of key they consume.
type Family = signing.Family

const (
	FamilyHMAC = signing.FamilyHMAC
	FamilyRSA  = signing.FamilyRSA
)

// ParseAlgorithm resolves an algorithm identifier such as "RS256".
func ParseAlgorithm(name string) (Algorithm, error) {
	return signing.ParseAlgorithm(name)
}

// Algorithms lists every supported algorithm.
func Algorithms() []Algorithm {
	return signing.Algorithms()
}

// ClaimSet is an insertion-ordered JSON object used for headers and payloads.
type ClaimSet = core.ClaimSet

// NewClaimSet returns an empty ClaimSet with room for n claims.
func NewClaimSet(n int) ClaimSet {
	return core.NewClaimSet(n)
}

// Registered header and claim names.
const (
	HeaderAlgorithm = core.HeaderAlgorithm
	HeaderType      = core.HeaderType

	ClaimIssuer   = core.ClaimIssuer
	ClaimAudience = core.ClaimAudience
	ClaimExpiry   = core.ClaimExpiry
	ClaimIssuedAt = core.ClaimIssuedAt
	ClaimNonce    = core.ClaimNonce
	ClaimID       = core.ClaimID

	// TokenType is the only accepted "typ" header value.
	TokenType = core.TokenType

	// MaxTokenLength bounds the accepted compact serialization.
	MaxTokenLength = core.MaxTokenLength
)

// DefaultIssuedAtTolerance is the maximum accepted age of a token's "iat"
// claim used by DefaultConfig.
const DefaultIssuedAtTolerance = 600 * time.Second

// VerifyOptions carries the expectations a token is checked against.
type VerifyOptions struct {
	// Issuer must equal the "iss" claim
	Issuer string

	// Audience must equal the "aud" claim
	Audience string

	// Nonce must equal the "nonce" claim
	Nonce string

	// Algorithms is the allow-list for the "alg" header. It must not be empty.
	Algorithms []Algorithm

	// IssuedAtTolerance bounds now - iat. Zero accepts only iat >= now;
	// DefaultIssuedAtTolerance is the usual value.
	IssuedAtTolerance time.Duration

	// Now is the verification time. The zero value selects time.Now().
	Now time.Time
}
