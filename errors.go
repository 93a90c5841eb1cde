package idtoken

import (
	"errors"
	"fmt"

	"github.com/cybergodev/idtoken/internal/core"
	"github.com/cybergodev/idtoken/internal/replay"
	"github.com/cybergodev/idtoken/internal/signing"
)

// Predefined errors. Every error returned by this package wraps exactly one of them.
var (
	// Key and algorithm errors
	ErrUnsupportedAlgorithm = signing.ErrUnsupportedAlgorithm
	ErrInvalidKey           = signing.ErrInvalidKey

	// Parse errors
	ErrMalformedToken    = core.ErrMalformedToken
	ErrMalformedEncoding = core.ErrMalformedEncoding
	ErrMalformedClaims   = core.ErrMalformedClaims

	// Validation errors, in check order
	ErrUnexpectedType        = errors.New("unexpected token type")
	ErrMissingAlgorithm      = errors.New("missing algorithm in token header")
	ErrAlgorithmNotPermitted = errors.New("algorithm not permitted")
	ErrInvalidIssuer         = errors.New("invalid issuer")
	ErrInvalidAudience       = errors.New("invalid audience")
	ErrTokenExpired          = errors.New("token has expired")
	ErrIssuedAtExpired       = errors.New("token issued too long ago")
	ErrInvalidNonce          = errors.New("invalid nonce")
	ErrSignatureVerification = signing.ErrSignatureVerification

	// Replay errors, reported after every other check passed
	ErrTokenReplayed   = errors.New("token has already been used")
	ErrReplayCacheFull = replay.ErrCapacityExceeded

	// Configuration errors
	ErrNoPermittedAlgorithms = errors.New("no permitted algorithms: allow-list must not be empty")
	ErrInvalidConfig         = errors.New("invalid configuration")
	ErrReservedClaim         = errors.New("claim name is reserved")

	// System errors
	ErrRateLimitExceeded = errors.New("rate limit exceeded: too many requests")
	ErrProcessorClosed   = errors.New("processor is closed: cannot perform operations")
)

// Segment names reported by ParseError.
const (
	SegmentToken     = "token"
	SegmentHeader    = "header"
	SegmentPayload   = "payload"
	SegmentSignature = "signature"
)

// ParseError reports a token string that could not be turned into a Token.
type ParseError struct {
	Segment string // The segment that failed to parse, or "token" for structural errors
	Err     error  // ErrMalformedToken, ErrMalformedEncoding or ErrMalformedClaims
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse token %s: %v", e.Segment, e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ValidationError represents a failed verification check for a specific field.
type ValidationError struct {
	Field   string // The header or claim name that failed validation
	Message string // Human-readable error message
	Err     error  // Underlying sentinel error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("validation failed for field '%s': %s: %v", e.Field, e.Message, e.Err)
	}
	return fmt.Sprintf("validation failed for field '%s': %s", e.Field, e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// IsParseError reports whether err came from parsing a token string.
func IsParseError(err error) bool {
	var pe *ParseError
	return errors.As(err, &pe)
}

// IsValidationError reports whether err is a rejection of a well-formed token.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

var errorKinds = []struct {
	err  error
	kind string
}{
	{ErrUnsupportedAlgorithm, "unsupported_algorithm"},
	{ErrInvalidKey, "invalid_key"},
	{ErrMalformedToken, "malformed_token"},
	{ErrMalformedEncoding, "malformed_encoding"},
	{ErrMalformedClaims, "malformed_claims"},
	{ErrUnexpectedType, "unexpected_type"},
	{ErrMissingAlgorithm, "missing_algorithm"},
	{ErrAlgorithmNotPermitted, "algorithm_not_permitted"},
	{ErrInvalidIssuer, "invalid_issuer"},
	{ErrInvalidAudience, "invalid_audience"},
	{ErrTokenExpired, "token_expired"},
	{ErrIssuedAtExpired, "issued_at_expired"},
	{ErrInvalidNonce, "invalid_nonce"},
	{ErrSignatureVerification, "signature_verification"},
	{ErrTokenReplayed, "token_replayed"},
	{ErrReplayCacheFull, "replay_cache_full"},
	{ErrNoPermittedAlgorithms, "no_permitted_algorithms"},
	{ErrInvalidConfig, "invalid_config"},
	{ErrReservedClaim, "reserved_claim"},
	{ErrRateLimitExceeded, "rate_limit_exceeded"},
	{ErrProcessorClosed, "processor_closed"},
}

// Kind returns a stable snake_case label for err, suitable for log fields
// and metric labels. It returns "ok" for nil and "unknown" for foreign errors.
func Kind(err error) string {
	if err == nil {
		return "ok"
	}
	for _, k := range errorKinds {
		if errors.Is(err, k.err) {
			return k.kind
		}
	}
	return "unknown"
}
