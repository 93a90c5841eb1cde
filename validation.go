package idtoken

import (
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/cybergodev/idtoken/internal/signing"
)

// verification carries the resolved options and the state shared between checks.
type verification struct {
	key       []byte
	opts      VerifyOptions
	now       int64
	tolerance int64
	alg       Algorithm
}

type checkFunc func(t *Token, v *verification) error

// verificationChecks run in order; the first failure is returned.
var verificationChecks = [...]checkFunc{
	checkType,
	checkAlgorithmPresent,
	checkAlgorithmPermitted,
	checkIssuer,
	checkAudience,
	checkExpiry,
	checkIssuedAt,
	checkNonce,
	checkSignature,
}

// Verify checks the token against opts and key. It returns nil only when
// every check passes. Claim and signature failures are *ValidationError;
// an empty allow-list or a negative tolerance is reported before any check.
//
// key is the HMAC secret for HS* algorithms and a PEM public key for RS*.
func (t *Token) Verify(key []byte, opts VerifyOptions) error {
	if t == nil {
		return &ParseError{Segment: SegmentToken, Err: fmt.Errorf("%w: nil token", ErrMalformedToken)}
	}
	if len(opts.Algorithms) == 0 {
		return ErrNoPermittedAlgorithms
	}
	if opts.IssuedAtTolerance < 0 {
		return fmt.Errorf("%w: negative issued-at tolerance %s", ErrInvalidConfig, opts.IssuedAtTolerance)
	}

	now := opts.Now
	if now.IsZero() {
		now = time.Now()
	}

	v := &verification{
		key:       key,
		opts:      opts,
		now:       now.Unix(),
		tolerance: int64(opts.IssuedAtTolerance / time.Second),
	}
	for _, check := range verificationChecks {
		if err := check(t, v); err != nil {
			return err
		}
	}
	return nil
}

func checkType(t *Token, _ *verification) error {
	typ, ok := t.header.String(HeaderType)
	if !ok {
		return &ValidationError{Field: HeaderType, Message: "missing or not a string", Err: ErrUnexpectedType}
	}
	if typ != TokenType {
		return &ValidationError{Field: HeaderType, Message: fmt.Sprintf("expected %q, got %q", TokenType, typ), Err: ErrUnexpectedType}
	}
	return nil
}

func checkAlgorithmPresent(t *Token, _ *verification) error {
	value, ok := t.header.Get(HeaderAlgorithm)
	if !ok || value == nil {
		return &ValidationError{Field: HeaderAlgorithm, Message: "missing", Err: ErrMissingAlgorithm}
	}
	if s, isString := value.(string); isString && s == "" {
		return &ValidationError{Field: HeaderAlgorithm, Message: "empty", Err: ErrMissingAlgorithm}
	}
	return nil
}

func checkAlgorithmPermitted(t *Token, v *verification) error {
	name, ok := t.header.String(HeaderAlgorithm)
	if !ok {
		return &ValidationError{Field: HeaderAlgorithm, Message: "not a string", Err: ErrAlgorithmNotPermitted}
	}
	alg, err := signing.ParseAlgorithm(name)
	if err != nil {
		return &ValidationError{Field: HeaderAlgorithm, Message: fmt.Sprintf("unknown algorithm %q", name), Err: ErrAlgorithmNotPermitted}
	}
	if !slices.Contains(v.opts.Algorithms, alg) {
		return &ValidationError{Field: HeaderAlgorithm, Message: fmt.Sprintf("%s is not in the allow-list", alg), Err: ErrAlgorithmNotPermitted}
	}
	v.alg = alg
	return nil
}

func checkIssuer(t *Token, v *verification) error {
	return checkStringClaim(t, ClaimIssuer, v.opts.Issuer, ErrInvalidIssuer)
}

func checkAudience(t *Token, v *verification) error {
	return checkStringClaim(t, ClaimAudience, v.opts.Audience, ErrInvalidAudience)
}

func checkNonce(t *Token, v *verification) error {
	return checkStringClaim(t, ClaimNonce, v.opts.Nonce, ErrInvalidNonce)
}

func checkStringClaim(t *Token, claim, expected string, sentinel error) error {
	actual, ok := t.payload.String(claim)
	if !ok {
		return &ValidationError{Field: claim, Message: "missing or not a string", Err: sentinel}
	}
	if actual != expected {
		return &ValidationError{Field: claim, Message: "does not match expected value", Err: sentinel}
	}
	return nil
}

func checkExpiry(t *Token, v *verification) error {
	exp, ok := t.payload.Int64(ClaimExpiry)
	if !ok {
		return &ValidationError{Field: ClaimExpiry, Message: "missing or not numeric", Err: ErrTokenExpired}
	}
	if exp < v.now {
		return &ValidationError{Field: ClaimExpiry, Message: fmt.Sprintf("expired %ds ago", v.now-exp), Err: ErrTokenExpired}
	}
	return nil
}

func checkIssuedAt(t *Token, v *verification) error {
	iat, ok := t.payload.Int64(ClaimIssuedAt)
	if !ok {
		return &ValidationError{Field: ClaimIssuedAt, Message: "missing or not numeric", Err: ErrIssuedAtExpired}
	}
	if age, tooOld := issuedAge(iat, v.now, v.tolerance); tooOld {
		return &ValidationError{Field: ClaimIssuedAt, Message: fmt.Sprintf("issued %ds ago, tolerance is %ds", age, v.tolerance), Err: ErrIssuedAtExpired}
	}
	return nil
}

// issuedAge returns now - iat and whether it exceeds tolerance. The
// difference is taken in uint64 so extreme iat values cannot wrap.
func issuedAge(iat, now, tolerance int64) (uint64, bool) {
	if iat >= now {
		return 0, false
	}
	age := uint64(now) - uint64(iat)
	return age, age > uint64(tolerance)
}

func checkSignature(t *Token, v *verification) error {
	err := signing.Verify(v.alg, []byte(t.segments.SigningInput()), t.signature, v.key)
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrSignatureVerification) {
		return &ValidationError{Field: SegmentSignature, Message: "does not match signing input", Err: ErrSignatureVerification}
	}
	return err
}
