package idtoken

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cybergodev/idtoken/internal/core"
	"github.com/cybergodev/idtoken/internal/signing"
)

// Token is a decoded compact token. Tokens are immutable: every accessor
// returns a copy, and a Token only exists once all three segments decoded.
//
// A Token returned by Parse is unverified until Verify returns nil.
type Token struct {
	segments  core.Segments
	header    ClaimSet
	payload   ClaimSet
	signature []byte
}

// Issue builds and signs a token with the header {"alg","typ":"JWT"} and the
// payload {"iss","aud","exp","iat","nonce"}, where iat is now.
//
// key is the HMAC secret for HS* algorithms and a PEM private key for RS*.
func Issue(alg Algorithm, issuer, audience string, expiresAt time.Time, nonce string, key []byte, now time.Time) (string, error) {
	if !alg.Valid() {
		return "", fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	payload := NewClaimSet(5)
	payload.Set(ClaimIssuer, issuer)
	payload.Set(ClaimAudience, audience)
	payload.Set(ClaimExpiry, expiresAt.Unix())
	payload.Set(ClaimIssuedAt, now.Unix())
	payload.Set(ClaimNonce, nonce)

	return SignClaims(alg, payload, key)
}

// SignClaims signs an arbitrary payload. The payload is serialized in its
// insertion order and is not validated.
func SignClaims(alg Algorithm, payload ClaimSet, key []byte) (string, error) {
	token, err := signToken(alg, payload, key)
	if err != nil {
		return "", err
	}
	return token.Raw(), nil
}

func signToken(alg Algorithm, payload ClaimSet, key []byte) (*Token, error) {
	if !alg.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}

	header := NewClaimSet(2)
	header.Set(HeaderAlgorithm, alg.String())
	header.Set(HeaderType, TokenType)

	headerSegment, err := core.EncodeClaims(header)
	if err != nil {
		return nil, fmt.Errorf("failed to encode header: %w", err)
	}
	payloadSegment, err := core.EncodeClaims(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payload: %w", err)
	}

	segments := core.Segments{Header: headerSegment, Payload: payloadSegment}
	signature, err := signing.Sign(alg, []byte(segments.SigningInput()), key)
	if err != nil {
		return nil, err
	}
	segments.Signature = core.EncodeSegment(signature)

	return &Token{
		segments:  segments,
		header:    header,
		payload:   payload.Clone(),
		signature: signature,
	}, nil
}

// Parse decodes a compact token without verifying it. Failures are always
// *ParseError wrapping ErrMalformedToken, ErrMalformedEncoding or
// ErrMalformedClaims.
func Parse(tokenString string) (*Token, error) {
	segments, err := core.Split(tokenString)
	if err != nil {
		return nil, &ParseError{Segment: SegmentToken, Err: err}
	}

	header, err := core.DecodeClaims(segments.Header)
	if err != nil {
		return nil, &ParseError{Segment: SegmentHeader, Err: err}
	}

	payload, err := core.DecodeClaims(segments.Payload)
	if err != nil {
		return nil, &ParseError{Segment: SegmentPayload, Err: err}
	}

	signature, err := core.DecodeSegment(segments.Signature)
	if err != nil {
		return nil, &ParseError{Segment: SegmentSignature, Err: err}
	}

	return &Token{
		segments:  segments,
		header:    header,
		payload:   payload,
		signature: signature,
	}, nil
}

// Header returns a copy of the decoded header.
func (t *Token) Header() ClaimSet {
	return t.header.Clone()
}

// HeaderValue returns the raw header value stored under key.
func (t *Token) HeaderValue(key string) (any, bool) {
	return t.header.Get(key)
}

// Payload returns a copy of the decoded claims.
func (t *Token) Payload() ClaimSet {
	return t.payload.Clone()
}

// Claim returns the raw claim value stored under key. Numbers are json.Number
// for parsed tokens.
func (t *Token) Claim(key string) (any, bool) {
	return t.payload.Get(key)
}

// Signature returns a copy of the decoded signature bytes.
func (t *Token) Signature() []byte {
	out := make([]byte, len(t.signature))
	copy(out, t.signature)
	return out
}

// SigningInput returns "<header segment>.<payload segment>", the exact bytes
// covered by the signature.
func (t *Token) SigningInput() string {
	return t.segments.SigningInput()
}

// Raw returns the compact serialization.
func (t *Token) Raw() string {
	return t.segments.String()
}

// Algorithm resolves the "alg" header.
func (t *Token) Algorithm() (Algorithm, error) {
	name, ok := t.header.String(HeaderAlgorithm)
	if !ok {
		return 0, fmt.Errorf("%w: alg header is not a string", ErrUnsupportedAlgorithm)
	}
	return signing.ParseAlgorithm(name)
}

// ExpiresAt returns the "exp" claim when it is present and numeric.
func (t *Token) ExpiresAt() (time.Time, bool) {
	return t.timeClaim(ClaimExpiry)
}

// IssuedAt returns the "iat" claim when it is present and numeric.
func (t *Token) IssuedAt() (time.Time, bool) {
	return t.timeClaim(ClaimIssuedAt)
}

func (t *Token) timeClaim(key string) (time.Time, bool) {
	sec, ok := t.payload.Int64(key)
	if !ok {
		return time.Time{}, false
	}
	return unixTime(sec), true
}

// MarshalJSON renders the decoded token as
// {"header":{...},"payload":{...},"signature":"<base64url>"}.
func (t *Token) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Header    ClaimSet `json:"header"`
		Payload   ClaimSet `json:"payload"`
		Signature string   `json:"signature"`
	}{
		Header:    t.header,
		Payload:   t.payload,
		Signature: t.segments.Signature,
	})
}
