package idtoken

import (
	"github.com/google/uuid"
)

// VerifyString parses tokenString and verifies it against key and opts.
// The token is returned only when verification succeeds.
func VerifyString(tokenString string, key []byte, opts VerifyOptions) (*Token, error) {
	token, err := Parse(tokenString)
	if err != nil {
		return nil, err
	}
	if err := token.Verify(key, opts); err != nil {
		return nil, err
	}
	return token, nil
}

// NewNonce returns a random nonce suitable for binding a token to a request.
func NewNonce() string {
	return uuid.NewString()
}
