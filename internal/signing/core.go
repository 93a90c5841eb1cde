package signing

import (
	"crypto"
	"errors"
	"fmt"

	_ "crypto/sha256"
	_ "crypto/sha512"
)

var (
	ErrUnsupportedAlgorithm  = errors.New("unsupported algorithm")
	ErrInvalidKey            = errors.New("invalid key")
	ErrSignatureVerification = errors.New("signature verification failed")
)

// Method computes and checks signatures for one algorithm.
// The message is always the ASCII bytes of "<header>.<payload>".
type Method interface {
	Alg() Algorithm
	Hash() crypto.Hash
	Sign(message []byte, key []byte) ([]byte, error)
	Verify(message []byte, signature []byte, key []byte) error
}

var (
	hmacHS256 = &hmacSigningMethod{alg: HS256}
	hmacHS384 = &hmacSigningMethod{alg: HS384}
	hmacHS512 = &hmacSigningMethod{alg: HS512}

	rsaRS256 = newRSASigningMethod(RS256)
	rsaRS384 = newRSASigningMethod(RS384)
	rsaRS512 = newRSASigningMethod(RS512)
)

// MethodFor returns the signing method bound to alg.
func MethodFor(alg Algorithm) (Method, error) {
	switch alg {
	case HS256:
		return hmacHS256, nil
	case HS384:
		return hmacHS384, nil
	case HS512:
		return hmacHS512, nil
	case RS256:
		return rsaRS256, nil
	case RS384:
		return rsaRS384, nil
	case RS512:
		return rsaRS512, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, alg)
	}
}

// Sign computes the raw signature of message under alg.
func Sign(alg Algorithm, message, key []byte) ([]byte, error) {
	method, err := MethodFor(alg)
	if err != nil {
		return nil, err
	}
	if !method.Hash().Available() {
		return nil, fmt.Errorf("%w: hash function %v not available", ErrUnsupportedAlgorithm, method.Hash())
	}
	return method.Sign(message, key)
}

// Verify checks signature over message under alg. It returns nil on success,
// ErrSignatureVerification on mismatch and ErrInvalidKey for unusable key material.
func Verify(alg Algorithm, message, signature, key []byte) error {
	method, err := MethodFor(alg)
	if err != nil {
		return err
	}
	if !method.Hash().Available() {
		return fmt.Errorf("%w: hash function %v not available", ErrUnsupportedAlgorithm, method.Hash())
	}
	return method.Verify(message, signature, key)
}
