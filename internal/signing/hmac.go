package signing

import (
	"crypto"
	"crypto/hmac"
	"fmt"

	"github.com/cybergodev/idtoken/internal/security"
)

type hmacSigningMethod struct {
	alg Algorithm
}

func (h *hmacSigningMethod) Verify(message []byte, signature []byte, key []byte) error {
	expected, err := h.Sign(message, key)
	if err != nil {
		return err
	}
	defer security.ZeroBytes(expected)

	// Constant-time comparison
	if !security.SecureCompare(signature, expected) {
		return ErrSignatureVerification
	}

	return nil
}

func (h *hmacSigningMethod) Sign(message []byte, key []byte) ([]byte, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: HMAC secret is empty", ErrInvalidKey)
	}

	secureKey := security.NewSecureBytesFromSlice(key)
	defer secureKey.Destroy()

	hasher := hmac.New(h.Hash().New, secureKey.Bytes())
	hasher.Write(message)
	return hasher.Sum(nil), nil
}

func (h *hmacSigningMethod) Alg() Algorithm {
	return h.alg
}

func (h *hmacSigningMethod) Hash() crypto.Hash {
	return h.alg.Hash()
}
