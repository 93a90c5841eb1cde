package signing

import (
	"crypto"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// rsaSigningMethod delegates the PKCS#1 v1.5 primitive to golang-jwt and keeps
// key interpretation here: private PEM for signing, public PEM for verification.
type rsaSigningMethod struct {
	alg    Algorithm
	method *gjwt.SigningMethodRSA
}

func newRSASigningMethod(alg Algorithm) *rsaSigningMethod {
	var method *gjwt.SigningMethodRSA
	switch alg {
	case RS256:
		method = gjwt.SigningMethodRS256
	case RS384:
		method = gjwt.SigningMethodRS384
	case RS512:
		method = gjwt.SigningMethodRS512
	}
	return &rsaSigningMethod{alg: alg, method: method}
}

func (r *rsaSigningMethod) Sign(message []byte, key []byte) ([]byte, error) {
	privateKey, err := ParseRSAPrivateKey(key)
	if err != nil {
		return nil, err
	}

	signature, err := r.method.Sign(string(message), privateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to sign with %s: %w", r.alg, err)
	}
	return signature, nil
}

func (r *rsaSigningMethod) Verify(message []byte, signature []byte, key []byte) error {
	publicKey, err := ParseRSAPublicKey(key)
	if err != nil {
		return err
	}

	if err := r.method.Verify(string(message), signature, publicKey); err != nil {
		if errors.Is(err, gjwt.ErrInvalidKeyType) {
			return fmt.Errorf("%w: %v", ErrInvalidKey, err)
		}
		return ErrSignatureVerification
	}
	return nil
}

func (r *rsaSigningMethod) Alg() Algorithm {
	return r.alg
}

func (r *rsaSigningMethod) Hash() crypto.Hash {
	return r.alg.Hash()
}

// ParseRSAPrivateKey decodes a PEM encoded PKCS#1 or PKCS#8 RSA private key.
func ParseRSAPrivateKey(key []byte) (*rsa.PrivateKey, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: RSA private key is empty", ErrInvalidKey)
	}
	privateKey, err := gjwt.ParseRSAPrivateKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse RSA private key: %v", ErrInvalidKey, err)
	}
	return privateKey, nil
}

// ParseRSAPublicKey decodes a PEM encoded PKIX or PKCS#1 RSA public key, or
// the public key of a PEM certificate.
func ParseRSAPublicKey(key []byte) (*rsa.PublicKey, error) {
	if len(key) == 0 {
		return nil, fmt.Errorf("%w: RSA public key is empty", ErrInvalidKey)
	}
	publicKey, err := gjwt.ParseRSAPublicKeyFromPEM(key)
	if err != nil {
		return nil, fmt.Errorf("%w: cannot parse RSA public key: %v", ErrInvalidKey, err)
	}
	return publicKey, nil
}

// PublicKeyPEM derives the PKIX "PUBLIC KEY" PEM block from a PEM private key.
func PublicKeyPEM(privateKeyPEM []byte) ([]byte, error) {
	privateKey, err := ParseRSAPrivateKey(privateKeyPEM)
	if err != nil {
		return nil, err
	}
	der, err := x509.MarshalPKIXPublicKey(&privateKey.PublicKey)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidKey, err)
	}
	return pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der}), nil
}
