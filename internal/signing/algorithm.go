package signing

import (
	"crypto"
	"fmt"
)

// Algorithm identifies a supported JWS signing algorithm.
// The zero value is not a valid algorithm.
type Algorithm uint8

const (
	HS256 Algorithm = iota + 1
	HS384
	HS512
	RS256
	RS384
	RS512
)

// Family groups algorithms by the kind of key they consume.
type Family uint8

const (
	FamilyUnknown Family = iota
	// FamilyHMAC algorithms use a shared secret for both signing and verification
	FamilyHMAC
	// FamilyRSA algorithms sign with a private key and verify with the public key
	FamilyRSA
)

func (f Family) String() string {
	switch f {
	case FamilyHMAC:
		return "HMAC"
	case FamilyRSA:
		return "RSA"
	default:
		return "unknown"
	}
}

// Algorithms lists every supported algorithm in declaration order.
func Algorithms() []Algorithm {
	return []Algorithm{HS256, HS384, HS512, RS256, RS384, RS512}
}

// ParseAlgorithm resolves the "alg" header value. Matching is case-sensitive.
func ParseAlgorithm(name string) (Algorithm, error) {
	switch name {
	case "HS256":
		return HS256, nil
	case "HS384":
		return HS384, nil
	case "HS512":
		return HS512, nil
	case "RS256":
		return RS256, nil
	case "RS384":
		return RS384, nil
	case "RS512":
		return RS512, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnsupportedAlgorithm, name)
	}
}

// String returns the identifier transmitted in the "alg" header.
func (a Algorithm) String() string {
	switch a {
	case HS256:
		return "HS256"
	case HS384:
		return "HS384"
	case HS512:
		return "HS512"
	case RS256:
		return "RS256"
	case RS384:
		return "RS384"
	case RS512:
		return "RS512"
	default:
		return fmt.Sprintf("Algorithm(%d)", uint8(a))
	}
}

// Valid reports whether a is one of the supported algorithms.
func (a Algorithm) Valid() bool {
	return a.Family() != FamilyUnknown
}

func (a Algorithm) Family() Family {
	switch a {
	case HS256, HS384, HS512:
		return FamilyHMAC
	case RS256, RS384, RS512:
		return FamilyRSA
	default:
		return FamilyUnknown
	}
}

// Hash returns the digest used by the algorithm, or 0 for invalid values.
func (a Algorithm) Hash() crypto.Hash {
	switch a {
	case HS256, RS256:
		return crypto.SHA256
	case HS384, RS384:
		return crypto.SHA384
	case HS512, RS512:
		return crypto.SHA512
	default:
		return 0
	}
}

// MarshalText implements encoding.TextMarshaler.
func (a Algorithm) MarshalText() ([]byte, error) {
	if !a.Valid() {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedAlgorithm, a)
	}
	return []byte(a.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler so configuration loaders
// can decode algorithm names directly.
func (a *Algorithm) UnmarshalText(text []byte) error {
	alg, err := ParseAlgorithm(string(text))
	if err != nil {
		return err
	}
	*a = alg
	return nil
}
