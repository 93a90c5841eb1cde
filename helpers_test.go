package idtoken

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/cybergodev/idtoken/internal/core"
	"github.com/cybergodev/idtoken/internal/signing"
)

const (
	testSecretKey = "Kx9#mP2$vL8@nQ5!wR7&tY3^uI6*oE4%aS1+dF0-gH9~jK2#bN5$cM8@xZ7&vB4!"
	testIssuer    = "https://example.com"
	testAudience  = "client123"
	testNonce     = "aaabbbccc"
)

var (
	testNow = time.Unix(1390318158, 0)
	testExp = time.Unix(1390318758, 0)
)

var (
	rsaOnce       sync.Once
	rsaPrivatePEM []byte
	rsaPublicPEM  []byte
)

func rsaKeys(t testing.TB) (privatePEM, publicPEM []byte) {
	t.Helper()
	rsaOnce.Do(func() {
		key, err := rsa.GenerateKey(rand.Reader, 2048)
		if err != nil {
			panic(err)
		}
		rsaPrivatePEM = pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(key)})
		der, err := x509.MarshalPKIXPublicKey(&key.PublicKey)
		if err != nil {
			panic(err)
		}
		rsaPublicPEM = pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: der})
	})
	return rsaPrivatePEM, rsaPublicPEM
}

// keysFor returns the signing and verification keys for alg.
func keysFor(t testing.TB, alg Algorithm) (signKey, verifyKey []byte) {
	t.Helper()
	if alg.Family() == FamilyRSA {
		return rsaKeys(t)
	}
	return []byte(testSecretKey), []byte(testSecretKey)
}

func defaultVerifyOptions(alg Algorithm) VerifyOptions {
	return VerifyOptions{
		Issuer:     testIssuer,
		Audience:   testAudience,
		Nonce:      testNonce,
		Algorithms: []Algorithm{alg},
		Now:        testNow,

		IssuedAtTolerance: DefaultIssuedAtTolerance,
	}
}

// issueTest issues the standard test token for alg.
func issueTest(t testing.TB, alg Algorithm) string {
	t.Helper()
	signKey, _ := keysFor(t, alg)
	token, err := Issue(alg, testIssuer, testAudience, testExp, testNonce, signKey, testNow)
	require.NoError(t, err)
	return token
}

// signRaw builds a token from literal header and payload JSON, signed with alg.
func signRaw(t testing.TB, alg Algorithm, headerJSON, payloadJSON string) string {
	t.Helper()
	signKey, _ := keysFor(t, alg)
	segments := core.Segments{
		Header:  core.EncodeSegment([]byte(headerJSON)),
		Payload: core.EncodeSegment([]byte(payloadJSON)),
	}
	signature, err := signing.Sign(alg, []byte(segments.SigningInput()), signKey)
	require.NoError(t, err)
	segments.Signature = core.EncodeSegment(signature)
	return segments.String()
}
