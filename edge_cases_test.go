package idtoken

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cybergodev/idtoken/internal/core"
)

func TestParseHostileInput(t *testing.T) {
	t.Parallel()

	valid := issueTest(t, HS256)
	parts := strings.Split(valid, ".")

	inputs := []string{
		"...",
		"a.b.c\x00",
		"\x00.\x00.\x00",
		strings.Replace(valid, ".", "..", 1),
		" " + valid,
		valid + "\n",
		"<script>.alert(1).</script>",
		parts[0] + "." + parts[1] + ".%%%",
		"eyJhbGciOiJIUzI1NiJ9é.e30.c2ln",
	}
	for _, input := range inputs {
		token, err := Parse(input)
		assert.Nil(t, token, "%q", input)
		assert.True(t, IsParseError(err), "%q: %v", input, err)
	}
}

func TestParseUnicodeClaims(t *testing.T) {
	t.Parallel()

	payload := NewClaimSet(3)
	payload.Set(ClaimIssuer, "https://例え.jp")
	payload.Set(ClaimNonce, "ñøñçé ✓")
	payload.Set("html", "<b>&</b>")

	tokenString, err := SignClaims(HS256, payload, []byte(testSecretKey))
	require.NoError(t, err)

	token, err := Parse(tokenString)
	require.NoError(t, err)

	iss, _ := token.Claim(ClaimIssuer)
	assert.Equal(t, "https://例え.jp", iss)
	nonce, _ := token.Claim(ClaimNonce)
	assert.Equal(t, "ñøñçé ✓", nonce)

	decoded, err := core.DecodeSegment(strings.Split(tokenString, ".")[1])
	require.NoError(t, err)
	assert.Contains(t, string(decoded), `"html":"<b>&</b>"`)
}

func TestLargeNumericClaims(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		exp     string
		iat     string
		wantErr error
	}{
		{"far future", "253402300799", "1390318158", nil},
		{"exponent notation", "1.390318758e9", "1390318158", nil},
		{"fractional", "1390318158.5", "1390318158", nil},
		{"exp beyond int64", "1e30", "1390318158", nil},
		{"exp max int64", "9223372036854775807", "1390318158", nil},
		{"overflow", "1e400", "1390318158", ErrTokenExpired},
		{"negative", "-1", "1390318158", ErrTokenExpired},
		{"iat min int64", "1390318758", "-9223372036854775808", ErrIssuedAtExpired},
		{"iat below int64", "1390318758", "-1e30", ErrIssuedAtExpired},
		{"iat beyond int64", "1390318758", "1e30", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload := `{"iss":"https://example.com","aud":"client123","exp":` + tt.exp + `,"iat":` + tt.iat + `,"nonce":"aaabbbccc"}`
			token, err := Parse(signRaw(t, HS256, validHeader, payload))
			require.NoError(t, err)

			err = token.Verify([]byte(testSecretKey), defaultVerifyOptions(HS256))
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestEmptyExpectations(t *testing.T) {
	t.Parallel()

	signKey, verifyKey := keysFor(t, HS256)
	tokenString, err := Issue(HS256, "", "", testExp, "", signKey, testNow)
	require.NoError(t, err)
	token, err := Parse(tokenString)
	require.NoError(t, err)

	opts := VerifyOptions{Algorithms: []Algorithm{HS256}, Now: testNow}
	assert.NoError(t, token.Verify(verifyKey, opts), "present empty strings match empty expectations")

	withoutNonce, err := Parse(signRaw(t, HS256, validHeader, `{"iss":"","aud":"","exp":1390318758,"iat":1390318158}`))
	require.NoError(t, err)
	assert.ErrorIs(t, withoutNonce.Verify(verifyKey, opts), ErrInvalidNonce, "absent claims never match")
}
