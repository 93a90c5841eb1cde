package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsWeakKey(t *testing.T) {
	tests := []struct {
		name string
		key  []byte
		want bool
	}{
		{"empty key", []byte{}, true},
		{"too short", []byte("Kx9#mP2$vL8@"), true},
		{"all same character", []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa"), true},
		{"sequential ascending", []byte("abcdefghijklmnopqrstuvwxyz123456"), true},
		{"repeated unit", []byte("ababababababababababababababababab"), true},
		{"repeated triple", []byte("x7Qx7Qx7Qx7Qx7Qx7Qx7Qx7Qx7Qx7Qx7Q"), true},
		{"common word", []byte("passwordpasswordpasswordpassword"), true},
		{"embedded secret", []byte("Zq8!my-secret-value-Wd3#Lp0&Vn6^"), true},
		{"strong key", []byte("Kx9#mP2$vL8@nQ5!wR7&tY3^uI6*oE4%aS1+dF0-gH9~jK2#bN5$cM8@xZ7&vB4!"), false},
		{"strong key 2", []byte("aB3$fG7*kL9#pQ2&vX5!zC8@mN4%rT6^wY1+eH0-iJ3~oU7$bD9#gK2&sF5*nM8@"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsWeakKey(tt.key))
		})
	}
}

func TestSecureCompare(t *testing.T) {
	assert.True(t, SecureCompare([]byte("abc"), []byte("abc")))
	assert.False(t, SecureCompare([]byte("abc"), []byte("abd")))
	assert.False(t, SecureCompare([]byte("abc"), []byte("abcd")))
	assert.False(t, SecureCompare(nil, []byte("a")))
	assert.True(t, SecureCompare(nil, []byte{}))
}

func TestZeroBytes(t *testing.T) {
	data := []byte("sensitive-data-to-zero")

	ZeroBytes(data)

	assert.Equal(t, make([]byte, len(data)), data)
}

func TestSecureBytesLifecycle(t *testing.T) {
	src := []byte("key-material")
	secure := NewSecureBytesFromSlice(src)

	src[0] = 'X'
	assert.Equal(t, []byte("key-material"), secure.Bytes(), "must hold its own copy")

	held := secure.Bytes()
	secure.Destroy()
	assert.Equal(t, make([]byte, len(held)), held, "Destroy must zero the buffer")
	assert.Nil(t, secure.Bytes())

	secure.Destroy()
}
