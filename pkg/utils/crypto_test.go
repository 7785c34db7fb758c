package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testKey = []byte("0123456789abcdef0123456789abcdef")

func TestEncryptDecryptRoundTrip(t *testing.T) {
	encrypted, err := Encrypt([]byte("access-token-value"), testKey)
	require.NoError(t, err)
	assert.NotEqual(t, "access-token-value", encrypted)

	decrypted, err := Decrypt(encrypted, testKey)
	require.NoError(t, err)
	assert.Equal(t, "access-token-value", decrypted)
}

func TestDecryptWithWrongKeyFails(t *testing.T) {
	encrypted, err := Encrypt([]byte("secret"), testKey)
	require.NoError(t, err)

	otherKey := []byte("ffffffffffffffffffffffffffffffff")
	_, err = Decrypt(encrypted, otherKey)
	assert.Error(t, err)
}

func TestDecryptRejectsShortCiphertext(t *testing.T) {
	_, err := Decrypt("aGk=", testKey)
	assert.Error(t, err)
}

func TestEncryptRejectsBadKeySize(t *testing.T) {
	_, err := Encrypt([]byte("secret"), []byte("short-key"))
	assert.Error(t, err)
}
