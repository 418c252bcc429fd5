package security

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndVerifyPassword(t *testing.T) {
	hash, err := HashPassword("Abcd12!@")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(hash), "$argon2id$"))

	ok, err := VerifyPassword("Abcd12!@", hash)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyPassword("wrong-password", hash)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHashPasswordSaltsDiffer(t *testing.T) {
	first, err := HashPassword("Abcd12!@")
	require.NoError(t, err)
	second, err := HashPassword("Abcd12!@")
	require.NoError(t, err)
	assert.NotEqual(t, first, second)
}

func TestVerifyPasswordMalformedHash(t *testing.T) {
	_, err := VerifyPassword("whatever", []byte("not-a-hash"))
	assert.ErrorIs(t, err, ErrMalformedHash)
}

func TestRandomPassword(t *testing.T) {
	password, err := RandomPassword()
	require.NoError(t, err)
	assert.GreaterOrEqual(t, len(password), 24)

	other, err := RandomPassword()
	require.NoError(t, err)
	assert.NotEqual(t, password, other)
}
