package auth

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOneTimeToken(t *testing.T) {
	t.Parallel()

	plain, hash, err := NewOneTimeToken()
	require.NoError(t, err)

	assert.Len(t, plain, 64, "32 random bytes hex-encoded")
	assert.Len(t, hash, 64, "sha256 hex digest")
	assert.NotEqual(t, plain, hash)
	assert.Equal(t, hash, HashOneTimeToken(plain))
}

func TestNewOneTimeToken_Unique(t *testing.T) {
	t.Parallel()

	a, _, err := NewOneTimeToken()
	require.NoError(t, err)
	b, _, err := NewOneTimeToken()
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}
