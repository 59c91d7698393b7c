package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateAndParse_Success(t *testing.T) {
	t.Parallel()

	secret := []byte("super-secret")

	tok, err := GenerateToken("acc-123", "a@x.com", secret, time.Hour)
	require.NoError(t, err)

	claims, err := ParseToken(tok, secret)
	require.NoError(t, err)
	assert.Equal(t, "acc-123", claims.AccountID)
	assert.Equal(t, "a@x.com", claims.Email)
	assert.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt.Time, 5*time.Second)
}

func TestParseToken_Expired(t *testing.T) {
	t.Parallel()

	secret := []byte("secret")
	tok, err := GenerateToken("acc-1", "a@x.com", secret, -1*time.Second)
	require.NoError(t, err)

	_, err = ParseToken(tok, secret)
	assert.Error(t, err)
}

func TestParseToken_WrongSecret(t *testing.T) {
	t.Parallel()

	tok, err := GenerateToken("acc-2", "b@x.com", []byte("right-secret"), time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(tok, []byte("wrong-secret"))
	assert.Error(t, err)
}

func TestParseToken_CrossSecretRejected(t *testing.T) {
	t.Parallel()

	// A token minted with the access secret must not verify under the refresh
	// secret, and vice versa.
	access := []byte("access-secret")
	refresh := []byte("refresh-secret")

	accessTok, err := GenerateToken("acc-3", "c@x.com", access, time.Hour)
	require.NoError(t, err)
	refreshTok, err := GenerateToken("acc-3", "c@x.com", refresh, time.Hour)
	require.NoError(t, err)

	_, err = ParseToken(accessTok, refresh)
	assert.Error(t, err)
	_, err = ParseToken(refreshTok, access)
	assert.Error(t, err)
}

func TestParseToken_Malformed(t *testing.T) {
	t.Parallel()

	_, err := ParseToken("not.a.jwt", []byte("k"))
	assert.Error(t, err)
}
