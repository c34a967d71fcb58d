package auth

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/listkeep/listkeep-server/internal/domain"
)

func TestHashPassword_RoundTrip(t *testing.T) {
	hash, err := HashPassword("correct horse battery staple")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(hash, "$argon2id$v=19$m=65536,t=3,p=4$"))

	assert.True(t, VerifyPassword(hash, "correct horse battery staple"))
	assert.False(t, VerifyPassword(hash, "Correct horse battery staple"))
}

func TestHashPassword_SaltsDiffer(t *testing.T) {
	a, err := HashPassword("same")
	require.NoError(t, err)
	b, err := HashPassword("same")
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestHashPassword_Limits(t *testing.T) {
	_, err := HashPassword("")
	assert.ErrorIs(t, err, ErrPasswordEmpty)

	_, err = HashPassword(strings.Repeat("x", maxPasswordLength+1))
	assert.ErrorIs(t, err, ErrPasswordTooLong)
}

func TestVerifyPassword_MalformedHash(t *testing.T) {
	for _, h := range []string{"", "plain", "$bcrypt$v=1$x$y$z", "$argon2id$v=19$m=1,t=1,p=1$!!$!!"} {
		assert.False(t, VerifyPassword(h, "pw"), "hash %q", h)
	}
}

func TestLoadOrGenerateKey(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")

	key, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Len(t, key, keyLength)

	again, err := LoadOrGenerateKey(dir)
	require.NoError(t, err)
	assert.Equal(t, key, again, "key persists across restarts")

	info, err := os.Stat(filepath.Join(dir, "auth.key"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestLoadOrGenerateKey_RejectsCorruptKey(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "auth.key"), []byte("abc"), 0o600))

	_, err := LoadOrGenerateKey(dir)
	assert.Error(t, err)
}

func newTokenService(t *testing.T, d time.Duration) *TokenService {
	t.Helper()
	key, err := LoadOrGenerateKey(t.TempDir())
	require.NoError(t, err)
	svc, err := NewTokenService(key, d)
	require.NoError(t, err)
	return svc
}

func TestTokenService_RoundTrip(t *testing.T) {
	svc := newTokenService(t, time.Hour)

	token, err := svc.GenerateAccessToken(&domain.User{ID: "user-1", Email: "ada@example.com"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(token, "v4.local."))

	claims, err := svc.VerifyAccessToken(token)
	require.NoError(t, err)
	assert.Equal(t, "user-1", claims.UserID)
	assert.Equal(t, "ada@example.com", claims.Email)
	assert.Equal(t, "user-1", claims.Subject)
	assert.True(t, strings.HasPrefix(claims.TokenID, "token-"))
}

func TestTokenService_Expired(t *testing.T) {
	svc := newTokenService(t, -time.Minute)

	token, err := svc.GenerateAccessToken(&domain.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = svc.VerifyAccessToken(token)
	assert.Error(t, err)
}

func TestTokenService_WrongKey(t *testing.T) {
	a := newTokenService(t, time.Hour)
	b := newTokenService(t, time.Hour)

	token, err := a.GenerateAccessToken(&domain.User{ID: "user-1"})
	require.NoError(t, err)

	_, err = b.VerifyAccessToken(token)
	assert.Error(t, err)

	_, err = a.VerifyAccessToken("v4.local.garbage")
	assert.Error(t, err)
}

func TestNewTokenService_KeyLength(t *testing.T) {
	_, err := NewTokenService([]byte("short"), time.Hour)
	assert.Error(t, err)
}
