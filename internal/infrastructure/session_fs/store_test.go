package session_fs

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_PersistsAcrossOpen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "console", "token")

	s, err := Open(path, "")
	require.NoError(t, err)
	_, ok := s.Token()
	assert.False(t, ok)

	require.NoError(t, s.SetToken("abc\n"))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	again, err := Open(path, "")
	require.NoError(t, err)
	tok, ok := again.Token()
	assert.True(t, ok)
	assert.Equal(t, "abc", tok)
}

func TestStore_ClearRemovesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("abc"), 0o600))

	s, err := Open(path, "")
	require.NoError(t, err)
	require.NoError(t, s.Clear())

	_, ok := s.Token()
	assert.False(t, ok)
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))

	// clearing twice is fine
	require.NoError(t, s.Clear())
}

func TestStore_OverrideWinsButClears(t *testing.T) {
	path := filepath.Join(t.TempDir(), "token")
	require.NoError(t, os.WriteFile(path, []byte("from-file"), 0o600))

	s, err := Open(path, "from-env")
	require.NoError(t, err)
	tok, _ := s.Token()
	assert.Equal(t, "from-env", tok)

	require.NoError(t, s.Clear())
	_, ok := s.Token()
	assert.False(t, ok)
}

func TestStore_RejectsEmptyToken(t *testing.T) {
	s, err := Open("", "")
	require.NoError(t, err)
	assert.Error(t, s.SetToken("  "))
}

func TestInspect(t *testing.T) {
	exp := time.Now().Add(30 * time.Minute).Truncate(time.Second)
	tok, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": "operator",
		"exp": exp.Unix(),
	}).SignedString([]byte("whatever"))
	require.NoError(t, err)

	c, err := Inspect(tok)
	require.NoError(t, err)
	assert.Equal(t, "operator", c.Subject)
	assert.True(t, c.ExpiresAt.Equal(exp))
	assert.False(t, c.Expired(time.Now()))
	assert.True(t, c.Expired(exp.Add(time.Second)))
}

func TestInspect_Garbage(t *testing.T) {
	_, err := Inspect("not-a-jwt")
	assert.Error(t, err)
}
