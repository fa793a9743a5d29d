package secrets

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewToken_UniqueAndWellFormed(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 500; i++ {
		tok, err := NewToken()
		require.NoError(t, err)
		require.True(t, LooksValid(tok), "malformed token %q", tok)
		require.Len(t, tok, 43)
		_, dup := seen[tok]
		require.False(t, dup)
		seen[tok] = struct{}{}
	}
}

func TestDigest_StableAndDistinct(t *testing.T) {
	a, b := "token-a", "token-b"
	assert.Equal(t, Digest(a), Digest(a))
	assert.NotEqual(t, Digest(a), Digest(b))
	assert.Len(t, Digest(a), 64)
	assert.NotContains(t, Digest(a), a)
}

func TestLooksValid_RejectsGarbage(t *testing.T) {
	assert.False(t, LooksValid(""))
	assert.False(t, LooksValid("short"))
	assert.False(t, LooksValid("!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!!"))
}
