package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

func TestHasherRoundTrip(t *testing.T) {
	t.Parallel()

	hasher := NewSecretHasher(bcrypt.MinCost)

	digest, err := hasher.Hash("s3cret")
	require.NoError(t, err)
	require.NotEqual(t, "s3cret", digest)

	require.True(t, hasher.Verify("s3cret", digest))
	require.False(t, hasher.Verify("other", digest))
}

func TestHasherSaltsEachDigest(t *testing.T) {
	t.Parallel()

	hasher := NewSecretHasher(bcrypt.MinCost)

	first, err := hasher.Hash("same-secret")
	require.NoError(t, err)
	second, err := hasher.Hash("same-secret")
	require.NoError(t, err)

	require.NotEqual(t, first, second)
	require.True(t, hasher.Verify("same-secret", first))
	require.True(t, hasher.Verify("same-secret", second))
}

func TestHasherHandlesSecretsBeyondBcryptLimit(t *testing.T) {
	t.Parallel()

	hasher := NewSecretHasher(bcrypt.MinCost)

	// A signed refresh token is far longer than bcrypt's 72-byte input cap.
	long := strings.Repeat("eyJhbGciOiJIUzI1NiJ9.", 30)
	require.Greater(t, len(long), 72)

	digest, err := hasher.Hash(long)
	require.NoError(t, err)
	require.True(t, hasher.Verify(long, digest))

	// Truncation would make these collide; the prehash must not.
	require.False(t, hasher.Verify(long+"x", digest))
}

func TestHasherEmptyDigestNeverMatches(t *testing.T) {
	t.Parallel()

	hasher := NewSecretHasher(bcrypt.MinCost)
	require.False(t, hasher.Verify("anything", ""))
	require.False(t, hasher.Verify("", ""))
}

func TestHasherClampsInvalidCost(t *testing.T) {
	t.Parallel()

	hasher := NewSecretHasher(99)
	digest, err := hasher.Hash("secret")
	require.NoError(t, err)

	cost, err := bcrypt.Cost([]byte(digest))
	require.NoError(t, err)
	require.Equal(t, bcrypt.DefaultCost, cost)
}
