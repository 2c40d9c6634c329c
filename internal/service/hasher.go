package service

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// SecretHasher is the one-way, salted hashing primitive used for both
// passwords and refresh-token-at-rest storage. Secrets are prehashed with
// SHA-256 (base64-encoded to 43 bytes) before bcrypt, because bcrypt
// rejects inputs over 72 bytes and a signed refresh token is much longer
// than that. The prehash applies identically to both secret kinds so the
// two paths share one primitive.
type SecretHasher struct {
	cost int
}

func NewSecretHasher(cost int) *SecretHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &SecretHasher{cost: cost}
}

func (h *SecretHasher) Hash(secret string) (string, error) {
	digest, err := bcrypt.GenerateFromPassword(prehash(secret), h.cost)
	if err != nil {
		return "", fmt.Errorf("hash secret: %w", err)
	}
	return string(digest), nil
}

// Verify reports whether secret matches digest. bcrypt's comparison runs in
// time independent of where a mismatch occurs; an empty digest (logged-out
// session) never matches.
func (h *SecretHasher) Verify(secret string, digest string) bool {
	if digest == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(digest), prehash(secret)) == nil
}

func prehash(secret string) []byte {
	sum := sha256.Sum256([]byte(secret))
	out := make([]byte, base64.RawStdEncoding.EncodedLen(len(sum)))
	base64.RawStdEncoding.Encode(out, sum[:])
	return out
}
