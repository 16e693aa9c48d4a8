package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
)

// NewRandomString returns n random bytes hex-encoded (2n characters).
func NewRandomString(n int) string {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf)
}

// HashResetToken digests a password reset token for storage. Only the digest
// is persisted; the raw token travels to the user exactly once.
func HashResetToken(token string) string {
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:])
}
