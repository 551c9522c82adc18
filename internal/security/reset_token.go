package security

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// ResetTokenTTL bounds how long a password-reset token stays usable.
const ResetTokenTTL = 30 * time.Minute

// NewResetToken returns a fresh single-use token: the raw value goes out by
// email, only the hash is ever persisted.
func NewResetToken() (raw string, hash string, err error) {
	buf := make([]byte, 20)

	if _, err = rand.Read(buf); err != nil {
		return "", "", err
	}

	raw = hex.EncodeToString(buf)

	return raw, HashResetToken(raw), nil
}

// HashResetToken is deterministic so the value a client presents can be
// matched against the stored hash without storing the token itself.
func HashResetToken(raw string) string {
	sum := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(sum[:])
}
