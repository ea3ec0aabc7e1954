// Package crypto provides salted password hashing for local accounts.
package crypto

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"

	"golang.org/x/crypto/pbkdf2"
)

// Hashing parameters. Changing the iteration count invalidates every stored
// hash, so it is a constant rather than configuration.
const (
	Iterations = 120_000
	SaltBytes  = 16
	KeyBytes   = 32
)

// Hasher derives and verifies salted PBKDF2-SHA256 password hashes.
type Hasher struct {
	iterations int
}

// NewHasher creates a Hasher with the default iteration count.
func NewHasher() *Hasher {
	return &Hasher{iterations: Iterations}
}

// Hash derives a hash for the password under a fresh random salt.
// Both return values are hex-encoded.
func (h *Hasher) Hash(password string) (hash, salt string, err error) {
	raw := make([]byte, SaltBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", "", fmt.Errorf("crypto: generate salt: %w", err)
	}

	salt = hex.EncodeToString(raw)

	return h.derive(password, salt), salt, nil
}

// Verify reports whether the password matches the stored hash and salt.
// Comparison is constant-time.
func (h *Hasher) Verify(password, hash, salt string) bool {
	derived := h.derive(password, salt)

	return subtle.ConstantTimeCompare([]byte(derived), []byte(hash)) == 1
}

// derive keys the password with the hex salt string itself as the PBKDF2
// salt input.
func (h *Hasher) derive(password, salt string) string {
	key := pbkdf2.Key([]byte(password), []byte(salt), h.iterations, KeyBytes, sha256.New)

	return hex.EncodeToString(key)
}
