// Package token generates opaque session secrets and their storage
// fingerprints. The raw secret goes to the client; only the fingerprint
// is ever persisted or logged.
package token

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"fmt"
)

// secretBytes gives 256 bits of entropy per secret.
const secretBytes = 32

func NewSecret() (string, error) {
	const op = "token.NewSecret"

	b := make([]byte, secretBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	return base64.RawURLEncoding.EncodeToString(b), nil
}

// Fingerprint returns the SHA-256 hex digest of secret (64 chars),
// deterministic so it can be recomputed as the lookup key.
func Fingerprint(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// Mask returns a partial form of secret safe for diagnostics.
func Mask(secret string) string {
	if secret == "" {
		return ""
	}
	if len(secret) > 20 {
		return secret[:12] + "..." + secret[len(secret)-6:]
	}
	if len(secret) > 8 {
		return secret[:8] + "..."
	}
	return "..."
}
