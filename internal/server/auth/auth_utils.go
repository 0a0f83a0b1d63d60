package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword returns the bcrypt hash stored for a password.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// IsHashed reports whether a stored secret is a bcrypt hash.
func IsHashed(secret string) bool {
	return strings.HasPrefix(secret, "$2a$") ||
		strings.HasPrefix(secret, "$2b$") ||
		strings.HasPrefix(secret, "$2y$")
}

// verifySecret checks a password against a stored secret.
func verifySecret(secret, password string) bool {
	if IsHashed(secret) {
		return bcrypt.CompareHashAndPassword([]byte(secret), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(secret), []byte(password)) == 1
}

// cacheKey fingerprints a credential pair together with the secret it was
// verified against, so a changed secret invalidates the entry.
func cacheKey(username, password, secret string) string {
	sum := sha256.Sum256([]byte(username + "\x00" + password + "\x00" + secret))
	return hex.EncodeToString(sum[:])
}
