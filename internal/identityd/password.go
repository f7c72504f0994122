package identityd

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// Salted SHA-256 password hashing, stored as "salt$digest" hex.
// Acceptable for a development service; a production identity provider
// must use a memory-hard KDF instead.

const saltBytes = 16

func hashPassword(password string) (string, error) {
	if password == "" {
		return "", errors.New("identityd: password is required")
	}

	salt := make([]byte, saltBytes)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("identityd: salt generation: %w", err)
	}

	digest := sha256.Sum256(append(salt, []byte(password)...))
	return hex.EncodeToString(salt) + "$" + hex.EncodeToString(digest[:]), nil
}

func verifyPassword(stored, password string) bool {
	saltHex, digestHex, ok := strings.Cut(stored, "$")
	if !ok {
		return false
	}
	salt, err := hex.DecodeString(saltHex)
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(digestHex)
	if err != nil {
		return false
	}

	got := sha256.Sum256(append(salt, []byte(password)...))
	return subtle.ConstantTimeCompare(got[:], want) == 1
}
