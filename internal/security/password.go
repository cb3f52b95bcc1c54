package security

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword hashes a plain text password with bcrypt.
func HashPassword(plain string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

func CheckPassword(hash, plain string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(plain))
}

// IsHash reports whether s already looks like a bcrypt hash.
func IsHash(s string) bool {
	_, err := bcrypt.Cost([]byte(s))
	return err == nil && strings.HasPrefix(s, "$2")
}

// EnsureHash returns s unchanged when it is a bcrypt hash and hashes it otherwise,
// so ADMIN_PASSWORD may be configured either way.
func EnsureHash(s string) (string, error) {
	if IsHash(s) {
		return s, nil
	}
	return HashPassword(s)
}
