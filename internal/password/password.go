// Package password provides one-way salted password hashing built on bcrypt.
// Both functions are stateless and safe for unlimited concurrent use.
package password

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// Hash produces a salted bcrypt hash of the password. bcrypt generates a
// fresh random salt on every call and embeds it (with the cost factor) in
// the output, so two calls on the same password yield different hashes and
// no separate salt storage is needed.
func Hash(password string) ([]byte, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	return hash, nil
}

// Verify checks a plaintext password against a stored bcrypt hash. Returns
// true only on an exact match. Any failure -- wrong password, empty input,
// malformed hash -- reports false; it never returns an error. bcrypt's
// comparison is constant-time with respect to the derived key.
func Verify(hash []byte, password string) bool {
	return bcrypt.CompareHashAndPassword(hash, []byte(password)) == nil
}
