// Package secret hashes and verifies the passwords guarding
// password-protected streaks.
package secret

import "golang.org/x/crypto/bcrypt"

// Hash returns a bcrypt hash for the provided plaintext.
// Default cost (10 rounds) balances hashing time and brute-force cost.
func Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// Check compares a plaintext password against a bcrypt hash. Returns nil
// on match. The comparison is timing-safe.
func Check(hash, password string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
}
