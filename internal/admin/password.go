package admin

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

// minPasswordLength applies to passwords set through onboarding.
const minPasswordLength = 10

// HashPassword hashes a password using bcrypt.
func HashPassword(password string) (string, error) {
	if len(password) < minPasswordLength {
		return "", errors.New("admin: password too short")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword compares a password with its hash.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
