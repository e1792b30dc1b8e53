package utils

import (
	"errors"

	"golang.org/x/crypto/bcrypt"
)

// Encode hashes a password (or an OTP code) with bcrypt.
func Encode(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// Matches verifies a raw value against its bcrypt hash. A mismatch is (false, nil).
func Matches(encodedPassword, rawPassword string) (bool, error) {
	if encodedPassword == "" || rawPassword == "" {
		return false, nil
	}
	err := bcrypt.CompareHashAndPassword([]byte(encodedPassword), []byte(rawPassword))
	if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}
