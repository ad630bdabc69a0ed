// internal/app/system/authutil/authutil.go

// Package authutil holds the password hashing and validation rules shared
// by the login handler and user provisioning.
package authutil

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 128
)

var (
	ErrPasswordTooShort = fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	ErrPasswordTooLong  = fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	ErrPasswordCommon   = errors.New("password is too common; choose something less guessable")
)

// commonPasswords is a small denylist of the passwords that dominate breach
// corpora. Checked case-insensitively.
var commonPasswords = map[string]struct{}{
	"123456":    {},
	"12345678":  {},
	"123456789": {},
	"password":  {},
	"password1": {},
	"qwerty":    {},
	"abc123":    {},
	"iloveyou":  {},
	"letmein":   {},
	"football":  {},
	"welcome":   {},
	"monkey":    {},
	"dragon":    {},
}

// ValidatePassword checks a candidate password against the account rules.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return ErrPasswordTooShort
	}
	if len(password) > MaxPasswordLength {
		return ErrPasswordTooLong
	}
	if _, bad := commonPasswords[strings.ToLower(password)]; bad {
		return ErrPasswordCommon
	}
	return nil
}

// PasswordRules returns the rules as a sentence for API error messages.
func PasswordRules() string {
	return fmt.Sprintf("Password must be %d-%d characters and not a commonly used password.",
		MinPasswordLength, MaxPasswordLength)
}

// HashPassword returns the bcrypt hash of password at the default cost.
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword reports whether password matches the stored bcrypt hash.
// Invalid or empty hashes simply fail the check.
func CheckPassword(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
