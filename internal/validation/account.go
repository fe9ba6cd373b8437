// Package validation checks account input before it reaches the store.
package validation

import (
	"errors"
	"fmt"
	"regexp"
	"unicode"
	"unicode/utf8"
)

const (
	UsernameMinLength = 3
	UsernameMaxLength = 30
	EmailMaxLength    = 100
	PasswordMinLength = 12
	// PasswordMaxBytes is bcrypt's input limit, counted in bytes.
	PasswordMaxBytes = 72
)

var (
	usernameRegex = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	emailRegex    = regexp.MustCompile(`^[A-Za-z0-9._%+\-]+@[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?(?:\.[A-Za-z0-9](?:[A-Za-z0-9-]*[A-Za-z0-9])?)+$`)
)

// ValidateUsername allows 3-30 letters, digits and underscores, not starting
// or ending with an underscore.
func ValidateUsername(username string) error {
	if len(username) < UsernameMinLength || len(username) > UsernameMaxLength {
		return fmt.Errorf("username must be between %d and %d characters", UsernameMinLength, UsernameMaxLength)
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username may only contain letters, numbers and underscores")
	}
	if username[0] == '_' || username[len(username)-1] == '_' {
		return errors.New("username cannot start or end with an underscore")
	}
	return nil
}

func ValidateEmail(email string) error {
	if len(email) > EmailMaxLength {
		return fmt.Errorf("email must be at most %d characters", EmailMaxLength)
	}
	if !emailRegex.MatchString(email) {
		return errors.New("invalid email address")
	}
	return nil
}

// ValidatePassword requires at least 12 characters and at most 72 bytes, with
// upper and lower case letters, a digit and a symbol.
func ValidatePassword(password string) error {
	if utf8.RuneCountInString(password) < PasswordMinLength {
		return fmt.Errorf("password must be at least %d characters", PasswordMinLength)
	}
	if len(password) > PasswordMaxBytes {
		return fmt.Errorf("password must be at most %d bytes", PasswordMaxBytes)
	}

	var hasUpper, hasLower, hasDigit, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasDigit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			hasSpecial = true
		}
	}
	if !hasUpper || !hasLower || !hasDigit || !hasSpecial {
		return errors.New("password must contain upper and lower case letters, a number and a symbol")
	}
	return nil
}
