// Package validation holds input rules for account data.
package validation

import (
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode"
)

const (
	MinPasswordLength = 8
	MaxPasswordLength = 128
	MaxUsernameLength = 150
	MaxEmailLength    = 254
	MaxNameLength     = 150
)

var usernameRegex = regexp.MustCompile(`^[\w.@+-]+$`)

var commonPasswords = map[string]struct{}{
	"password":   {},
	"password1":  {},
	"12345678":   {},
	"123456789":  {},
	"qwerty123":  {},
	"iloveyou":   {},
	"letmein1":   {},
	"welcome1":   {},
	"admin123":   {},
	"passw0rd":   {},
	"abc12345":   {},
	"football":   {},
	"baseball":   {},
	"sunshine":   {},
	"trustno1":   {},
	"princess":   {},
	"qwertyuiop": {},
}

// ValidatePassword enforces minimum length, a length cap, a small common-password
// deny list, and rejects purely numeric passwords.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}
	if len([]rune(password)) > MaxPasswordLength {
		return fmt.Errorf("password must be at most %d characters", MaxPasswordLength)
	}
	if _, ok := commonPasswords[strings.ToLower(password)]; ok {
		return errors.New("password is too common")
	}
	allDigits := true
	for _, r := range password {
		if !unicode.IsDigit(r) {
			allDigits = false
			break
		}
	}
	if allDigits {
		return errors.New("password cannot be entirely numeric")
	}
	return nil
}

// ValidateUsername allows letters, digits and @ . + - _ up to 150 characters.
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}
	if len(username) > MaxUsernameLength {
		return fmt.Errorf("username must be at most %d characters", MaxUsernameLength)
	}
	if !usernameRegex.MatchString(username) {
		return errors.New("username may contain only letters, numbers, and @/./+/-/_ characters")
	}
	return nil
}

// ValidateEmail checks the address is a bare, well-formed mailbox.
func ValidateEmail(email string) error {
	if email == "" {
		return errors.New("email is required")
	}
	if len(email) > MaxEmailLength {
		return fmt.Errorf("email must be at most %d characters", MaxEmailLength)
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return errors.New("enter a valid email address")
	}
	at := strings.LastIndex(email, "@")
	domain := email[at+1:]
	if !strings.Contains(domain, ".") || strings.HasSuffix(domain, ".") || strings.HasPrefix(domain, ".") {
		return errors.New("enter a valid email address")
	}
	return nil
}

// NormalizeEmail lower-cases and trims an address so it can serve as the identity key.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateName bounds first/last name length.
func ValidateName(name string) error {
	if len([]rune(name)) > MaxNameLength {
		return fmt.Errorf("must be at most %d characters", MaxNameLength)
	}
	return nil
}
