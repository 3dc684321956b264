package validation

import (
	"errors"
	"fmt"
	"strings"
)

const (
	MinPasswordLength = 12
	MaxPasswordBytes  = 72 // bcrypt ignores anything past this
)

// weakFragments are rejected anywhere in a password, case-insensitively.
var weakFragments = []string{
	"password", "senha", "123456", "qwerty", "admin", "letmein",
	"suporte", "feedback", "welcome", "bemvindo", "master",
}

// ValidatePassword enforces the account password policy: a length floor, the
// bcrypt byte ceiling and no well-known fragments.
func ValidatePassword(password string) error {
	if len([]rune(password)) < MinPasswordLength {
		return fmt.Errorf("password must be at least %d characters", MinPasswordLength)
	}

	if len(password) > MaxPasswordBytes {
		return fmt.Errorf("password must not exceed %d bytes", MaxPasswordBytes)
	}

	lower := strings.ToLower(password)
	for _, fragment := range weakFragments {
		if strings.Contains(lower, fragment) {
			return errors.New("password is too common, please choose a stronger one")
		}
	}

	return nil
}
