package validation

import (
	"errors"
	"regexp"
)

var usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_.@+-]+$`)

// ValidateUsername accepts 1 to 150 letters, digits and @.+-_
func ValidateUsername(username string) error {
	if username == "" {
		return errors.New("username is required")
	}

	if len(username) > 150 {
		return errors.New("username is too long (max 150 characters)")
	}

	if !usernamePattern.MatchString(username) {
		return errors.New("username may only contain letters, digits and @.+-_")
	}

	return nil
}
