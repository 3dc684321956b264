package validation

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// MaxNameLength bounds student, operator, course, class and author names.
const MaxNameLength = 160

// ValidateStudentName validates the required student name
func ValidateStudentName(name string) error {
	trimmed := strings.TrimSpace(name)

	if trimmed == "" {
		return errors.New("informe o nome do aluno")
	}

	return ValidateOptionalName(trimmed)
}

// ValidateOptionalName only enforces the length limit
func ValidateOptionalName(name string) error {
	if utf8.RuneCountInString(strings.TrimSpace(name)) > MaxNameLength {
		return fmt.Errorf("máximo de %d caracteres", MaxNameLength)
	}
	return nil
}
