package model

import (
	"slices"
	"strings"
	"time"
)

type User struct {
	ID           string    `db:"id"`
	Username     string    `db:"username"`
	PasswordHash *string   `db:"password_hash"`
	FullName     string    `db:"full_name"`
	IsSuperuser  bool      `db:"is_superuser"`
	IsActive     bool      `db:"is_active"`
	CreatedAt    time.Time `db:"created_at"`

	// Loaded from user_groups (not a column)
	Groups []string `db:"-"`
}

func (u *User) HasPassword() bool {
	return u.PasswordHash != nil && *u.PasswordHash != ""
}

func (u *User) InGroup(name string) bool {
	return slices.Contains(u.Groups, name)
}

// DisplayName is the operator name stamped on new feedback: full name, else username.
func (u *User) DisplayName() string {
	if name := strings.TrimSpace(u.FullName); name != "" {
		return name
	}
	return u.Username
}
