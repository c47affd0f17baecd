// Package domain contains core domain types for the Saarthi assistant.
package domain

import (
	"time"
)

// User represents an account known to the assistant. Users are created on
// first contact, keyed by email, and are only ever soft-deleted.
type User struct {
	ID                  string    `json:"id"`
	Email               string    `json:"email"`
	Phone               string    `json:"phone,omitempty"`
	FirstName           string    `json:"first_name,omitempty"`
	LastName            string    `json:"last_name,omitempty"`
	PreferredLanguageID string    `json:"preferred_language_id,omitempty"`
	IsDeleted           bool      `json:"-"`
	CreatedOn           time.Time `json:"created_on"`
}

// DisplayName returns the name used when addressing the user in prompts.
func (u *User) DisplayName() string {
	if u.FirstName != "" {
		return u.FirstName
	}
	return u.Email
}
