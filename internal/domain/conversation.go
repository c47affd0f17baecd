package domain

import (
	"time"
)

// Conversation groups the messages of one chat thread. The "latest"
// conversation for a user is the non-deleted row with the greatest
// creation timestamp.
type Conversation struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	IsDeleted bool      `json:"-"`
	CreatedOn time.Time `json:"created_on"`
}
