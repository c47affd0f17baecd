package domain

import (
	"time"
)

// FollowUpQuestionTypeMessage tags follow-ups extracted from a generated
// message response.
const FollowUpQuestionTypeMessage = "message"

// FollowUpQuestion is one suggested follow-up extracted from a generated
// answer. Sequence numbers run 1..3 and are unique per message.
type FollowUpQuestion struct {
	ID        string    `json:"id"`
	MessageID string    `json:"message_id"`
	Question  string    `json:"question"`
	Sequence  int       `json:"sequence"`
	Type      string    `json:"type"`
	CreatedOn time.Time `json:"created_on"`
}
