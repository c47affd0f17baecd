// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/saarthi-ai/saarthi/internal/domain"
)

// MessagePatch is the accumulated set of message fields a pipeline run
// intends to merge into a message row. Nil fields are left untouched;
// merges are last-write-wins.
type MessagePatch struct {
	InputType                 *string
	TranslatedMessage         *string
	InputLanguageDetected     *string
	MessageResponse           *string
	MessageTranslatedResponse *string
	MessageInputTime          *time.Time
	InputTranslationStart     *time.Time
	InputTranslationEnd       *time.Time
	SpeechToTextStart         *time.Time
	SpeechToTextEnd           *time.Time
	TextToSpeechStart         *time.Time
	TextToSpeechEnd           *time.Time
	MessageResponseTime       *time.Time
}

// IsEmpty reports whether the patch carries no fields at all.
func (p *MessagePatch) IsEmpty() bool {
	if p == nil {
		return true
	}
	return p.InputType == nil &&
		p.TranslatedMessage == nil &&
		p.InputLanguageDetected == nil &&
		p.MessageResponse == nil &&
		p.MessageTranslatedResponse == nil &&
		p.MessageInputTime == nil &&
		p.InputTranslationStart == nil &&
		p.InputTranslationEnd == nil &&
		p.SpeechToTextStart == nil &&
		p.SpeechToTextEnd == nil &&
		p.TextToSpeechStart == nil &&
		p.TextToSpeechEnd == nil &&
		p.MessageResponseTime == nil
}

// Repository defines the interface for persisting conversation data.
type Repository interface {
	// GetUserByEmail retrieves a non-deleted user by email.
	// Returns (nil, nil) when no such user exists.
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)

	// CreateUser inserts a new user record.
	CreateUser(ctx context.Context, user *domain.User) error

	// SetPreferredLanguage updates a user's preferred language reference.
	SetPreferredLanguage(ctx context.Context, userID, languageID string) error

	// LatestConversation returns the most recently created non-deleted
	// conversation for the user, or (nil, nil) when none exists.
	LatestConversation(ctx context.Context, userID string) (*domain.Conversation, error)

	// CreateConversation inserts a new conversation record.
	CreateConversation(ctx context.Context, conv *domain.Conversation) error

	// InsertMessage inserts a new message record.
	InsertMessage(ctx context.Context, msg *domain.Message) error

	// GetMessage retrieves a message by id. Returns (nil, nil) when absent.
	GetMessage(ctx context.Context, messageID string) (*domain.Message, error)

	// UpdateMessage merge-updates a message row with the given patch.
	// A nil or empty patch is a no-op, not an error.
	UpdateMessage(ctx context.Context, messageID string, patch *MessagePatch) error

	// CompletedMessages returns up to limit of the most recent non-deleted
	// messages in the conversation that have both a translated input and a
	// response, newest first.
	CompletedMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error)

	// InsertFollowUpQuestions batch-inserts follow-up rows for a message.
	InsertFollowUpQuestions(ctx context.Context, questions []*domain.FollowUpQuestion) error

	// FollowUpQuestions returns the follow-up rows for a message ordered
	// by sequence.
	FollowUpQuestions(ctx context.Context, messageID string) ([]*domain.FollowUpQuestion, error)

	// Languages returns all non-deleted languages.
	Languages(ctx context.Context) ([]*domain.Language, error)

	// GetLanguage retrieves a non-deleted language by id.
	// Returns (nil, nil) when absent.
	GetLanguage(ctx context.Context, languageID string) (*domain.Language, error)

	// GetLanguageByCode retrieves a non-deleted language by its unique code.
	// Returns (nil, nil) when absent.
	GetLanguageByCode(ctx context.Context, code string) (*domain.Language, error)

	// SeedLanguages inserts the given languages if the table is empty.
	SeedLanguages(ctx context.Context, languages []*domain.Language) error

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
