// Package session provides conversation and message bookkeeping for the
// pipelines: user resolution, conversation selection, message recording,
// patch finalization, and the chat-history window.
package session

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/saarthi-ai/saarthi/internal/domain"
	"github.com/saarthi-ai/saarthi/internal/identity"
	"github.com/saarthi-ai/saarthi/internal/store"
)

// DefaultChatHistoryWindow is the number of completed exchanges fed back
// to the generation engine as context.
const DefaultChatHistoryWindow = 4

// Manager performs session bookkeeping on top of the repository.
type Manager struct {
	repo   store.Repository
	window int
}

// NewManager creates a session manager with the given chat-history window.
// A non-positive window falls back to the default.
func NewManager(repo store.Repository, window int) *Manager {
	if window <= 0 {
		window = DefaultChatHistoryWindow
	}
	return &Manager{repo: repo, window: window}
}

// ResolveUser returns the stored user for the profile's email, creating one
// from the profile on first contact. Idempotent on email.
func (m *Manager) ResolveUser(ctx context.Context, profile *identity.Profile) (*domain.User, error) {
	user, err := m.repo.GetUserByEmail(ctx, profile.Email)
	if err != nil {
		return nil, fmt.Errorf("lookup user by email: %w", err)
	}
	if user != nil {
		return user, nil
	}

	id := profile.ID
	if id == "" {
		id = uuid.NewString()
	}
	user = &domain.User{
		ID:        id,
		Email:     profile.Email,
		Phone:     profile.Phone,
		FirstName: profile.FirstName,
		LastName:  profile.LastName,
		CreatedOn: time.Now(),
	}
	if err := m.repo.CreateUser(ctx, user); err != nil {
		return nil, fmt.Errorf("create user: %w", err)
	}

	slog.Info("new user created", "email", profile.Email)
	return user, nil
}

// LatestConversation returns the user's most recently created non-deleted
// conversation, or creates one titled with the fallback (the triggering
// query text) when none exists.
func (m *Manager) LatestConversation(ctx context.Context, userID, fallbackTitle string) (*domain.Conversation, error) {
	conv, err := m.repo.LatestConversation(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("lookup latest conversation: %w", err)
	}
	if conv != nil {
		return conv, nil
	}

	conv = &domain.Conversation{
		ID:        uuid.NewString(),
		UserID:    userID,
		Title:     fallbackTitle,
		CreatedOn: time.Now(),
	}
	if err := m.repo.CreateConversation(ctx, conv); err != nil {
		return nil, fmt.Errorf("create conversation: %w", err)
	}

	slog.Info("new conversation created", "user_id", userID)
	return conv, nil
}

// RecordIncomingMessage inserts the message row for an incoming query and
// returns its id.
func (m *Manager) RecordIncomingMessage(ctx context.Context, conversationID, rawText string) (string, error) {
	msg := &domain.Message{
		ID:              uuid.NewString(),
		ConversationID:  conversationID,
		OriginalMessage: rawText,
		CreatedOn:       time.Now(),
	}
	if err := m.repo.InsertMessage(ctx, msg); err != nil {
		return "", fmt.Errorf("record incoming message: %w", err)
	}

	slog.Info("message recorded", "message_id", msg.ID, "conversation_id", conversationID)
	return msg.ID, nil
}

// ApplyPatch merge-updates the message row. Safe to call with a partial or
// empty patch; the pipelines call this exactly once per run, on every exit
// path, so a partial trail is always persisted.
func (m *Manager) ApplyPatch(ctx context.Context, messageID string, patch *store.MessagePatch) error {
	if err := m.repo.UpdateMessage(ctx, messageID, patch); err != nil {
		return fmt.Errorf("apply message patch: %w", err)
	}
	return nil
}

// ChatHistory renders the last completed exchanges of the user's latest
// conversation, oldest first. Returns an empty string when the user has no
// conversation or no completed messages yet.
func (m *Manager) ChatHistory(ctx context.Context, userID string) (string, error) {
	conv, err := m.repo.LatestConversation(ctx, userID)
	if err != nil {
		return "", fmt.Errorf("lookup latest conversation: %w", err)
	}
	if conv == nil {
		return "", nil
	}

	messages, err := m.repo.CompletedMessages(ctx, conv.ID, m.window)
	if err != nil {
		return "", fmt.Errorf("load chat history: %w", err)
	}

	var b strings.Builder
	for i := len(messages) - 1; i >= 0; i-- {
		msg := messages[i]
		fmt.Fprintf(&b, "\n\nUser : %s\nAI Assistant : %s", msg.TranslatedMessage, msg.MessageResponse)
	}
	return b.String(), nil
}

// Window returns the configured chat-history window size.
func (m *Manager) Window() int {
	return m.window
}
