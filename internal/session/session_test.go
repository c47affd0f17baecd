package session

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/saarthi-ai/saarthi/internal/domain"
	"github.com/saarthi-ai/saarthi/internal/identity"
	"github.com/saarthi-ai/saarthi/internal/store"
)

func newTestManager(t *testing.T, window int) (*Manager, store.Repository) {
	t.Helper()
	repo, err := store.NewSQLite(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("NewSQLite failed: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return NewManager(repo, window), repo
}

func TestNewManagerDefaultsWindow(t *testing.T) {
	m, _ := newTestManager(t, 0)
	if m.Window() != DefaultChatHistoryWindow {
		t.Errorf("Window() = %d, want %d", m.Window(), DefaultChatHistoryWindow)
	}

	m, _ = newTestManager(t, 7)
	if m.Window() != 7 {
		t.Errorf("Window() = %d, want 7", m.Window())
	}
}

func TestResolveUserIdempotent(t *testing.T) {
	m, _ := newTestManager(t, 0)
	ctx := context.Background()

	profile := &identity.Profile{
		ID:        "id-1",
		Email:     "asha@example.com",
		FirstName: "Asha",
		LastName:  "K",
	}

	first, err := m.ResolveUser(ctx, profile)
	if err != nil {
		t.Fatalf("ResolveUser failed: %v", err)
	}
	if first.ID != "id-1" || first.Email != "asha@example.com" {
		t.Errorf("unexpected user: %+v", first)
	}

	// Same email resolves to the same stored row, even if the profile
	// carries a different id the second time around.
	again, err := m.ResolveUser(ctx, &identity.Profile{ID: "other-id", Email: "asha@example.com"})
	if err != nil {
		t.Fatalf("ResolveUser failed: %v", err)
	}
	if again.ID != first.ID {
		t.Errorf("second resolve got id %q, want %q", again.ID, first.ID)
	}
}

func TestResolveUserGeneratesIDWhenProfileHasNone(t *testing.T) {
	m, _ := newTestManager(t, 0)

	user, err := m.ResolveUser(context.Background(), &identity.Profile{Email: "b@example.com"})
	if err != nil {
		t.Fatalf("ResolveUser failed: %v", err)
	}
	if user.ID == "" {
		t.Error("expected a generated user id")
	}
}

func TestLatestConversationCreatesWithFallbackTitle(t *testing.T) {
	m, repo := newTestManager(t, 0)
	ctx := context.Background()

	conv, err := m.LatestConversation(ctx, "user-1", "What is the weather?")
	if err != nil {
		t.Fatalf("LatestConversation failed: %v", err)
	}
	if conv.Title != "What is the weather?" {
		t.Errorf("Title = %q, want fallback query text", conv.Title)
	}

	// A second call returns the existing conversation, not a new one.
	again, err := m.LatestConversation(ctx, "user-1", "different title")
	if err != nil {
		t.Fatalf("LatestConversation failed: %v", err)
	}
	if again.ID != conv.ID {
		t.Errorf("expected existing conversation %q, got %q", conv.ID, again.ID)
	}

	stored, err := repo.LatestConversation(ctx, "user-1")
	if err != nil {
		t.Fatalf("LatestConversation lookup failed: %v", err)
	}
	if stored.Title != "What is the weather?" {
		t.Errorf("stored Title = %q", stored.Title)
	}
}

func TestChatHistoryWindowAndOrder(t *testing.T) {
	m, repo := newTestManager(t, 2)
	ctx := context.Background()

	history, err := m.ChatHistory(ctx, "user-1")
	if err != nil {
		t.Fatalf("ChatHistory failed: %v", err)
	}
	if history != "" {
		t.Errorf("expected empty history without a conversation, got %q", history)
	}

	conv := &domain.Conversation{ID: "conv-1", UserID: "user-1", Title: "t", CreatedOn: time.Now()}
	if err := repo.CreateConversation(ctx, conv); err != nil {
		t.Fatalf("CreateConversation failed: %v", err)
	}

	base := time.Now().Add(-time.Hour)
	exchanges := []struct {
		id, query, response string
	}{
		{"m1", "first question", "first answer"},
		{"m2", "second question", "second answer"},
		{"m3", "third question", "third answer"},
	}
	for i, e := range exchanges {
		msg := &domain.Message{
			ID:              e.id,
			ConversationID:  conv.ID,
			OriginalMessage: e.query,
			CreatedOn:       base.Add(time.Duration(i) * time.Minute),
		}
		if err := repo.InsertMessage(ctx, msg); err != nil {
			t.Fatalf("InsertMessage failed: %v", err)
		}
		query, response := e.query, e.response
		if err := repo.UpdateMessage(ctx, e.id, &store.MessagePatch{
			TranslatedMessage: &query,
			MessageResponse:   &response,
		}); err != nil {
			t.Fatalf("UpdateMessage failed: %v", err)
		}
	}

	// An incomplete message never appears in history.
	if err := repo.InsertMessage(ctx, &domain.Message{
		ID:              "m4",
		ConversationID:  conv.ID,
		OriginalMessage: "pending",
		CreatedOn:       base.Add(10 * time.Minute),
	}); err != nil {
		t.Fatalf("InsertMessage failed: %v", err)
	}

	history, err = m.ChatHistory(ctx, "user-1")
	if err != nil {
		t.Fatalf("ChatHistory failed: %v", err)
	}

	// Window of 2 keeps the two newest completed exchanges, rendered
	// oldest first.
	want := "\n\nUser : second question\nAI Assistant : second answer" +
		"\n\nUser : third question\nAI Assistant : third answer"
	if history != want {
		t.Errorf("history = %q, want %q", history, want)
	}
}

func TestRecordIncomingMessage(t *testing.T) {
	m, repo := newTestManager(t, 0)
	ctx := context.Background()

	id, err := m.RecordIncomingMessage(ctx, "conv-1", "namaste")
	if err != nil {
		t.Fatalf("RecordIncomingMessage failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a message id")
	}

	msg, err := repo.GetMessage(ctx, id)
	if err != nil {
		t.Fatalf("GetMessage failed: %v", err)
	}
	if msg == nil || msg.OriginalMessage != "namaste" || msg.ConversationID != "conv-1" {
		t.Errorf("unexpected message: %+v", msg)
	}
}
