package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/saarthi-ai/saarthi/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite. Concurrency across
// requests is handled by the engine (WAL + busy timeout), not by an
// application-level lock; message patch merges are last-write-wins.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		email TEXT NOT NULL UNIQUE,
		phone TEXT,
		first_name TEXT,
		last_name TEXT,
		preferred_language_id TEXT,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_on INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS conversations (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		title TEXT NOT NULL,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_on INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_conversations_user ON conversations(user_id, created_on);

	CREATE TABLE IF NOT EXISTS messages (
		id TEXT PRIMARY KEY,
		conversation_id TEXT NOT NULL,
		original_message TEXT NOT NULL,
		translated_message TEXT,
		input_language_detected TEXT,
		message_response TEXT,
		message_translated_response TEXT,
		input_type TEXT,
		message_input_time INTEGER,
		input_translation_start_time INTEGER,
		input_translation_end_time INTEGER,
		input_speech_to_text_start_time INTEGER,
		input_speech_to_text_end_time INTEGER,
		response_text_to_speech_start_time INTEGER,
		response_text_to_speech_end_time INTEGER,
		message_response_time INTEGER,
		is_deleted INTEGER NOT NULL DEFAULT 0,
		created_on INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id, created_on);

	CREATE TABLE IF NOT EXISTS follow_up_questions (
		id TEXT PRIMARY KEY,
		message_id TEXT NOT NULL,
		question TEXT NOT NULL,
		sequence INTEGER NOT NULL,
		question_type TEXT NOT NULL,
		created_on INTEGER NOT NULL,
		UNIQUE(message_id, sequence)
	);

	CREATE TABLE IF NOT EXISTS languages (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		display_name TEXT NOT NULL,
		code TEXT NOT NULL UNIQUE,
		latn_code TEXT,
		bcp_code TEXT,
		is_deleted INTEGER NOT NULL DEFAULT 0
	);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUserByEmail retrieves a non-deleted user by email.
func (s *SQLiteStore) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	query := `
		SELECT id, email, phone, first_name, last_name, preferred_language_id, created_on
		FROM users WHERE email = ? AND is_deleted = 0`

	row := s.db.QueryRowContext(ctx, query, email)

	var user domain.User
	var phone, firstName, lastName, prefLang sql.NullString
	var createdOn int64

	err := row.Scan(&user.ID, &user.Email, &phone, &firstName, &lastName, &prefLang, &createdOn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.Phone = phone.String
	user.FirstName = firstName.String
	user.LastName = lastName.String
	user.PreferredLanguageID = prefLang.String
	user.CreatedOn = time.UnixMilli(createdOn)

	return &user, nil
}

// CreateUser inserts a new user record.
func (s *SQLiteStore) CreateUser(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, phone, first_name, last_name, preferred_language_id, is_deleted, created_on)
		VALUES (?, ?, ?, ?, ?, ?, 0, ?)`

	_, err := s.db.ExecContext(ctx, query,
		user.ID, user.Email, nullable(user.Phone), nullable(user.FirstName),
		nullable(user.LastName), nullable(user.PreferredLanguageID),
		user.CreatedOn.UnixMilli(),
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// SetPreferredLanguage updates a user's preferred language reference.
func (s *SQLiteStore) SetPreferredLanguage(ctx context.Context, userID, languageID string) error {
	query := `UPDATE users SET preferred_language_id = ? WHERE id = ? AND is_deleted = 0`
	result, err := s.db.ExecContext(ctx, query, languageID, userID)
	if err != nil {
		return fmt.Errorf("update preferred language: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("user %s not found", userID)
	}
	return nil
}

// LatestConversation returns the newest non-deleted conversation for a user.
func (s *SQLiteStore) LatestConversation(ctx context.Context, userID string) (*domain.Conversation, error) {
	query := `
		SELECT id, user_id, title, created_on
		FROM conversations
		WHERE user_id = ? AND is_deleted = 0
		ORDER BY created_on DESC
		LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, userID)

	var conv domain.Conversation
	var createdOn int64

	err := row.Scan(&conv.ID, &conv.UserID, &conv.Title, &createdOn)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan conversation row: %w", err)
	}

	conv.CreatedOn = time.UnixMilli(createdOn)
	return &conv, nil
}

// CreateConversation inserts a new conversation record.
func (s *SQLiteStore) CreateConversation(ctx context.Context, conv *domain.Conversation) error {
	query := `INSERT INTO conversations (id, user_id, title, is_deleted, created_on) VALUES (?, ?, ?, 0, ?)`
	_, err := s.db.ExecContext(ctx, query, conv.ID, conv.UserID, conv.Title, conv.CreatedOn.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert conversation: %w", err)
	}
	return nil
}

// InsertMessage inserts a new message record.
func (s *SQLiteStore) InsertMessage(ctx context.Context, msg *domain.Message) error {
	query := `
		INSERT INTO messages (id, conversation_id, original_message, is_deleted, created_on)
		VALUES (?, ?, ?, 0, ?)`
	_, err := s.db.ExecContext(ctx, query, msg.ID, msg.ConversationID, msg.OriginalMessage, msg.CreatedOn.UnixMilli())
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// GetMessage retrieves a message by id.
func (s *SQLiteStore) GetMessage(ctx context.Context, messageID string) (*domain.Message, error) {
	query := `
		SELECT id, conversation_id, original_message, translated_message,
		       input_language_detected, message_response, message_translated_response,
		       input_type, message_input_time,
		       input_translation_start_time, input_translation_end_time,
		       input_speech_to_text_start_time, input_speech_to_text_end_time,
		       response_text_to_speech_start_time, response_text_to_speech_end_time,
		       message_response_time, created_on
		FROM messages WHERE id = ? AND is_deleted = 0`

	row := s.db.QueryRowContext(ctx, query, messageID)
	msg, err := scanMessage(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan message row: %w", err)
	}
	return msg, nil
}

// UpdateMessage merge-updates a message row with the given patch.
func (s *SQLiteStore) UpdateMessage(ctx context.Context, messageID string, patch *MessagePatch) error {
	if patch.IsEmpty() {
		return nil
	}

	set := make([]string, 0, 13)
	args := make([]interface{}, 0, 14)
	addString := func(column string, v *string) {
		if v != nil {
			set = append(set, column+" = ?")
			args = append(args, *v)
		}
	}
	addTime := func(column string, v *time.Time) {
		if v != nil {
			set = append(set, column+" = ?")
			args = append(args, v.UnixMilli())
		}
	}

	addString("input_type", patch.InputType)
	addString("translated_message", patch.TranslatedMessage)
	addString("input_language_detected", patch.InputLanguageDetected)
	addString("message_response", patch.MessageResponse)
	addString("message_translated_response", patch.MessageTranslatedResponse)
	addTime("message_input_time", patch.MessageInputTime)
	addTime("input_translation_start_time", patch.InputTranslationStart)
	addTime("input_translation_end_time", patch.InputTranslationEnd)
	addTime("input_speech_to_text_start_time", patch.SpeechToTextStart)
	addTime("input_speech_to_text_end_time", patch.SpeechToTextEnd)
	addTime("response_text_to_speech_start_time", patch.TextToSpeechStart)
	addTime("response_text_to_speech_end_time", patch.TextToSpeechEnd)
	addTime("message_response_time", patch.MessageResponseTime)

	query := "UPDATE messages SET " + strings.Join(set, ", ") + " WHERE id = ?"
	args = append(args, messageID)

	result, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update message: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("message %s not found", messageID)
	}
	return nil
}

// CompletedMessages returns recent messages with both halves of an exchange.
func (s *SQLiteStore) CompletedMessages(ctx context.Context, conversationID string, limit int) ([]*domain.Message, error) {
	query := `
		SELECT id, conversation_id, original_message, translated_message,
		       input_language_detected, message_response, message_translated_response,
		       input_type, message_input_time,
		       input_translation_start_time, input_translation_end_time,
		       input_speech_to_text_start_time, input_speech_to_text_end_time,
		       response_text_to_speech_start_time, response_text_to_speech_end_time,
		       message_response_time, created_on
		FROM messages
		WHERE conversation_id = ? AND is_deleted = 0
		  AND translated_message IS NOT NULL AND message_response IS NOT NULL
		ORDER BY created_on DESC
		LIMIT ?`

	rows, err := s.db.QueryContext(ctx, query, conversationID, limit)
	if err != nil {
		return nil, fmt.Errorf("query completed messages: %w", err)
	}
	defer rows.Close()

	var messages []*domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan completed message row: %w", err)
		}
		messages = append(messages, msg)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate completed messages: %w", err)
	}

	return messages, nil
}

// InsertFollowUpQuestions batch-inserts follow-up rows inside one transaction.
func (s *SQLiteStore) InsertFollowUpQuestions(ctx context.Context, questions []*domain.FollowUpQuestion) error {
	if len(questions) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin follow-up insert: %w", err)
	}

	query := `
		INSERT INTO follow_up_questions (id, message_id, question, sequence, question_type, created_on)
		VALUES (?, ?, ?, ?, ?, ?)`
	for _, q := range questions {
		if _, err := tx.ExecContext(ctx, query,
			q.ID, q.MessageID, q.Question, q.Sequence, q.Type, q.CreatedOn.UnixMilli(),
		); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("rollback follow-up insert: %v (original: %w)", rbErr, err)
			}
			return fmt.Errorf("insert follow-up question: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit follow-up insert: %w", err)
	}
	return nil
}

// FollowUpQuestions returns follow-up rows for a message ordered by sequence.
func (s *SQLiteStore) FollowUpQuestions(ctx context.Context, messageID string) ([]*domain.FollowUpQuestion, error) {
	query := `
		SELECT id, message_id, question, sequence, question_type, created_on
		FROM follow_up_questions WHERE message_id = ? ORDER BY sequence`

	rows, err := s.db.QueryContext(ctx, query, messageID)
	if err != nil {
		return nil, fmt.Errorf("query follow-up questions: %w", err)
	}
	defer rows.Close()

	var questions []*domain.FollowUpQuestion
	for rows.Next() {
		var q domain.FollowUpQuestion
		var createdOn int64
		if err := rows.Scan(&q.ID, &q.MessageID, &q.Question, &q.Sequence, &q.Type, &createdOn); err != nil {
			return nil, fmt.Errorf("scan follow-up row: %w", err)
		}
		q.CreatedOn = time.UnixMilli(createdOn)
		questions = append(questions, &q)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate follow-up questions: %w", err)
	}

	return questions, nil
}

// Languages returns all non-deleted languages.
func (s *SQLiteStore) Languages(ctx context.Context) ([]*domain.Language, error) {
	query := `
		SELECT id, name, display_name, code, latn_code, bcp_code
		FROM languages WHERE is_deleted = 0 ORDER BY name`

	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("query languages: %w", err)
	}
	defer rows.Close()

	var languages []*domain.Language
	for rows.Next() {
		lang, err := scanLanguage(rows)
		if err != nil {
			return nil, fmt.Errorf("scan language row: %w", err)
		}
		languages = append(languages, lang)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate languages: %w", err)
	}

	return languages, nil
}

// GetLanguage retrieves a non-deleted language by id.
func (s *SQLiteStore) GetLanguage(ctx context.Context, languageID string) (*domain.Language, error) {
	query := `
		SELECT id, name, display_name, code, latn_code, bcp_code
		FROM languages WHERE id = ? AND is_deleted = 0`

	lang, err := scanLanguage(s.db.QueryRowContext(ctx, query, languageID))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan language row: %w", err)
	}
	return lang, nil
}

// GetLanguageByCode retrieves a non-deleted language by its unique code.
func (s *SQLiteStore) GetLanguageByCode(ctx context.Context, code string) (*domain.Language, error) {
	query := `
		SELECT id, name, display_name, code, latn_code, bcp_code
		FROM languages WHERE code = ? AND is_deleted = 0`

	lang, err := scanLanguage(s.db.QueryRowContext(ctx, query, code))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan language row: %w", err)
	}
	return lang, nil
}

// SeedLanguages inserts reference languages when the table is empty.
func (s *SQLiteStore) SeedLanguages(ctx context.Context, languages []*domain.Language) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM languages`).Scan(&count); err != nil {
		return fmt.Errorf("count languages: %w", err)
	}
	if count > 0 {
		return nil
	}

	query := `
		INSERT INTO languages (id, name, display_name, code, latn_code, bcp_code, is_deleted)
		VALUES (?, ?, ?, ?, ?, ?, 0)`
	for _, lang := range languages {
		if _, err := s.db.ExecContext(ctx, query,
			lang.ID, lang.Name, lang.DisplayName, lang.Code,
			nullable(lang.LatnCode), nullable(lang.BCPCode),
		); err != nil {
			return fmt.Errorf("seed language %s: %w", lang.Code, err)
		}
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanMessage(row rowScanner) (*domain.Message, error) {
	var msg domain.Message
	var translated, detected, response, translatedResponse, inputType sql.NullString
	var inputTime, trStart, trEnd, sttStart, sttEnd, ttsStart, ttsEnd, respTime sql.NullInt64
	var createdOn int64

	err := row.Scan(
		&msg.ID, &msg.ConversationID, &msg.OriginalMessage, &translated,
		&detected, &response, &translatedResponse,
		&inputType, &inputTime,
		&trStart, &trEnd,
		&sttStart, &sttEnd,
		&ttsStart, &ttsEnd,
		&respTime, &createdOn,
	)
	if err != nil {
		return nil, err
	}

	msg.TranslatedMessage = translated.String
	msg.InputLanguageDetected = detected.String
	msg.MessageResponse = response.String
	msg.MessageTranslatedResponse = translatedResponse.String
	msg.InputType = inputType.String
	msg.MessageInputTime = timePtr(inputTime)
	msg.InputTranslationStart = timePtr(trStart)
	msg.InputTranslationEnd = timePtr(trEnd)
	msg.SpeechToTextStart = timePtr(sttStart)
	msg.SpeechToTextEnd = timePtr(sttEnd)
	msg.TextToSpeechStart = timePtr(ttsStart)
	msg.TextToSpeechEnd = timePtr(ttsEnd)
	msg.MessageResponseTime = timePtr(respTime)
	msg.CreatedOn = time.UnixMilli(createdOn)

	return &msg, nil
}

func scanLanguage(row rowScanner) (*domain.Language, error) {
	var lang domain.Language
	var latn, bcp sql.NullString

	err := row.Scan(&lang.ID, &lang.Name, &lang.DisplayName, &lang.Code, &latn, &bcp)
	if err != nil {
		return nil, err
	}

	lang.LatnCode = latn.String
	lang.BCPCode = bcp.String
	return &lang, nil
}

func timePtr(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
