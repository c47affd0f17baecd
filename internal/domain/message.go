package domain

import (
	"time"
)

// Message input types.
const (
	InputTypeText  = "text"
	InputTypeVoice = "voice"
)

// Message is one user query and its generated answer, together with the
// per-stage timestamps the pipelines record as they run. A message row is
// inserted once per incoming query and then mutated incrementally through
// patch merges; it is never deleted by the core.
type Message struct {
	ID                        string     `json:"id"`
	ConversationID            string     `json:"conversation_id"`
	OriginalMessage           string     `json:"original_message"`
	TranslatedMessage         string     `json:"translated_message,omitempty"`
	InputLanguageDetected     string     `json:"input_language_detected,omitempty"`
	MessageResponse           string     `json:"message_response,omitempty"`
	MessageTranslatedResponse string     `json:"message_translated_response,omitempty"`
	InputType                 string     `json:"input_type,omitempty"`
	MessageInputTime          *time.Time `json:"message_input_time,omitempty"`
	InputTranslationStart     *time.Time `json:"input_translation_start_time,omitempty"`
	InputTranslationEnd       *time.Time `json:"input_translation_end_time,omitempty"`
	SpeechToTextStart         *time.Time `json:"input_speech_to_text_start_time,omitempty"`
	SpeechToTextEnd           *time.Time `json:"input_speech_to_text_end_time,omitempty"`
	TextToSpeechStart         *time.Time `json:"response_text_to_speech_start_time,omitempty"`
	TextToSpeechEnd           *time.Time `json:"response_text_to_speech_end_time,omitempty"`
	MessageResponseTime       *time.Time `json:"message_response_time,omitempty"`
	IsDeleted                 bool       `json:"-"`
	CreatedOn                 time.Time  `json:"created_on"`
}

// Completed reports whether the message carries both a translated input and
// a generated response. Only completed messages feed the chat-history window.
func (m *Message) Completed() bool {
	return m.TranslatedMessage != "" && m.MessageResponse != ""
}
