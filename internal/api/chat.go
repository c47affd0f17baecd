package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/saarthi-ai/saarthi/internal/domain"
	"github.com/saarthi-ai/saarthi/internal/splitter"
)

// ChatHandler serves the query, voice, and audio endpoints.
type ChatHandler struct {
	*Handler
}

// NewChatHandler creates a chat handler.
func NewChatHandler(base *Handler) *ChatHandler {
	return &ChatHandler{Handler: base}
}

// RegisterRoutes registers the chat endpoints.
func (h *ChatHandler) RegisterRoutes(r chi.Router) {
	r.Post("/api/chat/query", h.SubmitTextQuery)
	r.Post("/api/chat/synthesize", h.SynthesizeAudio)
	r.Post("/api/chat/transcribe", h.TranscribeAudio)
	r.Post("/api/chat/voice-query", h.SubmitVoiceQuery)
}

type textQueryRequest struct {
	EmailID string `json:"email_id"`
	Query   string `json:"query"`
}

type textQueryResponse struct {
	Message           string              `json:"message"`
	Query             string              `json:"query"`
	Error             bool                `json:"error"`
	MessageID         string              `json:"message_id,omitempty"`
	Response          string              `json:"response,omitempty"`
	FollowUpQuestions []splitter.FollowUp `json:"follow_up_questions,omitempty"`
}

// SubmitTextQuery runs the query pipeline for a typed query.
func (h *ChatHandler) SubmitTextQuery(w http.ResponseWriter, r *http.Request) {
	var req textQueryRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp := textQueryResponse{Query: req.Query}

	profile := h.authenticate(w, r, req.EmailID, textQueryResponse{
		Message: msgInvalidEmail,
		Query:   req.Query,
	})
	if profile == nil {
		return
	}

	result, err := h.query.Run(r.Context(), profile, req.Query, domain.InputTypeText)
	if err != nil {
		slog.Error("text query pipeline failed", "error", err)
		resp.Message = msgSomethingWentWrong
		resp.Error = true
		JSON(w, http.StatusOK, resp)
		return
	}

	resp.Message = "Successful retrieval of answer for the above query."
	resp.MessageID = result.MessageID
	resp.Response = result.Response
	resp.FollowUpQuestions = result.FollowUpQuestions
	JSON(w, http.StatusOK, resp)
}

type synthesizeRequest struct {
	Text      string `json:"text"`
	MessageID string `json:"message_id"`
}

type synthesizeResponse struct {
	Message string `json:"message"`
	Text    string `json:"text"`
	Error   bool   `json:"error"`
	Audio   string `json:"audio,omitempty"`
}

// SynthesizeAudio converts answer text back to speech.
func (h *ChatHandler) SynthesizeAudio(w http.ResponseWriter, r *http.Request) {
	var req synthesizeRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp := synthesizeResponse{Text: req.Text}

	audio, err := h.voice.SynthesizeResponse(r.Context(), req.Text, req.MessageID)
	if err != nil {
		slog.Error("audio synthesis failed", "error", err)
		resp.Message = msgSomethingWentWrong
		resp.Error = true
		JSON(w, http.StatusOK, resp)
		return
	}

	resp.Message = "Audio synthesis successful"
	resp.Audio = audio
	JSON(w, http.StatusOK, resp)
}

type voiceRequest struct {
	EmailID           string `json:"email_id"`
	Query             string `json:"query"`
	QueryLanguageCode string `json:"query_language_code"`
}

type transcribeResponse struct {
	Message         string  `json:"message"`
	HeardInputQuery string  `json:"heard_input_query,omitempty"`
	HeardInputAudio string  `json:"heard_input_audio,omitempty"`
	ConfidenceScore float64 `json:"confidence_score"`
	Error           bool    `json:"error"`
	MessageID       string  `json:"message_id,omitempty"`
}

// TranscribeAudio transcribes a voice input without answering it.
func (h *ChatHandler) TranscribeAudio(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp := transcribeResponse{}

	profile := h.authenticate(w, r, req.EmailID, transcribeResponse{Message: msgInvalidEmail})
	if profile == nil {
		return
	}

	result, err := h.voice.Transcribe(r.Context(), profile, req.Query, req.QueryLanguageCode)
	if err != nil {
		slog.Error("transcription pipeline failed", "error", err)
		resp.Message = msgSomethingWentWrong
		resp.Error = true
		JSON(w, http.StatusOK, resp)
		return
	}

	resp.MessageID = result.MessageID
	resp.ConfidenceScore = result.Confidence
	resp.HeardInputQuery = result.HeardInputQuery
	resp.HeardInputAudio = result.HeardInputAudio
	if result.LowConfidence {
		resp.Message = "Unfortunately unable to transcribe the above voice input query."
	} else {
		resp.Message = "Successful transcription for above input voice query."
	}
	JSON(w, http.StatusOK, resp)
}

type voiceQueryResponse struct {
	Message           string              `json:"message"`
	HeardInputQuery   string              `json:"heard_input_query,omitempty"`
	HeardInputAudio   string              `json:"heard_input_audio,omitempty"`
	ConfidenceScore   float64             `json:"confidence_score"`
	Error             bool                `json:"error"`
	MessageID         string              `json:"message_id,omitempty"`
	Response          string              `json:"response,omitempty"`
	FollowUpQuestions []splitter.FollowUp `json:"follow_up_questions,omitempty"`
}

// SubmitVoiceQuery transcribes a voice input and, when the confidence gate
// passes, answers it through the query pipeline.
func (h *ChatHandler) SubmitVoiceQuery(w http.ResponseWriter, r *http.Request) {
	var req voiceRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp := voiceQueryResponse{}

	profile := h.authenticate(w, r, req.EmailID, voiceQueryResponse{Message: msgInvalidEmail})
	if profile == nil {
		return
	}

	result, err := h.voice.Run(r.Context(), profile, req.Query, req.QueryLanguageCode)
	if err != nil {
		slog.Error("voice query pipeline failed", "error", err)
		resp.Message = msgSomethingWentWrong
		resp.Error = true
		JSON(w, http.StatusOK, resp)
		return
	}

	resp.MessageID = result.MessageID
	resp.ConfidenceScore = result.Confidence
	resp.HeardInputQuery = result.HeardInputQuery
	resp.HeardInputAudio = result.HeardInputAudio
	if result.Answered {
		resp.Message = "Successful retrieval of answer for the above query."
		resp.Response = result.Response
		resp.FollowUpQuestions = result.FollowUpQuestions
	} else {
		resp.Message = "Unfortunately unable to transcribe the above voice input query."
	}
	JSON(w, http.StatusOK, resp)
}
