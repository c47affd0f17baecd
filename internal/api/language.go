package api

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/saarthi-ai/saarthi/internal/domain"
)

// LanguageHandler serves the language reference endpoints.
type LanguageHandler struct {
	*Handler
}

// NewLanguageHandler creates a language handler.
func NewLanguageHandler(base *Handler) *LanguageHandler {
	return &LanguageHandler{Handler: base}
}

// RegisterRoutes registers the language endpoints.
func (h *LanguageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/api/languages", h.ListLanguages)
	r.Post("/api/languages/preference", h.SetPreferredLanguage)
}

type languageListResponse struct {
	Message      string             `json:"message"`
	Error        bool               `json:"error"`
	LanguageData []*domain.Language `json:"language_data"`
}

// ListLanguages returns the supported languages.
func (h *LanguageHandler) ListLanguages(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email_id")

	resp := languageListResponse{LanguageData: []*domain.Language{}}

	profile := h.authenticate(w, r, email, languageListResponse{
		Message:      msgInvalidEmail,
		LanguageData: []*domain.Language{},
	})
	if profile == nil {
		return
	}

	languages, err := h.repo.Languages(r.Context())
	if err != nil {
		slog.Error("language list lookup failed", "error", err)
		resp.Message = msgSomethingWentWrong
		resp.Error = true
		JSON(w, http.StatusOK, resp)
		return
	}

	if len(languages) > 0 {
		resp.Message = "Successful retrieval of supported language list."
		resp.LanguageData = languages
	}
	JSON(w, http.StatusOK, resp)
}

type setLanguageRequest struct {
	EmailID    string `json:"email_id"`
	LanguageID string `json:"language_id"`
}

type setLanguageResponse struct {
	Message string `json:"message"`
	Error   bool   `json:"error"`
}

// SetPreferredLanguage stores the caller's preferred language.
func (h *LanguageHandler) SetPreferredLanguage(w http.ResponseWriter, r *http.Request) {
	var req setLanguageRequest
	if !decodeBody(w, r, &req) {
		return
	}

	resp := setLanguageResponse{}

	profile := h.authenticate(w, r, req.EmailID, setLanguageResponse{Message: msgInvalidEmail})
	if profile == nil {
		return
	}

	if req.LanguageID == "" {
		resp.Message = "Language ID not submitted"
		JSON(w, http.StatusBadRequest, resp)
		return
	}

	user, err := h.repo.GetUserByEmail(r.Context(), req.EmailID)
	if err != nil || user == nil {
		if err != nil {
			slog.Error("user lookup failed", "error", err)
		}
		resp.Message = msgSomethingWentWrong
		resp.Error = true
		JSON(w, http.StatusOK, resp)
		return
	}

	language, err := h.repo.GetLanguage(r.Context(), req.LanguageID)
	if err != nil {
		slog.Error("language lookup failed", "error", err)
		resp.Message = msgSomethingWentWrong
		resp.Error = true
		JSON(w, http.StatusOK, resp)
		return
	}
	if language == nil {
		resp.Message = fmt.Sprintf("Language with ID %s does not exist.", req.LanguageID)
		JSON(w, http.StatusBadRequest, resp)
		return
	}

	if err := h.repo.SetPreferredLanguage(r.Context(), user.ID, language.ID); err != nil {
		slog.Error("set preferred language failed", "error", err)
		resp.Message = fmt.Sprintf("Unable to save user's (%s) preferred language with %s", req.EmailID, language.DisplayName)
		resp.Error = true
		JSON(w, http.StatusOK, resp)
		return
	}

	resp.Message = fmt.Sprintf("Saved the user's (%s) preferred language with %s", req.EmailID, language.DisplayName)
	JSON(w, http.StatusOK, resp)
}
