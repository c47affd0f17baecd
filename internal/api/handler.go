// Package api provides HTTP handlers for the assistant API.
package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/saarthi-ai/saarthi/internal/identity"
	"github.com/saarthi-ai/saarthi/internal/pipeline"
	"github.com/saarthi-ai/saarthi/internal/store"
)

// Caller-facing messages. Internal error detail never leaks; failures all
// surface the same generic message with the error flag set.
const (
	msgSomethingWentWrong = "Something went wrong"
	msgInvalidEmail       = "Invalid Email ID"
)

// Authenticator resolves an email to an account profile. A missing account
// is (nil, nil), not an error.
type Authenticator interface {
	Authenticate(ctx context.Context, email string) (*identity.Profile, error)
}

// Handler provides common handler utilities and dependencies.
type Handler struct {
	repo  store.Repository
	auth  Authenticator
	query *pipeline.Query
	voice *pipeline.Voice
}

// NewHandler creates a new Handler with common dependencies.
func NewHandler(repo store.Repository, auth Authenticator, query *pipeline.Query, voice *pipeline.Voice) *Handler {
	return &Handler{
		repo:  repo,
		auth:  auth,
		query: query,
		voice: voice,
	}
}

// JSON writes a JSON response with the given status code.
func JSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, `{"error": "failed to encode response"}`, http.StatusInternalServerError)
	}
}

// authenticate resolves the caller's email before any pipeline stage runs.
// It writes the unauthorized or generic-failure response itself and returns
// nil when the request must not proceed.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request, email string, unauthorized interface{}) *identity.Profile {
	profile, err := h.auth.Authenticate(r.Context(), email)
	if err != nil {
		slog.Error("identity lookup failed", "error", err)
		JSON(w, http.StatusOK, map[string]interface{}{
			"message": msgSomethingWentWrong,
			"error":   true,
		})
		return nil
	}
	if profile == nil {
		JSON(w, http.StatusUnauthorized, unauthorized)
		return nil
	}
	return profile
}

func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		JSON(w, http.StatusBadRequest, map[string]interface{}{
			"message": "Malformed request body",
			"error":   true,
		})
		return false
	}
	return true
}
