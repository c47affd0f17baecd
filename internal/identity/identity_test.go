package identity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func TestAuthenticateSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		var req map[string]string
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req["email"] != "asha@example.com" {
			t.Errorf("email = %q", req["email"])
		}
		json.NewEncoder(w).Encode(Profile{
			ID:        "id-1",
			Email:     "asha@example.com",
			FirstName: "Asha",
			Phone:     "9999999999",
		})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	profile, err := c.Authenticate(context.Background(), "asha@example.com")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if profile == nil || profile.ID != "id-1" || profile.Phone != "9999999999" {
		t.Errorf("unexpected profile: %+v", profile)
	}
}

func TestAuthenticateAbsentAccount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	profile, err := c.Authenticate(context.Background(), "nobody@example.com")
	if err != nil {
		t.Fatalf("absence must not be an error, got %v", err)
	}
	if profile != nil {
		t.Errorf("expected nil profile, got %+v", profile)
	}
}

func TestAuthenticateRetriesTransientFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode(Profile{ID: "id-1", Email: "a@example.com"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	profile, err := c.Authenticate(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if profile == nil || profile.ID != "id-1" {
		t.Errorf("unexpected profile: %+v", profile)
	}
	if got := calls.Load(); got != 3 {
		t.Errorf("server saw %d calls, want 3", got)
	}
}

func TestAuthenticateRetryBudgetExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Authenticate(context.Background(), "a@example.com")
	if !errors.Is(err, ErrRetryBudgetExhausted) {
		t.Fatalf("err = %v, want ErrRetryBudgetExhausted", err)
	}
	if got := calls.Load(); got != int32(defaultMaxAttempts) {
		t.Errorf("server saw %d calls, want %d", got, defaultMaxAttempts)
	}
}

func TestAuthenticateForbiddenIsRetryable(t *testing.T) {
	// The content service serves 403 during rolling deploys; it counts as
	// transient here, unlike a plain missing account.
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		json.NewEncoder(w).Encode(Profile{ID: "id-1", Email: "a@example.com"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	profile, err := c.Authenticate(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if profile == nil {
		t.Fatal("expected profile after retry")
	}
}

func TestAuthenticateContextCancelDuringBackoff(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	c := NewClient(srv.URL, 5*time.Second)
	_, err := c.Authenticate(ctx, "a@example.com")
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want context deadline", err)
	}
}

func TestAuthenticateFillsMissingEmail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(Profile{ID: "id-1"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, 5*time.Second)
	profile, err := c.Authenticate(context.Background(), "a@example.com")
	if err != nil {
		t.Fatalf("Authenticate failed: %v", err)
	}
	if profile.Email != "a@example.com" {
		t.Errorf("Email = %q, want backfilled request email", profile.Email)
	}
}
