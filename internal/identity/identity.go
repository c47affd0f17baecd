// Package identity provides the outbound identity lookup client.
//
// Authentication is delegated to the content service: an account exists
// there or it does not. Absence is a first-class outcome, not an error.
// This is the only network call in the system that retries.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"
)

// Retry policy for the identity lookup. Mirrors the content service's
// documented transient failure modes.
const (
	defaultMaxAttempts = 3
	baseRetryDelay     = 100 * time.Millisecond
)

// ErrRetryBudgetExhausted is returned when every retry attempt failed with
// a retryable outcome.
var ErrRetryBudgetExhausted = errors.New("identity: retry budget exhausted")

// Retryable status outcomes and idempotent methods for the lookup.
var (
	retryableStatuses = map[int]bool{
		http.StatusForbidden:          true,
		http.StatusBadGateway:         true,
		http.StatusServiceUnavailable: true,
		http.StatusGatewayTimeout:     true,
	}
	idempotentMethods = map[string]bool{
		http.MethodGet:  true,
		http.MethodPost: true,
		http.MethodPut:  true,
	}
)

// Profile is the account record returned by the content service.
type Profile struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Phone     string `json:"phone_number,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
}

// Client looks up accounts on the content service.
type Client struct {
	authenticateURL string
	httpClient      *http.Client
	maxAttempts     int
}

// NewClient creates an identity client for the given authenticate endpoint.
func NewClient(authenticateURL string, timeout time.Duration) *Client {
	return &Client{
		authenticateURL: authenticateURL,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				DialContext: (&net.Dialer{
					Timeout:   10 * time.Second,
					KeepAlive: 30 * time.Second,
				}).DialContext,
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		maxAttempts: defaultMaxAttempts,
	}
}

// Authenticate looks up an account by email. A missing account returns
// (nil, nil); only transport failures and an exhausted retry budget
// return an error.
func (c *Client) Authenticate(ctx context.Context, email string) (*Profile, error) {
	body, err := json.Marshal(map[string]string{"email": email})
	if err != nil {
		return nil, fmt.Errorf("marshal authenticate request: %w", err)
	}

	resp, err := c.do(ctx, http.MethodPost, c.authenticateURL, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		slog.Info("identity lookup returned no account", "status", resp.StatusCode)
		return nil, nil
	}

	var profile Profile
	if err := json.NewDecoder(resp.Body).Decode(&profile); err != nil {
		return nil, fmt.Errorf("decode authenticate response: %w", err)
	}
	if profile.Email == "" {
		profile.Email = email
	}

	return &profile, nil
}

// do sends the request with bounded retry and exponential backoff.
// Only retryable statuses on idempotent methods consume retry attempts;
// any other status is returned to the caller as-is.
func (c *Client) do(ctx context.Context, method, url string, body []byte) (*http.Response, error) {
	var lastStatus int

	for attempt := 0; attempt < c.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := baseRetryDelay * time.Duration(1<<(attempt-1))
			slog.Debug("retrying identity lookup", "attempt", attempt+1, "delay", delay, "last_status", lastStatus)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("build identity request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			if !idempotentMethods[method] {
				return nil, fmt.Errorf("identity request failed: %w", err)
			}
			lastStatus = 0
			continue
		}

		if retryableStatuses[resp.StatusCode] && idempotentMethods[method] {
			lastStatus = resp.StatusCode
			// Drain so the connection can be reused across attempts.
			_, _ = io.Copy(io.Discard, resp.Body)
			_ = resp.Body.Close()
			continue
		}

		return resp, nil
	}

	return nil, fmt.Errorf("%w after %d attempts (last status %d)", ErrRetryBudgetExhausted, c.maxAttempts, lastStatus)
}
