// Package identity talks to the external authentication provider that issues
// session tokens.
package identity

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirdesai22/lacs-verts/internal/common"
)

// SessionHeader carries the provider session id on the outbound call, and the
// issued session token on inbound API calls.
const SessionHeader = "X-Session-ID"

// Profile is the verified identity returned by the provider.
type Profile struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

type Client struct {
	url  string
	http *http.Client
}

// NewClient returns a Client for the session-data endpoint at url. Every call
// is bounded by timeout.
func NewClient(url string, timeout time.Duration) *Client {
	return &Client{url: url, http: &http.Client{Timeout: timeout}}
}

// ResolveSession exchanges sessionID for a verified Profile with a single
// request. It never retries.
func (c *Client) ResolveSession(ctx context.Context, sessionID string) (*Profile, error) {
	if strings.TrimSpace(sessionID) == "" {
		return nil, common.New(common.ErrorBadRequest, "Session ID required")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, common.Wrap(common.ErrorInternal, "Authentication error", err)
	}
	req.Header.Set(SessionHeader, sessionID)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, common.Wrap(common.ErrorInternal, "Authentication error", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, common.Wrap(common.ErrorUnauthorized, "Invalid session",
			fmt.Errorf("provider returned status %d", resp.StatusCode))
	}

	var p Profile
	if err := json.NewDecoder(resp.Body).Decode(&p); err != nil {
		return nil, common.Wrap(common.ErrorInternal, "Authentication error", fmt.Errorf("decode profile: %w", err))
	}
	if p.Email == "" || p.SessionToken == "" {
		return nil, common.Wrap(common.ErrorInternal, "Authentication error",
			fmt.Errorf("provider profile missing email or session token"))
	}
	return &p, nil
}
