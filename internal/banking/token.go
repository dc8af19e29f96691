package banking

import (
	"context"
	"net/http"
	"net/url"
	"time"

	"github.com/choiwab/julius-baer-side-quest/internal/log"
)

// TokenState is a snapshot of the client's bearer token, suitable for
// persisting between invocations.
type TokenState struct {
	Token  string    `json:"token"`
	Expiry time.Time `json:"expiry"`
	Scope  string    `json:"scope"`
}

// Valid reports whether the token is present and not yet expired.
func (t TokenState) Valid(now time.Time) bool {
	return t.Token != "" && now.Before(t.Expiry)
}

// Authenticate obtains a bearer token with the given scope and stores it on
// the client for subsequent authorized calls.
func (c *Client) Authenticate(ctx context.Context, username, password, scope string) (string, error) {
	if scope != ScopeTransfer && scope != ScopeEnquiry {
		return "", &ValidationError{Field: "scope", Reason: "must be \"transfer\" or \"enquiry\""}
	}
	if username == "" {
		username = c.username
	}
	if password == "" {
		password = c.password
	}

	query := url.Values{}
	query.Set("claim", scope)

	var out authResponse
	body := authRequest{Username: username, Password: password}
	if err := c.doJSON(ctx, "authenticate", http.MethodPost, "/authToken", query, body, false, &out); err != nil {
		return "", err
	}
	if out.Token == "" {
		return "", &APIError{Sentinel: ErrBadResponse, Operation: "authenticate", Body: "response carried no token"}
	}

	c.mu.Lock()
	c.token = out.Token
	c.tokenExpiry = time.Now().Add(tokenTTL)
	c.tokenScope = scope
	c.mu.Unlock()

	logger := log.WithComponentFromContext(ctx, "client")
	logger.Info().
		Str(log.FieldScope, scope).
		Msg("authenticated")
	return out.Token, nil
}

// ensureToken re-authenticates with the client's configured credentials when
// the current token is absent, expired, or was issued for another scope.
func (c *Client) ensureToken(ctx context.Context, scope string) error {
	c.mu.Lock()
	valid := c.token != "" && time.Now().Before(c.tokenExpiry) && c.tokenScope == scope
	c.mu.Unlock()
	if valid {
		return nil
	}

	logger := log.WithComponentFromContext(ctx, "client")
	logger.Debug().
		Str(log.FieldScope, scope).
		Msg("token missing, expired or scoped differently; re-authenticating")
	_, err := c.Authenticate(ctx, c.username, c.password, scope)
	return err
}

// RestoreToken installs a previously issued token, typically loaded from the
// on-disk cache. Expired tokens are ignored.
func (c *Client) RestoreToken(state TokenState) {
	if !state.Valid(time.Now()) {
		return
	}
	c.mu.Lock()
	c.token = state.Token
	c.tokenExpiry = state.Expiry
	c.tokenScope = state.Scope
	c.mu.Unlock()
}

// TokenSnapshot returns the current token state for persistence.
func (c *Client) TokenSnapshot() TokenState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return TokenState{Token: c.token, Expiry: c.tokenExpiry, Scope: c.tokenScope}
}

func (c *Client) currentToken() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.token
}
