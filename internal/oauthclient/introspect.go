package oauthclient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/auth-front/auth-front/internal/ioutil"
)

// Introspection is the RFC 7662 introspection response for a token.
type Introspection struct {
	Active    bool   `json:"active"`
	Scope     string `json:"scope,omitempty"`
	ClientID  string `json:"client_id,omitempty"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresAt int64  `json:"exp,omitempty"`
}

// SupportsIntrospection reports whether the provider exposes an
// introspection endpoint.
func (c *Client) SupportsIntrospection() bool {
	return c.introspectionEndpoint != ""
}

// Introspect asks the provider whether the token is active. Best-effort:
// the proxy never gates requests on it, and any failure is reported as a
// transient provider error.
func (c *Client) Introspect(ctx context.Context, token string) (*Introspection, error) {
	if c.introspectionEndpoint == "" {
		return nil, fmt.Errorf("no introspection endpoint configured")
	}

	form := url.Values{
		"token":         {token},
		"client_id":     {c.clientID},
		"client_secret": {c.secret},
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.introspectionEndpoint,
		strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("building introspection request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	client := &http.Client{Timeout: 10 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		return nil, classify(opIntrospect, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body := ioutil.ReadLimited(resp.Body, 1024)
		return nil, classify(opIntrospect,
			fmt.Errorf("introspection endpoint returned status %d: %s", resp.StatusCode, body))
	}

	var result Introspection
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, classify(opIntrospect, fmt.Errorf("decoding introspection response: %w", err))
	}

	return &result, nil
}
