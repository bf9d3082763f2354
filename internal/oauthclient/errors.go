package oauthclient

import (
	"errors"
	"fmt"

	"golang.org/x/oauth2"
)

// Kind classifies a provider failure so callers can decide between dropping
// the session and forcing re-authentication (InvalidGrant, InvalidClient)
// versus treating the failure as transient and keeping existing credentials.
type Kind string

const (
	KindInvalidGrant   Kind = "invalid_grant"
	KindInvalidRequest Kind = "invalid_request"
	KindInvalidClient  Kind = "invalid_client"
	KindTransient      Kind = "transient"
)

const (
	opExchange   = "exchange_code"
	opRefresh    = "refresh_token"
	opIntrospect = "introspect"
)

// ProviderError wraps a token-endpoint failure with its classification.
// Classification reads the structured `error` field of the provider's
// response, never the error message text.
type ProviderError struct {
	Op   string
	Kind Kind
	err  error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.err)
}

func (e *ProviderError) Unwrap() error {
	return e.err
}

// Message returns a human-readable description safe to show in a browser
// redirect. It never includes the provider's response body.
func (e *ProviderError) Message() string {
	switch e.Kind {
	case KindInvalidGrant:
		if e.Op == opRefresh {
			return "Invalid refresh token"
		}
		return "Invalid authorization code"
	case KindInvalidRequest:
		return "Invalid PKCE verifier"
	case KindInvalidClient:
		return "Invalid client"
	default:
		return "Authorization provider unavailable"
	}
}

// Terminal reports whether the failure invalidates the stored credentials,
// meaning the only recovery is a fresh authorization redirect.
func (e *ProviderError) Terminal() bool {
	return e.Kind == KindInvalidGrant || e.Kind == KindInvalidClient
}

func classify(op string, err error) *ProviderError {
	var retrieve *oauth2.RetrieveError
	if errors.As(err, &retrieve) {
		switch retrieve.ErrorCode {
		case "invalid_grant":
			return &ProviderError{Op: op, Kind: KindInvalidGrant, err: err}
		case "invalid_request":
			return &ProviderError{Op: op, Kind: KindInvalidRequest, err: err}
		case "invalid_client":
			return &ProviderError{Op: op, Kind: KindInvalidClient, err: err}
		}
	}

	// Network failures, 5xx responses, and unknown error codes are opaque
	// transport errors
	return &ProviderError{Op: op, Kind: KindTransient, err: err}
}
