package flow

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/auth-front/auth-front/internal/cookie"
	"github.com/auth-front/auth-front/internal/log"
	"github.com/auth-front/auth-front/internal/oauthclient"
	"github.com/auth-front/auth-front/internal/session"
)

// refreshSkew is how close to its expiry a session may get before the next
// request triggers a refresh instead of reusing the cached access token.
const refreshSkew = 30 * time.Second

// Controller drives the per-browser authentication state machine. The state
// (Anonymous, AuthorizationPending, Authenticated) is never stored
// server-side, it is derived from which cookies each request carries.
type Controller struct {
	client  *oauthclient.Client
	cookies cookie.Store

	// refreshGroup deduplicates concurrent refreshes of the same refresh
	// token across parallel requests from one browser.
	refreshGroup singleflight.Group

	now func() time.Time
}

// NewController creates the flow controller over an OAuth client and the
// credential cookie store.
func NewController(client *oauthclient.Client, cookies cookie.Store) *Controller {
	return &Controller{
		client:  client,
		cookies: cookies,
		now:     time.Now,
	}
}

// BeginAuthorization builds the provider authorization URL and binds the
// CSRF token and PKCE verifier to the browser as short-lived cookies.
// Transition: Anonymous -> AuthorizationPending.
func (c *Controller) BeginAuthorization(jar cookie.Jar, scopes []string) (cookie.Jar, string, error) {
	ar, err := c.client.BuildAuthorizationRequest(scopes)
	if err != nil {
		return jar, "", err
	}

	jar = c.cookies.SetCSRFToken(jar, ar.CSRFToken)
	jar = c.cookies.SetPKCEVerifier(jar, ar.PKCEVerifier)

	log.LogDebugWithFields("flow", "Authorization started", map[string]any{
		"scopes": scopes,
	})
	return jar, ar.URL, nil
}

// HandleCallback verifies the provider redirect and exchanges the code for
// credentials. Checks run in order and each failure is terminal. The CSRF
// and PKCE cookies are single-use: they are consumed on every path, so a
// replayed callback cannot reuse an earlier authorization attempt.
// Transition: AuthorizationPending -> Authenticated, or -> Anonymous on
// failure.
func (c *Controller) HandleCallback(ctx context.Context, jar cookie.Jar, code, state string) (cookie.Jar, error) {
	csrf, hasCSRF := c.cookies.CSRFToken(jar)
	verifier, hasVerifier := c.cookies.PKCEVerifier(jar)

	jar = c.cookies.RemoveCSRFToken(jar)
	jar = c.cookies.RemovePKCEVerifier(jar)

	if !hasCSRF || csrf == "" {
		return jar, ErrMissingCSRF
	}
	if csrf != state {
		return jar, ErrCSRFMismatch
	}
	if !hasVerifier || verifier == "" {
		return jar, ErrMissingPKCEVerifier
	}
	if code == "" {
		return jar, ErrMissingAuthorizationCode
	}

	cred, err := c.client.ExchangeCode(ctx, code, verifier)
	if err != nil {
		return jar, err
	}

	return c.storeCredential(jar, cred)
}

// CredentialForRequest returns the bearer token to inject into a proxied
// request, refreshing it first when the session is at or past its expiry.
// Absence of a token is not an error: the request proceeds unauthenticated.
func (c *Controller) CredentialForRequest(ctx context.Context, jar cookie.Jar) (cookie.Jar, string) {
	access, ok := c.cookies.GetAccessToken(jar)
	if !ok || access == "" {
		return jar, ""
	}

	refresh, ok := c.cookies.GetRefreshToken(jar)
	if !ok || refresh == "" {
		// No refresh possible, use what we have
		return jar, access
	}

	if !c.needsRefresh(jar) {
		return jar, access
	}

	cred, err := c.refreshCredential(ctx, refresh)
	if err != nil {
		var provErr *oauthclient.ProviderError
		if errors.As(err, &provErr) && provErr.Terminal() {
			// The grant is gone, only a fresh authorization can recover.
			log.LogWarnWithFields("flow", "Refresh token rejected, dropping session", map[string]any{
				"kind": string(provErr.Kind),
			})
			jar = c.cookies.RemoveAccessToken(jar)
			jar = c.cookies.RemoveRefreshToken(jar)
			jar = c.cookies.RemoveSession(jar)
			return jar, ""
		}

		// Transient failure: keep the cookies for a later attempt but fail
		// closed on injection rather than forwarding an expired token.
		log.LogWarnWithFields("flow", "Refresh failed, request proceeds unauthenticated", map[string]any{
			"error": err.Error(),
		})
		return jar, ""
	}

	jar = c.cookies.SetAccessToken(jar, cred.AccessToken)
	if cred.RefreshToken != "" && cred.RefreshToken != refresh {
		jar = c.cookies.SetRefreshToken(jar, cred.RefreshToken)
	}

	jar, err = c.storeSession(jar, cred)
	if err != nil {
		log.LogErrorWithFields("flow", "Failed to re-issue session after refresh", map[string]any{
			"error": err.Error(),
		})
	}
	return jar, cred.AccessToken
}

// GetSession decodes the session cookie. A malformed or expired cookie is
// removed and reported as no session, never as an error.
func (c *Controller) GetSession(jar cookie.Jar) (cookie.Jar, *session.Record) {
	encoded, ok := c.cookies.GetSession(jar)
	if !ok {
		return jar, nil
	}

	record, err := session.Decode(encoded)
	if err != nil {
		log.LogDebugWithFields("flow", "Discarding undecodable session cookie", map[string]any{
			"error": err.Error(),
		})
		return c.cookies.RemoveSession(jar), nil
	}
	if record.IsExpired() {
		return c.cookies.RemoveSession(jar), nil
	}

	return jar, &record
}

// Logout clears every credential cookie.
// Transition: any state -> Anonymous.
func (c *Controller) Logout(jar cookie.Jar) cookie.Jar {
	return c.cookies.Clear(jar)
}

// needsRefresh reports whether the cached access token should be replaced
// before use. Without a decodable session record the token's age is
// unknown, so refresh. A session without expiry never triggers one.
func (c *Controller) needsRefresh(jar cookie.Jar) bool {
	encoded, ok := c.cookies.GetSession(jar)
	if !ok {
		return true
	}
	record, err := session.Decode(encoded)
	if err != nil {
		return true
	}
	if record.ExpiresAt == nil {
		return false
	}
	return !record.ExpiresAt.After(c.now().Add(refreshSkew))
}

// refreshCredential performs the refresh grant, collapsing concurrent
// attempts for the same refresh token into one provider call.
func (c *Controller) refreshCredential(ctx context.Context, refreshToken string) (*oauthclient.Credential, error) {
	sum := sha256.Sum256([]byte(refreshToken))
	key := hex.EncodeToString(sum[:])

	v, err, _ := c.refreshGroup.Do(key, func() (any, error) {
		return c.client.Refresh(ctx, refreshToken)
	})
	if err != nil {
		return nil, err
	}
	return v.(*oauthclient.Credential), nil
}

// storeCredential writes the exchanged credential into the jar: access
// token always, refresh token only when the provider returned one, and a
// fresh session record carrying the token expiry.
func (c *Controller) storeCredential(jar cookie.Jar, cred *oauthclient.Credential) (cookie.Jar, error) {
	jar = c.cookies.SetAccessToken(jar, cred.AccessToken)
	if cred.RefreshToken != "" {
		jar = c.cookies.SetRefreshToken(jar, cred.RefreshToken)
	} else {
		jar = c.cookies.RemoveRefreshToken(jar)
	}

	return c.storeSession(jar, cred)
}

func (c *Controller) storeSession(jar cookie.Jar, cred *oauthclient.Credential) (cookie.Jar, error) {
	var expiresAt *time.Time
	if !cred.Expiry.IsZero() {
		e := cred.Expiry.UTC().Truncate(time.Second)
		expiresAt = &e
	}

	record, err := session.New(expiresAt)
	if err != nil {
		return jar, err
	}
	encoded, err := record.Encode()
	if err != nil {
		return jar, err
	}
	return c.cookies.SetSession(jar, encoded), nil
}
