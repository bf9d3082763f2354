package server

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/auth-front/auth-front/internal/cookie"
	"github.com/auth-front/auth-front/internal/flow"
	jsonwriter "github.com/auth-front/auth-front/internal/json"
	"github.com/auth-front/auth-front/internal/log"
	"github.com/auth-front/auth-front/internal/oauthclient"
	"github.com/auth-front/auth-front/internal/session"
)

// AuthHandlers exposes the browser-facing authentication endpoints
type AuthHandlers struct {
	flow     *flow.Controller
	client   *oauthclient.Client
	errorURL string
}

// NewAuthHandlers creates handlers for the authentication endpoints.
// errorURL is where the browser lands after a failed callback, with a
// human-readable message query parameter.
func NewAuthHandlers(flowController *flow.Controller, client *oauthclient.Client, errorURL string) *AuthHandlers {
	return &AuthHandlers{
		flow:     flowController,
		client:   client,
		errorURL: errorURL,
	}
}

// AuthorizeHandler starts the authorization code flow: it binds fresh CSRF
// and PKCE cookies to the browser and redirects it to the provider.
func (h *AuthHandlers) AuthorizeHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w, "Method not allowed")
		return
	}

	var scopes []string
	if scope := r.URL.Query().Get("scope"); scope != "" {
		scopes = strings.Fields(scope)
	}

	jar, authURL, err := h.flow.BeginAuthorization(cookie.FromRequest(r), scopes)
	if err != nil {
		log.LogErrorWithFields("auth", "Failed to build authorization request", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteInternalServerError(w, "Failed to start authorization")
		return
	}

	jar.Write(w)
	http.Redirect(w, r, authURL, http.StatusTemporaryRedirect)
}

// CallbackHandler completes the flow when the provider redirects back.
// Success lands the browser on /; any failure redirects to the error URL
// with a message. The single-use CSRF and PKCE cookies are cleared either
// way.
func (h *AuthHandlers) CallbackHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w, "Method not allowed")
		return
	}

	query := r.URL.Query()
	jar, err := h.flow.HandleCallback(r.Context(), cookie.FromRequest(r), query.Get("code"), query.Get("state"))
	jar.Write(w)

	if err != nil {
		message := callbackErrorMessage(err)
		log.LogWarnWithFields("auth", "Authorization callback failed", map[string]any{
			"error":   err.Error(),
			"message": message,
		})
		http.Redirect(w, r, h.errorRedirectURL(message), http.StatusTemporaryRedirect)
		return
	}

	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// SessionHandler reports the current session record, or null when the
// browser has none.
func (h *AuthHandlers) SessionHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w, "Method not allowed")
		return
	}

	jar, record := h.flow.GetSession(cookie.FromRequest(r))
	jar.Write(w)

	jsonwriter.WriteResponse(w, http.StatusOK, struct {
		Session *session.Record `json:"session"`
	}{Session: record})
}

// LogoutHandler clears every credential cookie and sends the browser home
func (h *AuthHandlers) LogoutHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w, "Method not allowed")
		return
	}

	jar := h.flow.Logout(cookie.FromRequest(r))
	jar.Write(w)
	http.Redirect(w, r, "/", http.StatusTemporaryRedirect)
}

// IntrospectHandler asks the provider about the browser's current access
// token. 404 when the provider has no introspection endpoint, 401 when
// there is no token or the provider reports it inactive.
func (h *AuthHandlers) IntrospectHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		jsonwriter.WriteMethodNotAllowed(w, "Method not allowed")
		return
	}

	if !h.client.SupportsIntrospection() {
		jsonwriter.WriteNotFound(w, "Introspection not supported")
		return
	}

	jar, token := h.flow.CredentialForRequest(r.Context(), cookie.FromRequest(r))
	jar.Write(w)
	if token == "" {
		jsonwriter.WriteUnauthorized(w, "Not authenticated")
		return
	}

	result, err := h.client.Introspect(r.Context(), token)
	if err != nil {
		log.LogErrorWithFields("auth", "Introspection failed", map[string]any{
			"error": err.Error(),
		})
		jsonwriter.WriteBadGateway(w, "Introspection failed")
		return
	}
	if !result.Active {
		jsonwriter.WriteUnauthorized(w, "Token is not active")
		return
	}

	jsonwriter.WriteResponse(w, http.StatusOK, result)
}

func (h *AuthHandlers) errorRedirectURL(message string) string {
	return h.errorURL + "?" + url.Values{"message": {message}}.Encode()
}

// callbackErrorMessage maps a callback failure to the message shown to the
// user, without leaking provider response bodies.
func callbackErrorMessage(err error) string {
	var flowErr *flow.Error
	if errors.As(err, &flowErr) {
		return flowErr.Message
	}

	var provErr *oauthclient.ProviderError
	if errors.As(err, &provErr) {
		return provErr.Message()
	}

	return "Authorization failed"
}
