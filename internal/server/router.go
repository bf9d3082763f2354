package server

import (
	"net/http"
)

// NewRouter wires the authentication endpoints, health check, and the
// fallback upstream proxy into one handler.
func NewRouter(authHandlers *AuthHandlers, proxy *UpstreamProxy, allowedOrigins []string) http.Handler {
	middlewares := []MiddlewareFunc{
		NewCORSMiddleware(allowedOrigins),
		NewLoggerMiddleware("http"),
		NewRecoverMiddleware("http"),
	}

	mux := http.NewServeMux()
	mux.Handle("/health", NewHealthHandler())
	mux.HandleFunc("/oauth/authorize", authHandlers.AuthorizeHandler)
	mux.HandleFunc("/oauth/callback", authHandlers.CallbackHandler)
	mux.HandleFunc("/oauth/logout", authHandlers.LogoutHandler)
	mux.HandleFunc("/oauth/introspect", authHandlers.IntrospectHandler)
	mux.HandleFunc("/session", authHandlers.SessionHandler)
	mux.Handle("/", proxy)

	return ChainMiddleware(mux, middlewares...)
}
