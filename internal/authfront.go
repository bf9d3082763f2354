package internal

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/auth-front/auth-front/internal/config"
	"github.com/auth-front/auth-front/internal/flow"
	"github.com/auth-front/auth-front/internal/log"
	"github.com/auth-front/auth-front/internal/oauthclient"
	"github.com/auth-front/auth-front/internal/server"
)

// AuthFront represents the complete authenticating proxy application
type AuthFront struct {
	config     config.Config
	httpServer *server.HTTPServer
}

// NewAuthFront creates the proxy application with all dependencies built
func NewAuthFront(ctx context.Context, cfg config.Config) (*AuthFront, error) {
	log.LogInfoWithFields("authfront", "Building authenticating proxy", map[string]any{
		"baseURL":  cfg.Server.BaseURL,
		"upstream": cfg.Upstream.URL,
	})

	client, err := buildOAuthClient(ctx, cfg.OAuth)
	if err != nil {
		return nil, fmt.Errorf("setting up OAuth client: %w", err)
	}

	cookieStore, err := cfg.Cookies.Store()
	if err != nil {
		return nil, fmt.Errorf("building cookie store: %w", err)
	}

	flowController := flow.NewController(client, cookieStore)
	authHandlers := server.NewAuthHandlers(flowController, client, cfg.Server.ErrorURL)

	proxy, err := server.NewUpstreamProxy(cfg.Upstream.URL, flowController, cfg.Upstream.Timeout)
	if err != nil {
		return nil, fmt.Errorf("setting up upstream proxy: %w", err)
	}

	router := server.NewRouter(authHandlers, proxy, cfg.Server.AllowedOrigins)

	return &AuthFront{
		config:     cfg,
		httpServer: server.NewHTTPServer(router, cfg.Server.Addr),
	}, nil
}

func buildOAuthClient(ctx context.Context, cfg config.OAuthConfig) (*oauthclient.Client, error) {
	clientConfig := oauthclient.Config{
		ClientID:              cfg.ClientID,
		ClientSecret:          string(cfg.ClientSecret),
		Issuer:                cfg.Issuer,
		AuthorizationEndpoint: cfg.AuthorizationEndpoint,
		TokenEndpoint:         cfg.TokenEndpoint,
		IntrospectionEndpoint: cfg.IntrospectionEndpoint,
		RedirectURI:           cfg.RedirectURI,
		DefaultScopes:         cfg.DefaultScopes,
	}

	if cfg.Issuer != "" {
		log.LogInfoWithFields("authfront", "Discovering provider endpoints", map[string]any{
			"issuer": cfg.Issuer,
		})
		return oauthclient.NewFromIssuer(ctx, clientConfig)
	}
	return oauthclient.New(clientConfig)
}

// Run starts the proxy and manages its lifecycle until a shutdown signal
func (a *AuthFront) Run() error {
	log.LogInfoWithFields("authfront", "Starting authenticating proxy", map[string]any{
		"addr": a.config.Server.Addr,
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Channel to signal errors that should trigger shutdown
	errChan := make(chan error, 1)

	go func() {
		if err := a.httpServer.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	var shutdownReason string
	select {
	case sig := <-sigChan:
		shutdownReason = fmt.Sprintf("signal %v", sig)
		log.LogInfoWithFields("authfront", "Received shutdown signal", map[string]any{
			"signal": sig.String(),
		})
	case err := <-errChan:
		shutdownReason = fmt.Sprintf("error: %v", err)
		log.LogErrorWithFields("authfront", "Shutting down due to error", map[string]any{
			"error": err.Error(),
		})
	case <-ctx.Done():
		shutdownReason = "context cancelled"
		log.LogInfoWithFields("authfront", "Context cancelled, shutting down", nil)
	}

	log.LogInfoWithFields("authfront", "Starting graceful shutdown", map[string]any{
		"reason":  shutdownReason,
		"timeout": "30s",
	})
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		log.LogErrorWithFields("authfront", "HTTP server shutdown error", map[string]any{
			"error": err.Error(),
		})
		return err
	}

	log.LogInfoWithFields("authfront", "Shutdown complete", map[string]any{
		"reason": shutdownReason,
	})
	return nil
}
