package oauthclient

import (
	"context"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2"

	"github.com/auth-front/auth-front/internal/crypto"
)

// Config holds the registered client identity and the provider endpoints.
// Immutable after construction and shared read-only across all requests.
type Config struct {
	ClientID     string
	ClientSecret string

	// Issuer enables endpoint discovery from the provider's OIDC metadata
	// (optional if endpoints are provided directly).
	Issuer string

	AuthorizationEndpoint string
	TokenEndpoint         string
	IntrospectionEndpoint string

	RedirectURI   string
	DefaultScopes []string
}

// Client performs the provider-facing legs of the authorization code flow:
// authorization URL construction, code exchange, refresh, and best-effort
// introspection.
type Client struct {
	oauth    oauth2.Config
	scopes   []string
	clientID string
	secret   string

	introspectionEndpoint string
}

// AuthorizationRequest is the result of building an authorization redirect:
// the provider URL plus the two transient secrets the callback will verify.
type AuthorizationRequest struct {
	URL          string
	CSRFToken    string
	PKCEVerifier string
}

// Credential is the token material returned by the provider. It is owned by
// the browser's cookie jar, never stored server-side.
type Credential struct {
	AccessToken  string
	RefreshToken string
	Expiry       time.Time
}

// New creates a client from explicit endpoint configuration.
func New(cfg Config) (*Client, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("clientId is required")
	}
	if cfg.AuthorizationEndpoint == "" || cfg.TokenEndpoint == "" {
		return nil, fmt.Errorf("authorization and token endpoints are required")
	}

	return &Client{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       cfg.DefaultScopes,
			Endpoint: oauth2.Endpoint{
				AuthURL:  cfg.AuthorizationEndpoint,
				TokenURL: cfg.TokenEndpoint,
				// Client authentication goes in the request body
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		scopes:                cfg.DefaultScopes,
		clientID:              cfg.ClientID,
		secret:                cfg.ClientSecret,
		introspectionEndpoint: cfg.IntrospectionEndpoint,
	}, nil
}

// NewFromIssuer creates a client whose endpoints are resolved from the
// issuer's OIDC discovery metadata. Explicitly configured endpoints take
// precedence over discovered ones.
func NewFromIssuer(ctx context.Context, cfg Config) (*Client, error) {
	if cfg.Issuer == "" {
		return nil, fmt.Errorf("issuer is required for discovery")
	}

	provider, err := oidc.NewProvider(ctx, cfg.Issuer)
	if err != nil {
		return nil, fmt.Errorf("discovering provider %s: %w", cfg.Issuer, err)
	}

	endpoint := provider.Endpoint()
	if cfg.AuthorizationEndpoint == "" {
		cfg.AuthorizationEndpoint = endpoint.AuthURL
	}
	if cfg.TokenEndpoint == "" {
		cfg.TokenEndpoint = endpoint.TokenURL
	}
	if cfg.IntrospectionEndpoint == "" {
		var claims struct {
			IntrospectionEndpoint string `json:"introspection_endpoint"`
		}
		// Introspection support is optional, ignore metadata without it
		if err := provider.Claims(&claims); err == nil {
			cfg.IntrospectionEndpoint = claims.IntrospectionEndpoint
		}
	}

	return New(cfg)
}

// BuildAuthorizationRequest generates the CSRF token and PKCE verifier pair
// and builds the provider authorization URL carrying the requested scopes
// (falling back to the configured defaults), state, and SHA-256 PKCE
// challenge. Pure function of config plus randomness, no I/O.
func (c *Client) BuildAuthorizationRequest(scopes []string) (AuthorizationRequest, error) {
	state, err := crypto.GenerateSecureToken()
	if err != nil {
		return AuthorizationRequest{}, fmt.Errorf("generating state: %w", err)
	}
	verifier := oauth2.GenerateVerifier()

	conf := c.oauth
	if len(scopes) > 0 {
		conf.Scopes = scopes
	}

	return AuthorizationRequest{
		URL:          conf.AuthCodeURL(state, oauth2.S256ChallengeOption(verifier)),
		CSRFToken:    state,
		PKCEVerifier: verifier,
	}, nil
}

// ExchangeCode performs the authorization_code grant with the PKCE verifier
// attached. Provider rejections come back as a *ProviderError.
func (c *Client) ExchangeCode(ctx context.Context, code, pkceVerifier string) (*Credential, error) {
	token, err := c.oauth.Exchange(ctx, code, oauth2.VerifierOption(pkceVerifier))
	if err != nil {
		return nil, classify(opExchange, err)
	}
	return credentialFromToken(token), nil
}

// Refresh performs the refresh_token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Credential, error) {
	source := c.oauth.TokenSource(ctx, &oauth2.Token{RefreshToken: refreshToken})
	token, err := source.Token()
	if err != nil {
		return nil, classify(opRefresh, err)
	}
	return credentialFromToken(token), nil
}

func credentialFromToken(token *oauth2.Token) *Credential {
	return &Credential{
		AccessToken:  token.AccessToken,
		RefreshToken: token.RefreshToken,
		Expiry:       token.Expiry,
	}
}
