package config

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/auth-front/auth-front/internal/cookie"
)

// Secret is a string type that redacts itself when printed
type Secret string

// String implements fmt.Stringer to redact the secret
func (s Secret) String() string {
	if s == "" {
		return ""
	}
	return "***"
}

// MarshalJSON implements json.Marshaler to prevent secrets in JSON logs
func (s Secret) MarshalJSON() ([]byte, error) {
	if s == "" {
		return json.Marshal("")
	}
	return json.Marshal("***")
}

// ServerConfig is the listening surface of the proxy
type ServerConfig struct {
	Addr           string   `json:"addr"`
	BaseURL        string   `json:"baseURL"`
	ErrorURL       string   `json:"errorURL,omitempty"`
	AllowedOrigins []string `json:"allowedOrigins,omitempty"`
}

// OAuthConfig holds the provider registration with resolved values.
// Either an issuer for metadata discovery or explicit endpoints must
// be given, never both.
type OAuthConfig struct {
	ClientIDRaw     json.RawMessage `json:"clientId"`
	ClientSecretRaw json.RawMessage `json:"clientSecret,omitempty"`

	Issuer                string   `json:"issuer,omitempty"`
	AuthorizationEndpoint string   `json:"authorizationEndpoint,omitempty"`
	TokenEndpoint         string   `json:"tokenEndpoint,omitempty"`
	IntrospectionEndpoint string   `json:"introspectionEndpoint,omitempty"`
	RedirectURI           string   `json:"redirectUri,omitempty"`
	DefaultScopes         []string `json:"defaultScopes,omitempty"`

	// Computed fields
	ClientID     string `json:"-"`
	ClientSecret Secret `json:"-"`
}

// CookiePolicyConfig is the serialized form of one cookie policy
type CookiePolicyConfig struct {
	Name     string        `json:"name,omitempty"`
	Domain   string        `json:"domain,omitempty"`
	Path     string        `json:"path,omitempty"`
	Secure   *bool         `json:"secure,omitempty"`
	HTTPOnly *bool         `json:"httpOnly,omitempty"`
	SameSite string        `json:"sameSite,omitempty"`
	MaxAge   time.Duration `json:"-"`

	MaxAgeRaw string `json:"maxAge,omitempty"`
}

// CookiesConfig configures the five credential cookies
type CookiesConfig struct {
	CSRF         CookiePolicyConfig `json:"csrf,omitempty"`
	PKCE         CookiePolicyConfig `json:"pkce,omitempty"`
	AccessToken  CookiePolicyConfig `json:"accessToken,omitempty"`
	RefreshToken CookiePolicyConfig `json:"refreshToken,omitempty"`
	Session      CookiePolicyConfig `json:"session,omitempty"`
}

// UpstreamConfig describes the service requests are forwarded to
type UpstreamConfig struct {
	URL     string        `json:"url"`
	Timeout time.Duration `json:"-"`

	TimeoutRaw string `json:"timeout,omitempty"`
}

// Config represents the config structure with resolved values
type Config struct {
	Server   ServerConfig   `json:"server"`
	OAuth    OAuthConfig    `json:"oauth"`
	Cookies  CookiesConfig  `json:"cookies,omitempty"`
	Upstream UpstreamConfig `json:"upstream"`
}

// ParseConfigValue parses a JSON value that is either a plain string or an
// environment variable reference.
//
// Environment variable references use {"$env": "VAR_NAME"} syntax and are
// resolved at config load time. The explicit JSON syntax was chosen over
// bash-like $VAR substitution: config files travel through shell contexts
// (startup scripts, CI pipelines) where $VAR could be expanded before the
// config is ever parsed, and a value containing $ is never re-expanded.
func ParseConfigValue(raw json.RawMessage) (string, error) {
	// Try plain string first
	var str string
	if err := json.Unmarshal(raw, &str); err == nil {
		return str, nil
	}

	var ref map[string]string
	if err := json.Unmarshal(raw, &ref); err != nil {
		return "", fmt.Errorf("config value must be string or reference object")
	}

	envVar, ok := ref["$env"]
	if !ok {
		return "", fmt.Errorf("unknown reference type in config value")
	}

	value := os.Getenv(envVar)
	if value == "" {
		return "", fmt.Errorf("environment variable %s not set", envVar)
	}
	// Strip surrounding quotes if present (only matching pairs)
	if len(value) >= 2 {
		if (value[0] == '"' && value[len(value)-1] == '"') ||
			(value[0] == '\'' && value[len(value)-1] == '\'') {
			value = value[1 : len(value)-1]
		}
	}
	return value, nil
}

// UnmarshalJSON implements custom unmarshaling for OAuthConfig
func (o *OAuthConfig) UnmarshalJSON(data []byte) error {
	// Use type alias to avoid recursion
	type rawOAuth OAuthConfig
	var raw rawOAuth
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*o = OAuthConfig(raw)

	if o.ClientIDRaw != nil {
		value, err := ParseConfigValue(o.ClientIDRaw)
		if err != nil {
			return fmt.Errorf("parsing clientId: %w", err)
		}
		o.ClientID = value
	}

	if o.ClientSecretRaw != nil {
		value, err := ParseConfigValue(o.ClientSecretRaw)
		if err != nil {
			return fmt.Errorf("parsing clientSecret: %w", err)
		}
		o.ClientSecret = Secret(value)
	}

	return nil
}

// UnmarshalJSON implements custom unmarshaling for CookiePolicyConfig
func (c *CookiePolicyConfig) UnmarshalJSON(data []byte) error {
	type rawPolicy CookiePolicyConfig
	var raw rawPolicy
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = CookiePolicyConfig(raw)

	if c.MaxAgeRaw != "" {
		maxAge, err := time.ParseDuration(c.MaxAgeRaw)
		if err != nil {
			return fmt.Errorf("parsing maxAge: %w", err)
		}
		c.MaxAge = maxAge
	}

	return nil
}

// UnmarshalJSON implements custom unmarshaling for UpstreamConfig
func (u *UpstreamConfig) UnmarshalJSON(data []byte) error {
	type rawUpstream UpstreamConfig
	var raw rawUpstream
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*u = UpstreamConfig(raw)

	if u.TimeoutRaw != "" {
		timeout, err := time.ParseDuration(u.TimeoutRaw)
		if err != nil {
			return fmt.Errorf("parsing timeout: %w", err)
		}
		u.Timeout = timeout
	}

	return nil
}

// policy converts one cookie config into a runtime policy, filling the
// defaults the config omitted.
func (c CookiePolicyConfig) policy(defaultName string) (cookie.Policy, error) {
	p := cookie.Policy{
		Name:     c.Name,
		Domain:   c.Domain,
		Path:     c.Path,
		Secure:   true,
		HTTPOnly: true,
		MaxAge:   c.MaxAge,
	}
	if p.Name == "" {
		p.Name = defaultName
	}
	if p.Path == "" {
		p.Path = "/"
	}
	if c.Secure != nil {
		p.Secure = *c.Secure
	}
	if c.HTTPOnly != nil {
		p.HTTPOnly = *c.HTTPOnly
	}

	sameSite, err := cookie.ParseSameSite(c.SameSite)
	if err != nil {
		return cookie.Policy{}, fmt.Errorf("cookie %s: %w", p.Name, err)
	}
	p.SameSite = sameSite

	return p, nil
}

// Store builds the runtime cookie store from the cookie section
func (c CookiesConfig) Store() (cookie.Store, error) {
	var store cookie.Store
	var err error

	if store.CSRF, err = c.CSRF.policy(cookie.DefaultCSRFName); err != nil {
		return cookie.Store{}, err
	}
	if store.PKCE, err = c.PKCE.policy(cookie.DefaultPKCEName); err != nil {
		return cookie.Store{}, err
	}
	if store.AccessToken, err = c.AccessToken.policy(cookie.DefaultAccessTokenName); err != nil {
		return cookie.Store{}, err
	}
	if store.RefreshToken, err = c.RefreshToken.policy(cookie.DefaultRefreshTokenName); err != nil {
		return cookie.Store{}, err
	}
	if store.Session, err = c.Session.policy(cookie.DefaultSessionName); err != nil {
		return cookie.Store{}, err
	}

	return store, nil
}
