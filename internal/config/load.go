package config

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"

	"github.com/auth-front/auth-front/internal/cookie"
	"github.com/auth-front/auth-front/internal/urlutil"
)

// Load loads and processes the config with immediate env var resolution
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config file: %w", err)
	}

	// The custom UnmarshalJSON methods resolve env var references immediately
	var config Config
	if err := json.Unmarshal(data, &config); err != nil {
		return Config{}, fmt.Errorf("parsing config: %w", err)
	}

	if err := applyDefaults(&config); err != nil {
		return Config{}, err
	}

	if err := ValidateConfig(&config); err != nil {
		return Config{}, fmt.Errorf("config validation failed: %w", err)
	}

	return config, nil
}

func applyDefaults(config *Config) error {
	if config.Server.BaseURL == "" {
		return nil
	}

	if config.OAuth.RedirectURI == "" {
		redirectURI, err := urlutil.JoinPath(config.Server.BaseURL, "oauth", "callback")
		if err != nil {
			return fmt.Errorf("deriving redirectUri from baseURL: %w", err)
		}
		config.OAuth.RedirectURI = redirectURI
	}

	if config.Server.ErrorURL == "" {
		config.Server.ErrorURL = config.Server.BaseURL
	}

	return nil
}

// ValidateConfig validates the resolved configuration
func ValidateConfig(config *Config) error {
	if config.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if config.Server.BaseURL == "" {
		return fmt.Errorf("server.baseURL is required")
	}
	if _, err := url.Parse(config.Server.BaseURL); err != nil {
		return fmt.Errorf("server.baseURL is not a valid URL: %w", err)
	}

	if err := validateOAuth(&config.OAuth); err != nil {
		return fmt.Errorf("oauth config: %w", err)
	}

	if err := validateCookies(&config.Cookies); err != nil {
		return fmt.Errorf("cookies config: %w", err)
	}

	if config.Upstream.URL == "" {
		return fmt.Errorf("upstream.url is required")
	}
	u, err := url.Parse(config.Upstream.URL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("upstream.url must be an absolute URL, got %q", config.Upstream.URL)
	}
	if config.Upstream.Timeout < 0 {
		return fmt.Errorf("upstream.timeout cannot be negative")
	}

	return nil
}

func validateOAuth(oauth *OAuthConfig) error {
	if oauth.ClientID == "" {
		return fmt.Errorf("clientId is required")
	}

	hasIssuer := oauth.Issuer != ""
	hasEndpoints := oauth.AuthorizationEndpoint != "" || oauth.TokenEndpoint != ""
	switch {
	case hasIssuer && hasEndpoints:
		return fmt.Errorf("issuer and explicit endpoints are mutually exclusive")
	case !hasIssuer && !hasEndpoints:
		return fmt.Errorf("either issuer or authorizationEndpoint+tokenEndpoint is required")
	case !hasIssuer:
		if oauth.AuthorizationEndpoint == "" {
			return fmt.Errorf("authorizationEndpoint is required when no issuer is set")
		}
		if oauth.TokenEndpoint == "" {
			return fmt.Errorf("tokenEndpoint is required when no issuer is set")
		}
	}

	if oauth.RedirectURI == "" {
		return fmt.Errorf("redirectUri is required")
	}

	return nil
}

func validateCookies(cookies *CookiesConfig) error {
	for _, c := range []struct {
		section string
		cfg     CookiePolicyConfig
	}{
		{"csrf", cookies.CSRF},
		{"pkce", cookies.PKCE},
		{"accessToken", cookies.AccessToken},
		{"refreshToken", cookies.RefreshToken},
		{"session", cookies.Session},
	} {
		sameSite, err := cookie.ParseSameSite(c.cfg.SameSite)
		if err != nil {
			return fmt.Errorf("%s: %w", c.section, err)
		}
		// Browsers reject SameSite=None cookies without the Secure attribute
		if sameSite == http.SameSiteNoneMode && c.cfg.Secure != nil && !*c.cfg.Secure {
			return fmt.Errorf("%s: sameSite=none requires secure=true", c.section)
		}
		if c.cfg.MaxAge < 0 {
			return fmt.Errorf("%s: maxAge cannot be negative", c.section)
		}
	}
	return nil
}
