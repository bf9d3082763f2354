package config

import (
	"net/http"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/auth-front/auth-front/internal/cookie"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad(t *testing.T) {
	t.Setenv("TEST_OAUTH_CLIENT_SECRET", "super-secret")

	path := writeConfig(t, `{
		"server": {
			"addr": ":8080",
			"baseURL": "https://proxy.example.com",
			"allowedOrigins": ["https://app.example.com"]
		},
		"oauth": {
			"clientId": "my-client",
			"clientSecret": {"$env": "TEST_OAUTH_CLIENT_SECRET"},
			"authorizationEndpoint": "https://provider.example.com/authorize",
			"tokenEndpoint": "https://provider.example.com/token",
			"defaultScopes": ["openid", "email"]
		},
		"cookies": {
			"accessToken": {"maxAge": "1h", "sameSite": "strict"}
		},
		"upstream": {
			"url": "http://localhost:3000",
			"timeout": "30s"
		}
	}`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, "my-client", cfg.OAuth.ClientID)
	assert.Equal(t, Secret("super-secret"), cfg.OAuth.ClientSecret)
	assert.Equal(t, []string{"openid", "email"}, cfg.OAuth.DefaultScopes)
	assert.Equal(t, 30*time.Second, cfg.Upstream.Timeout)

	// Defaults derived from baseURL
	assert.Equal(t, "https://proxy.example.com/oauth/callback", cfg.OAuth.RedirectURI)
	assert.Equal(t, "https://proxy.example.com", cfg.Server.ErrorURL)
}

func TestLoadMissingEnvVar(t *testing.T) {
	path := writeConfig(t, `{
		"server": {"addr": ":8080", "baseURL": "https://proxy.example.com"},
		"oauth": {
			"clientId": "my-client",
			"clientSecret": {"$env": "DEFINITELY_NOT_SET_ANYWHERE"},
			"authorizationEndpoint": "https://p/authorize",
			"tokenEndpoint": "https://p/token"
		},
		"upstream": {"url": "http://localhost:3000"}
	}`)

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DEFINITELY_NOT_SET_ANYWHERE")
}

func TestLoadFileMissing(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestValidateConfig(t *testing.T) {
	valid := func() Config {
		return Config{
			Server: ServerConfig{Addr: ":8080", BaseURL: "https://proxy.example.com"},
			OAuth: OAuthConfig{
				ClientID:              "client",
				AuthorizationEndpoint: "https://p/authorize",
				TokenEndpoint:         "https://p/token",
				RedirectURI:           "https://proxy.example.com/oauth/callback",
			},
			Upstream: UpstreamConfig{URL: "http://localhost:3000"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{"valid", func(c *Config) {}, ""},
		{"missing addr", func(c *Config) { c.Server.Addr = "" }, "server.addr"},
		{"missing baseURL", func(c *Config) { c.Server.BaseURL = "" }, "server.baseURL"},
		{"missing clientId", func(c *Config) { c.OAuth.ClientID = "" }, "clientId"},
		{
			"issuer and endpoints both set",
			func(c *Config) { c.OAuth.Issuer = "https://issuer.example.com" },
			"mutually exclusive",
		},
		{
			"neither issuer nor endpoints",
			func(c *Config) {
				c.OAuth.AuthorizationEndpoint = ""
				c.OAuth.TokenEndpoint = ""
			},
			"either issuer",
		},
		{
			"token endpoint missing",
			func(c *Config) { c.OAuth.TokenEndpoint = "" },
			"tokenEndpoint",
		},
		{"missing redirectUri", func(c *Config) { c.OAuth.RedirectURI = "" }, "redirectUri"},
		{"missing upstream", func(c *Config) { c.Upstream.URL = "" }, "upstream.url"},
		{"relative upstream", func(c *Config) { c.Upstream.URL = "/just-a-path" }, "absolute URL"},
		{
			"samesite none insecure",
			func(c *Config) {
				insecure := false
				c.Cookies.Session = CookiePolicyConfig{SameSite: "none", Secure: &insecure}
			},
			"requires secure",
		},
		{
			"bad samesite value",
			func(c *Config) { c.Cookies.CSRF = CookiePolicyConfig{SameSite: "bogus"} },
			"sameSite",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(&cfg)
			err := ValidateConfig(&cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestCookiesConfigStore(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		store, err := CookiesConfig{}.Store()
		require.NoError(t, err)

		assert.Equal(t, cookie.DefaultCSRFName, store.CSRF.Name)
		assert.Equal(t, cookie.DefaultSessionName, store.Session.Name)
		assert.Equal(t, "/", store.AccessToken.Path)
		assert.True(t, store.AccessToken.Secure)
		assert.True(t, store.AccessToken.HTTPOnly)
		assert.Equal(t, http.SameSiteLaxMode, store.AccessToken.SameSite)
	})

	t.Run("overrides", func(t *testing.T) {
		insecure := false
		cfg := CookiesConfig{
			AccessToken: CookiePolicyConfig{
				Name:     "at",
				Domain:   "example.com",
				Path:     "/app",
				Secure:   &insecure,
				SameSite: "strict",
				MaxAge:   time.Hour,
			},
		}

		store, err := cfg.Store()
		require.NoError(t, err)
		assert.Equal(t, "at", store.AccessToken.Name)
		assert.Equal(t, "example.com", store.AccessToken.Domain)
		assert.Equal(t, "/app", store.AccessToken.Path)
		assert.False(t, store.AccessToken.Secure)
		assert.Equal(t, http.SameSiteStrictMode, store.AccessToken.SameSite)
		assert.Equal(t, time.Hour, store.AccessToken.MaxAge)
	})
}

func TestSecretRedaction(t *testing.T) {
	s := Secret("hunter2")
	assert.Equal(t, "***", s.String())

	data, err := s.MarshalJSON()
	require.NoError(t, err)
	assert.Equal(t, `"***"`, string(data))

	assert.Equal(t, "", Secret("").String())
}
