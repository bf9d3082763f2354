package cookie

import (
	"fmt"
	"net/http"
	"time"
)

// Policy describes how a single named cookie is written: its scope,
// transport security, and script visibility. A Policy with SameSite=None
// must also set Secure; config validation enforces this before a Policy
// ever reaches a Jar.
type Policy struct {
	Name     string
	Domain   string
	Path     string
	Secure   bool
	HTTPOnly bool
	SameSite http.SameSite
	MaxAge   time.Duration // 0 means a session cookie
}

// ParseSameSite parses the config representation of a SameSite attribute
func ParseSameSite(s string) (http.SameSite, error) {
	switch s {
	case "lax", "":
		return http.SameSiteLaxMode, nil
	case "strict":
		return http.SameSiteStrictMode, nil
	case "none":
		return http.SameSiteNoneMode, nil
	default:
		return 0, fmt.Errorf("invalid sameSite value: %q", s)
	}
}

func (p Policy) path() string {
	if p.Path == "" {
		return "/"
	}
	return p.Path
}

// newCookie builds the Set-Cookie representation of a value under this policy
func (p Policy) newCookie(value string) *http.Cookie {
	c := &http.Cookie{
		Name:     p.Name,
		Value:    value,
		Domain:   p.Domain,
		Path:     p.path(),
		Secure:   p.Secure,
		HttpOnly: p.HTTPOnly,
		SameSite: p.SameSite,
	}
	if p.MaxAge > 0 {
		c.MaxAge = int(p.MaxAge.Seconds())
	}
	return c
}

// expiredCookie builds the Set-Cookie that removes this cookie from the browser
func (p Policy) expiredCookie() *http.Cookie {
	return &http.Cookie{
		Name:   p.Name,
		Value:  "",
		Domain: p.Domain,
		Path:   p.path(),
		MaxAge: -1,
	}
}
