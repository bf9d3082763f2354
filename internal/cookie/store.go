package cookie

// Default cookie names for the five credential kinds
const (
	DefaultCSRFName         = "oauth_csrf"
	DefaultPKCEName         = "oauth_pkce"
	DefaultAccessTokenName  = "access_token"
	DefaultRefreshTokenName = "refresh_token"
	DefaultSessionName      = "session"
)

// Store binds each logical credential of the auth flow to exactly one named
// cookie with one policy. Every accessor goes through the jar so a handler
// composes cookie operations deterministically.
type Store struct {
	CSRF         Policy
	PKCE         Policy
	AccessToken  Policy
	RefreshToken Policy
	Session      Policy
}

func (s Store) CSRFToken(j Jar) (string, bool) { return j.Get(s.CSRF.Name) }

func (s Store) SetCSRFToken(j Jar, v string) Jar { return j.Set(s.CSRF, v) }

func (s Store) RemoveCSRFToken(j Jar) Jar { return j.Remove(s.CSRF) }

func (s Store) PKCEVerifier(j Jar) (string, bool) { return j.Get(s.PKCE.Name) }

func (s Store) SetPKCEVerifier(j Jar, v string) Jar { return j.Set(s.PKCE, v) }

func (s Store) RemovePKCEVerifier(j Jar) Jar { return j.Remove(s.PKCE) }

func (s Store) GetAccessToken(j Jar) (string, bool) { return j.Get(s.AccessToken.Name) }

func (s Store) SetAccessToken(j Jar, v string) Jar { return j.Set(s.AccessToken, v) }

func (s Store) RemoveAccessToken(j Jar) Jar { return j.Remove(s.AccessToken) }

func (s Store) GetRefreshToken(j Jar) (string, bool) { return j.Get(s.RefreshToken.Name) }

func (s Store) SetRefreshToken(j Jar, v string) Jar { return j.Set(s.RefreshToken, v) }

func (s Store) RemoveRefreshToken(j Jar) Jar { return j.Remove(s.RefreshToken) }

func (s Store) GetSession(j Jar) (string, bool) { return j.Get(s.Session.Name) }

func (s Store) SetSession(j Jar, v string) Jar { return j.Set(s.Session, v) }

func (s Store) RemoveSession(j Jar) Jar { return j.Remove(s.Session) }

// Clear removes every credential cookie, used on logout
func (s Store) Clear(j Jar) Jar {
	j = j.Remove(s.CSRF)
	j = j.Remove(s.PKCE)
	j = j.Remove(s.AccessToken)
	j = j.Remove(s.RefreshToken)
	j = j.Remove(s.Session)
	return j
}
