package cookie

import "net/http"

// Jar is an immutable snapshot of a request's cookies plus the mutations
// accumulated while handling that request. Set and Remove return a new Jar;
// callers thread the returned value through subsequent operations and write
// the final Jar to the response. Only the delta is emitted as Set-Cookie
// headers, the untouched cookies stay as the browser sent them.
type Jar struct {
	values  map[string]string
	changes map[string]*http.Cookie
}

// NewJar returns an empty jar, useful for tests and for requests that
// carried no Cookie header.
func NewJar() Jar {
	return Jar{}
}

// FromRequest snapshots the cookies of an incoming request
func FromRequest(r *http.Request) Jar {
	cookies := r.Cookies()
	if len(cookies) == 0 {
		return Jar{}
	}

	values := make(map[string]string, len(cookies))
	for _, c := range cookies {
		values[c.Name] = c.Value
	}
	return Jar{values: values}
}

// Get returns the current value of a cookie, reflecting any Set or Remove
// applied to this jar since it was created.
func (j Jar) Get(name string) (string, bool) {
	v, ok := j.values[name]
	return v, ok
}

// Set returns a new jar with the cookie written under the given policy
func (j Jar) Set(p Policy, value string) Jar {
	next := j.clone()
	next.values[p.Name] = value
	next.changes[p.Name] = p.newCookie(value)
	return next
}

// Remove returns a new jar with the cookie deleted. The removal is recorded
// even when the cookie was absent, so a stale browser copy is cleared too.
func (j Jar) Remove(p Policy) Jar {
	next := j.clone()
	delete(next.values, p.Name)
	next.changes[p.Name] = p.expiredCookie()
	return next
}

// Write emits the accumulated mutations as Set-Cookie headers
func (j Jar) Write(w http.ResponseWriter) {
	for _, c := range j.changes {
		http.SetCookie(w, c)
	}
}

// Changed reports whether this jar carries any pending Set-Cookie headers
func (j Jar) Changed() bool {
	return len(j.changes) > 0
}

func (j Jar) clone() Jar {
	next := Jar{
		values:  make(map[string]string, len(j.values)+1),
		changes: make(map[string]*http.Cookie, len(j.changes)+1),
	}
	for k, v := range j.values {
		next.values[k] = v
	}
	for k, v := range j.changes {
		next.changes[k] = v
	}
	return next
}
