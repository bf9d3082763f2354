package flow

// ErrorKind identifies which ordered callback check failed
type ErrorKind string

const (
	KindMissingCSRF  ErrorKind = "missing_csrf"
	KindCSRFMismatch ErrorKind = "csrf_mismatch"
	KindMissingPKCE  ErrorKind = "missing_pkce_verifier"
	KindMissingCode  ErrorKind = "missing_authorization_code"
)

// Error is a terminal callback failure. Message is safe to show to the
// browser via the error redirect.
type Error struct {
	Kind    ErrorKind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

var (
	ErrMissingCSRF              = &Error{Kind: KindMissingCSRF, Message: "CSRF token not found"}
	ErrCSRFMismatch             = &Error{Kind: KindCSRFMismatch, Message: "CSRF token mismatch"}
	ErrMissingPKCEVerifier      = &Error{Kind: KindMissingPKCE, Message: "PKCE verifier not found"}
	ErrMissingAuthorizationCode = &Error{Kind: KindMissingCode, Message: "Authorization code not found"}
)
