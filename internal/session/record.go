package session

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/auth-front/auth-front/internal/crypto"
)

// ErrDecode reports a session cookie that could not be decoded. Callers
// treat it as "no valid session", never as a failure of the request.
var ErrDecode = errors.New("malformed session cookie")

// Record is the value stored in the session cookie. It is never mutated in
// place: a new record replaces the old one at each token exchange.
type Record struct {
	ID        string     `json:"id"`
	IssuedAt  time.Time  `json:"iat"`
	ExpiresAt *time.Time `json:"exp,omitempty"`
}

// New mints a record with a fresh random identifier, issued now. expiresAt
// may be nil for sessions without an expiry.
func New(expiresAt *time.Time) (Record, error) {
	id, err := crypto.GenerateSessionID()
	if err != nil {
		return Record{}, fmt.Errorf("generating session id: %w", err)
	}

	now := time.Now().UTC().Truncate(time.Second)
	if expiresAt != nil && expiresAt.Before(now) {
		return Record{}, fmt.Errorf("session expiry %v precedes issuance", expiresAt)
	}

	return Record{ID: id, IssuedAt: now, ExpiresAt: expiresAt}, nil
}

// IsExpired reports whether the record has an expiry strictly in the past.
// Records without an expiry never expire.
func (r Record) IsExpired() bool {
	return r.ExpiresAt != nil && r.ExpiresAt.Before(time.Now())
}

// Encode serializes the record for cookie transport: compact JSON wrapped
// in standard base64.
func (r Record) Encode() (string, error) {
	data, err := json.Marshal(r)
	if err != nil {
		return "", fmt.Errorf("encoding session: %w", err)
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// Decode parses an encoded session cookie value. Malformed base64 or JSON
// yields ErrDecode.
func Decode(encoded string) (Record, error) {
	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}

	var r Record
	if err := json.Unmarshal(data, &r); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if r.ID == "" || r.IssuedAt.IsZero() {
		return Record{}, fmt.Errorf("%w: missing id or issuance time", ErrDecode)
	}
	if r.ExpiresAt != nil && r.ExpiresAt.Before(r.IssuedAt) {
		return Record{}, fmt.Errorf("%w: expiry precedes issuance", ErrDecode)
	}

	return r, nil
}
