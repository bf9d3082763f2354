package session

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	record, err := New(nil)
	require.NoError(t, err)

	assert.Len(t, record.ID, 64)
	assert.False(t, record.IssuedAt.IsZero())
	assert.Nil(t, record.ExpiresAt)
	assert.False(t, record.IsExpired())

	// Identifiers are unique
	record2, err := New(nil)
	require.NoError(t, err)
	assert.NotEqual(t, record.ID, record2.ID)
}

func TestNewRejectsPastExpiry(t *testing.T) {
	past := time.Now().Add(-time.Hour)
	_, err := New(&past)
	assert.Error(t, err)
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	exp := time.Now().Add(time.Hour).UTC().Truncate(time.Second)

	tests := []struct {
		name      string
		expiresAt *time.Time
	}{
		{"with expiry", &exp},
		{"without expiry", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			record, err := New(tt.expiresAt)
			require.NoError(t, err)

			encoded, err := record.Encode()
			require.NoError(t, err)

			decoded, err := Decode(encoded)
			require.NoError(t, err)

			assert.Equal(t, record.ID, decoded.ID)
			assert.True(t, record.IssuedAt.Equal(decoded.IssuedAt))
			if tt.expiresAt == nil {
				assert.Nil(t, decoded.ExpiresAt)
			} else {
				require.NotNil(t, decoded.ExpiresAt)
				assert.True(t, tt.expiresAt.Equal(*decoded.ExpiresAt))
			}
		})
	}
}

func TestDecodeMalformed(t *testing.T) {
	valid, err := Record{ID: "abc", IssuedAt: time.Now()}.Encode()
	require.NoError(t, err)

	tests := []struct {
		name    string
		encoded string
	}{
		{"not base64", "!!!not-base64!!!"},
		{"base64 of garbage", base64.StdEncoding.EncodeToString([]byte("not json"))},
		{"truncated", valid[:len(valid)/2]},
		{"empty", ""},
		{"missing id", base64.StdEncoding.EncodeToString([]byte(`{"iat":"2025-01-01T00:00:00Z"}`))},
		{"expiry before issuance", base64.StdEncoding.EncodeToString(
			[]byte(`{"id":"x","iat":"2025-01-02T00:00:00Z","exp":"2025-01-01T00:00:00Z"}`))},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.encoded)
			assert.ErrorIs(t, err, ErrDecode)
		})
	}
}

func TestIsExpired(t *testing.T) {
	past := time.Now().Add(-time.Minute)
	future := time.Now().Add(time.Minute)

	assert.True(t, Record{ID: "a", IssuedAt: past, ExpiresAt: &past}.IsExpired())
	assert.False(t, Record{ID: "a", IssuedAt: past, ExpiresAt: &future}.IsExpired())
	assert.False(t, Record{ID: "a", IssuedAt: past}.IsExpired())
}
