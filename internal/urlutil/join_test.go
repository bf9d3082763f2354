package urlutil

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinPath(t *testing.T) {
	tests := []struct {
		name  string
		base  string
		paths []string
		want  string
	}{
		{"simple", "https://example.com", []string{"oauth", "callback"}, "https://example.com/oauth/callback"},
		{"trailing slash on base", "https://example.com/", []string{"oauth/callback"}, "https://example.com/oauth/callback"},
		{"base with path", "https://example.com/app", []string{"session"}, "https://example.com/app/session"},
		{"trailing slash preserved", "https://example.com", []string{"api/"}, "https://example.com/api/"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := JoinPath(tt.base, tt.paths...)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestJoinPathInvalidBase(t *testing.T) {
	_, err := JoinPath("://not-a-url", "x")
	assert.Error(t, err)
}
