package json

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteResponse(t *testing.T) {
	w := httptest.NewRecorder()

	err := WriteResponse(w, 201, map[string]string{"hello": "world"})
	require.NoError(t, err)

	assert.Equal(t, 201, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "world", body["hello"])
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name       string
		write      func(w *httptest.ResponseRecorder)
		wantStatus int
		wantError  string
	}{
		{
			name:       "unauthorized",
			write:      func(w *httptest.ResponseRecorder) { WriteUnauthorized(w, "nope") },
			wantStatus: 401,
			wantError:  "unauthorized",
		},
		{
			name:       "bad_request",
			write:      func(w *httptest.ResponseRecorder) { WriteBadRequest(w, "bad") },
			wantStatus: 400,
			wantError:  "bad_request",
		},
		{
			name:       "bad_gateway",
			write:      func(w *httptest.ResponseRecorder) { WriteBadGateway(w, "upstream down") },
			wantStatus: 502,
			wantError:  "bad_gateway",
		},
		{
			name:       "internal",
			write:      func(w *httptest.ResponseRecorder) { WriteInternalServerError(w, "boom") },
			wantStatus: 500,
			wantError:  "internal_server_error",
		},
		{
			name:       "not_found",
			write:      func(w *httptest.ResponseRecorder) { WriteNotFound(w, "missing") },
			wantStatus: 404,
			wantError:  "not_found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.write(w)

			assert.Equal(t, tt.wantStatus, w.Code)

			var resp ErrorResponse
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp.Error)
			assert.NotEmpty(t, resp.Message)
		})
	}
}
