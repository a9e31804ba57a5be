package auth_test

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/scoreboard/internal/apperror"
	"github.com/sakif/scoreboard/internal/auth"
)

// stubAuthenticator maps tokens to results.
type stubAuthenticator struct {
	ids  map[string]int64
	errs map[string]error
}

func (s stubAuthenticator) Authenticate(_ context.Context, token string) (int64, error) {
	if err, ok := s.errs[token]; ok {
		return 0, err
	}
	if id, ok := s.ids[token]; ok {
		return id, nil
	}
	return 0, apperror.Unauthenticated("Invalid token")
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func protected(authn auth.Authenticator) http.Handler {
	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.AccountIDFromContext(r.Context())
		if !ok {
			w.WriteHeader(http.StatusTeapot)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]int64{"id": id})
	})
	return auth.RequireAuth(authn, discardLogger())(next)
}

func TestRequireAuth(t *testing.T) {
	authn := stubAuthenticator{
		ids:  map[string]int64{"good": 7},
		errs: map[string]error{"boom": errors.New("database is closed")},
	}

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{"valid token", "Bearer good", http.StatusOK, ""},
		{"missing header", "", http.StatusUnauthorized, "unauthenticated"},
		{"wrong scheme", "Basic good", http.StatusUnauthorized, "unauthenticated"},
		{"lowercase scheme", "bearer good", http.StatusUnauthorized, "unauthenticated"},
		{"scheme only", "Bearer", http.StatusUnauthorized, "unauthenticated"},
		{"empty credential", "Bearer ", http.StatusUnauthorized, "unauthenticated"},
		{"double space", "Bearer  good", http.StatusUnauthorized, "unauthenticated"},
		{"extra part", "Bearer good extra", http.StatusUnauthorized, "unauthenticated"},
		{"unknown token", "Bearer nope", http.StatusUnauthorized, "unauthenticated"},
		{"store failure", "Bearer boom", http.StatusInternalServerError, "internal_error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			protected(authn).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				var body map[string]int64
				require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
				assert.Equal(t, int64(7), body["id"])
				return
			}
			var body map[string]string
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body["error"])
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestRequireAuth_SameBodyForEveryRejectedToken(t *testing.T) {
	authn := stubAuthenticator{
		errs: map[string]error{
			"expired": apperror.Unauthenticated("token expired"),
			"deleted": apperror.Unauthenticated("account gone"),
		},
	}

	bodyFor := func(token string) string {
		req := httptest.NewRequest(http.MethodGet, "/auth/me", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		protected(authn).ServeHTTP(rec, req)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		return rec.Body.String()
	}

	assert.Equal(t, bodyFor("expired"), bodyFor("deleted"))
	assert.Equal(t, bodyFor("expired"), bodyFor("never-issued"))
}

func TestBearerToken(t *testing.T) {
	tok, err := auth.BearerToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	_, err = auth.BearerToken("Token abc")
	assert.Error(t, err)
}

func TestAccountIDFromContext_Empty(t *testing.T) {
	_, ok := auth.AccountIDFromContext(context.Background())
	assert.False(t, ok)

	id, ok := auth.AccountIDFromContext(auth.WithAccountID(context.Background(), 11))
	assert.True(t, ok)
	assert.Equal(t, int64(11), id)
}
