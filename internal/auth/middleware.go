package auth

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sakif/scoreboard/internal/apperror"
)

// contextKey is an unexported type used for context keys in this package.
// Only this package can create a key of this type, so nothing else can read
// or shadow the account ID stored under it.
type contextKey string

const accountIDKey contextKey = "accountID"

// Authenticator resolves a raw bearer token to an existing account ID.
//
// Implementations return an error wrapping apperror.ErrUnauthenticated when
// the token is bad or its account no longer exists. Any other error is
// treated as an internal failure.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (int64, error)
}

// RequireAuth is a middleware that enforces authentication on protected routes.
//
// It reads the "Authorization: Bearer <token>" header, hands the token to
// authn, and stores the resulting account ID in the request context. A
// missing or malformed header, an invalid token and a deleted account all
// produce the same 401 body. A storage failure produces a 500.
//
// Chi applies middlewares in a chain: req → M1 → M2 → Handler → M2 → M1 → resp
func RequireAuth(authn Authenticator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, err := BearerToken(r.Header.Get("Authorization"))
			if err != nil {
				logger.Debug("rejected request", slog.String("reason", err.Error()))
				writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "Missing or invalid authorization header")
				return
			}

			accountID, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				if errors.Is(err, apperror.ErrUnauthenticated) {
					logger.Debug("rejected token", slog.String("error", err.Error()))
					writeAuthError(w, http.StatusUnauthorized, "unauthenticated", "Invalid or expired token")
					return
				}
				logger.Error("failed to authenticate request", slog.String("error", err.Error()))
				writeAuthError(w, http.StatusInternalServerError, "internal_error", "An internal error occurred")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithAccountID(r.Context(), accountID)))
		})
	}
}

// BearerToken extracts the credential from an Authorization header value.
//
// The value must split on a single space into exactly two parts, the first
// being "Bearer" and the second non-empty. "Bearer  x", "Bearer" and
// "Basic x" are all rejected.
func BearerToken(header string) (string, error) {
	if header == "" {
		return "", errors.New("missing authorization header")
	}
	parts := strings.Split(header, " ")
	if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
		return "", errors.New("malformed authorization header")
	}
	return parts[1], nil
}

// WithAccountID returns a copy of ctx carrying the authenticated account ID.
func WithAccountID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, accountIDKey, id)
}

// AccountIDFromContext retrieves the authenticated account's ID.
//
// Returns (0, false) when RequireAuth did not run for this request.
//
//	accountID, ok := auth.AccountIDFromContext(r.Context())
func AccountIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(accountIDKey).(int64)
	return id, ok && id > 0
}

func writeAuthError(w http.ResponseWriter, status int, kind, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{
		"error":   kind,
		"message": message,
	})
}
