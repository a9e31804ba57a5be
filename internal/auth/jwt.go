// Package auth provides password hashing, session tokens and the bearer
// authentication middleware for the scoreboard API.
//
// AUTHENTICATION FLOW OVERVIEW:
//  1. Client registers or logs in and receives a signed token
//  2. Client sends it back on every protected call as
//     "Authorization: Bearer <token>"
//  3. Middleware verifies the signature and expiry, confirms the account
//     still exists, and puts the account ID in the request context
//
// Tokens are stateless: nothing is stored server side, so a token stays
// valid until it expires. There is no revocation list.
//
// JWT STRUCTURE (three base64url parts separated by dots):
//
//	HEADER.PAYLOAD.SIGNATURE
//	- Header: {"alg":"HS256","typ":"JWT"}
//	- Payload: {"sub":"42","iat":...,"exp":...,"iss":"scoreboard","jti":"..."}
//	- Signature: HMAC-SHA256(header+"."+payload, secretKey)
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/xid"
)

// TokenTTL is how long an issued token stays valid.
const TokenTTL = 7 * 24 * time.Hour

// MinSecretLength is the shortest signing secret NewTokenService accepts.
const MinSecretLength = 16

const issuer = "scoreboard"

// ErrInvalidToken is the only error Verify returns to callers that check
// with errors.Is. Expired, tampered, wrongly signed and malformed tokens all
// wrap it; the wrapped text keeps the detail for server logs.
var ErrInvalidToken = errors.New("auth: invalid token")

// TokenService handles JWT creation and validation.
//
// It holds the HMAC secret used for both signing and verifying. The secret is
// passed in by whoever constructs the service; this package never reads the
// environment.
type TokenService struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

// TokenOption customises a TokenService.
type TokenOption func(*TokenService)

// WithClock replaces time.Now for both issuing and verifying.
func WithClock(now func() time.Time) TokenOption {
	return func(s *TokenService) { s.now = now }
}

// WithTTL overrides TokenTTL.
func WithTTL(ttl time.Duration) TokenOption {
	return func(s *TokenService) { s.ttl = ttl }
}

// NewTokenService creates a TokenService with the given secret.
// The secret should be at least 32 bytes of random data in production.
// Example: JWT_SECRET=$(openssl rand -hex 32)
func NewTokenService(secret string, opts ...TokenOption) (*TokenService, error) {
	if secret == "" {
		return nil, errors.New("auth: JWT secret is required")
	}
	if len(secret) < MinSecretLength {
		return nil, fmt.Errorf("auth: JWT secret must be at least %d characters", MinSecretLength)
	}
	s := &TokenService{
		secret: []byte(secret),
		ttl:    TokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// claims is the JWT payload. "sub" holds the account ID in decimal.
type claims struct {
	jwt.RegisteredClaims
}

// Issue creates and signs a token for the given account.
//
// Every token gets a random jti, so two tokens issued for the same account in
// the same second still differ.
func (s *TokenService) Issue(accountID int64) (string, error) {
	now := s.now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        xid.New().String(),
			Subject:   strconv.FormatInt(accountID, 10),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Verify parses and checks a token and returns the account ID it names.
//
// Checks performed:
//   - signature is valid HS256 under our secret (no "none", no RS/HS confusion)
//   - exp is present and in the future
//   - iss is ours
//   - sub is a positive integer
func (s *TokenService) Verify(tokenStr string) (int64, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return 0, fmt.Errorf("%w: expired", ErrInvalidToken)
		}
		return 0, fmt.Errorf("%w: %w", ErrInvalidToken, err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return 0, fmt.Errorf("%w: unexpected claims", ErrInvalidToken)
	}

	id, err := strconv.ParseInt(c.Subject, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: bad subject %q", ErrInvalidToken, c.Subject)
	}

	return id, nil
}
