// bcrypt is slow on purpose, salts every hash with fresh randomness, and
// embeds both salt and cost in its output:
//
//	$2a$12$<22-char salt><31-char hash>
//	 ^   ^
//	 |   cost (12 rounds → 2^12 iterations)
//	 version
//
// So the stored string is all that is needed to verify a password later,
// even after the configured cost has been raised.

package auth

import (
	"errors"
	"fmt"
	"sync"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost is the bcrypt work factor used when none is configured.
// Roughly 250ms per hash on a modern server.
const DefaultCost = 12

// maxPasswordBytes is where bcrypt stops reading input.
const maxPasswordBytes = 72

var (
	// ErrPasswordTooLong is returned by Hash for input bcrypt would truncate.
	ErrPasswordTooLong = errors.New("auth: password must be 72 bytes or fewer")

	// ErrMalformedHash is returned by Verify when the stored value is not a
	// bcrypt hash. Callers should treat it as an internal error, never as a
	// wrong password.
	ErrMalformedHash = errors.New("auth: malformed password hash")
)

// dummyPassword is hashed once per service and used to burn the same amount
// of CPU on logins for accounts that do not exist.
const dummyPassword = "scoreboard-dummy-password"

// PasswordService provides bcrypt hashing and verification.
//
// It's a struct (not free functions) so that the cost can be injected;
// tests use bcrypt.MinCost (4) to keep each hash in the millisecond range.
type PasswordService struct {
	cost int

	dummyOnce sync.Once
	dummyHash []byte
}

// NewPasswordService creates a PasswordService with DefaultCost.
func NewPasswordService() *PasswordService {
	return &PasswordService{cost: DefaultCost}
}

// NewPasswordServiceWithCost creates a PasswordService with a custom cost.
// The cost must be within bcrypt's accepted range [4, 31].
func NewPasswordServiceWithCost(cost int) (*PasswordService, error) {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		return nil, fmt.Errorf("auth: bcrypt cost %d out of range [%d, %d]", cost, bcrypt.MinCost, bcrypt.MaxCost)
	}
	return &PasswordService{cost: cost}, nil
}

// Cost returns the work factor new hashes are created with.
func (p *PasswordService) Cost() int {
	return p.cost
}

// Hash hashes the given plaintext password with bcrypt.
//
// Returns ErrPasswordTooLong if the plaintext exceeds 72 bytes. bcrypt would
// silently ignore the tail, so two passwords sharing a 72-byte prefix would
// both verify.
func (p *PasswordService) Hash(plaintext string) (string, error) {
	if len(plaintext) > maxPasswordBytes {
		return "", ErrPasswordTooLong
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(plaintext), p.cost)
	if err != nil {
		return "", fmt.Errorf("auth: hashing password: %w", err)
	}

	return string(hashed), nil
}

// Verify checks whether a plaintext password matches a stored bcrypt hash.
//
// A mismatch is not an error: it returns (false, nil). A hash that bcrypt
// cannot decode returns (false, err) with err wrapping ErrMalformedHash.
//
// bcrypt.CompareHashAndPassword compares in constant time.
func (p *PasswordService) Verify(hash, plaintext string) (bool, error) {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(plaintext))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		return false, nil
	default:
		return false, fmt.Errorf("%w: %w", ErrMalformedHash, err)
	}
}

// VerifyDummy runs a full bcrypt comparison against a throwaway hash and
// discards the result. Login calls it when the identifier matched no
// account so that "no such user" and "wrong password" take equally long.
func (p *PasswordService) VerifyDummy(plaintext string) {
	p.dummyOnce.Do(func() {
		// GenerateFromPassword only fails for an out-of-range cost, which
		// the constructors already rule out.
		p.dummyHash, _ = bcrypt.GenerateFromPassword([]byte(dummyPassword), p.cost)
	})
	_ = bcrypt.CompareHashAndPassword(p.dummyHash, []byte(plaintext))
}
