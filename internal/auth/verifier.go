package auth

import (
	"errors"

	"github.com/modditech/moddi-social/internal/models"
)

// ErrNoMatch is returned when the email is unknown or the secret is wrong.
// Callers get the same error either way.
var ErrNoMatch = errors.New("no matching credentials")

// UserSource is the lookup a Verifier reads users from.
type UserSource interface {
	UserByEmail(email string) (*models.User, bool)
}

// Verifier implements the identity store's CredentialVerifier over argon2id
// hashes kept in the user record.
type Verifier struct {
	users UserSource
}

// NewVerifier binds a verifier to a user source.
func NewVerifier(users UserSource) *Verifier {
	return &Verifier{users: users}
}

// Verify returns the user whose stored credential matches, or ErrNoMatch.
func (v *Verifier) Verify(email, secret string) (*models.User, error) {
	u, ok := v.users.UserByEmail(email)
	if !ok {
		return nil, ErrNoMatch
	}
	match, err := CheckPassword(secret, u.Password)
	if err != nil || !match {
		return nil, ErrNoMatch
	}
	return u, nil
}
