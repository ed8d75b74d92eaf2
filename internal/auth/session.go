package auth

import (
	"crypto/ed25519"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenIssuer mints and verifies signed session tokens. The core keys
// sessions on opaque uuids; these JWTs exist so an external presentation
// layer can carry a login across process boundaries.
type TokenIssuer struct {
	priv ed25519.PrivateKey
	pub  ed25519.PublicKey
	ttl  time.Duration
}

// NewTokenIssuer generates a fresh ed25519 key pair. ttl of zero means tokens
// never expire.
func NewTokenIssuer(ttl time.Duration) (*TokenIssuer, error) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		return nil, fmt.Errorf("generate ed25519 key pair: %w", err)
	}
	return &TokenIssuer{priv: priv, pub: pub, ttl: ttl}, nil
}

// NewTokenIssuerFromKeys uses an existing key pair so tokens survive process
// restarts.
func NewTokenIssuerFromKeys(priv ed25519.PrivateKey, pub ed25519.PublicKey, ttl time.Duration) *TokenIssuer {
	return &TokenIssuer{priv: priv, pub: pub, ttl: ttl}
}

// Mint signs a token with "sub" set to the user id.
func (ti *TokenIssuer) Mint(userID int64) (string, error) {
	claims := jwt.MapClaims{
		"sub": strconv.FormatInt(userID, 10),
	}
	if ti.ttl > 0 {
		claims["exp"] = time.Now().Add(ti.ttl).Unix()
	}
	token := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims)
	return token.SignedString(ti.priv)
}

// Verify checks the signature and expiry and returns the user id carried in
// "sub".
func (ti *TokenIssuer) Verify(tokenString string) (int64, error) {
	t, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodEd25519); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return ti.pub, nil
	})
	if err != nil {
		return 0, fmt.Errorf("jwt parse error: %w", err)
	}
	if !t.Valid {
		return 0, fmt.Errorf("invalid token")
	}

	claims, ok := t.Claims.(jwt.MapClaims)
	if !ok {
		return 0, fmt.Errorf("invalid jwt claims")
	}
	sub, ok := claims["sub"].(string)
	if !ok {
		return 0, fmt.Errorf("missing sub in jwt")
	}
	id, err := strconv.ParseInt(sub, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed sub in jwt: %w", err)
	}
	return id, nil
}
