// Package token issues and verifies the bearer tokens handed out at login.
// Tokens are HS256-signed, carry the user ID as subject, and live for one
// hour unless configured otherwise.
package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
)

var (
	ErrMissingSecret = errors.New("token: signing secret is not configured")
	ErrInvalidToken  = errors.New("token: invalid token")
)

// Manager signs and verifies bearer tokens with a server-held secret.
type Manager struct {
	secret   []byte
	issuer   string
	lifetime time.Duration
}

// NewManager fails closed: without a secret no token can be issued or
// verified.
func NewManager(secret string, issuer string, lifetime time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, ErrMissingSecret
	}
	if lifetime <= 0 {
		lifetime = time.Hour
	}
	return &Manager{
		secret:   []byte(secret),
		issuer:   issuer,
		lifetime: lifetime,
	}, nil
}

// Lifetime returns the configured token validity duration.
func (m *Manager) Lifetime() time.Duration {
	return m.lifetime
}

// Issue mints a token for the given user at the given instant. The returned
// token ID doubles as the session identifier.
func (m *Manager) Issue(userID string, now time.Time) (signed string, tokenID string, err error) {
	if now.IsZero() {
		now = time.Now()
	}
	tokenID = uuid.NewString()

	claims := jwt.RegisteredClaims{
		ID:        tokenID,
		Subject:   userID,
		Issuer:    m.issuer,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
	}

	signed, err = jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", "", err
	}
	return signed, tokenID, nil
}

// Verify checks signature and expiry and returns the subject user ID along
// with the token ID, which keys the server-side session mirror.
func (m *Manager) Verify(signed string) (userID string, tokenID string, err error) {
	claims := &jwt.RegisteredClaims{}
	parsed, err := jwt.ParseWithClaims(signed, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		return "", "", err
	}
	if !parsed.Valid || claims.Subject == "" {
		return "", "", ErrInvalidToken
	}
	return claims.Subject, claims.ID, nil
}
