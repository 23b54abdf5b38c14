// Package auth signs the cookie that identifies a browser session.
//
// The cookie only carries a session ID. Everything else a browser session
// owns (the backend token, the signed-in user) lives in session storage
// scoped by that ID.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or expired session cookie")
	ErrMissingToken = errors.New("session cookie required")
)

// SessionManager issues and validates session cookies.
type SessionManager struct {
	secretKey []byte
	lifetime  time.Duration
	now       func() time.Time
}

// Claims are the claims of a session cookie.
type Claims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// NewSessionManager creates a SessionManager signing with secretKey.
// lifetime is how long a cookie stays valid (e.g., 24 hours).
func NewSessionManager(secretKey string, lifetime time.Duration) *SessionManager {
	return &SessionManager{
		secretKey: []byte(secretKey),
		lifetime:  lifetime,
		now:       time.Now,
	}
}

// Lifetime returns how long an issued cookie stays valid.
func (m *SessionManager) Lifetime() time.Duration {
	return m.lifetime
}

// NewSessionID returns a fresh random session ID.
func NewSessionID() string {
	return uuid.NewString()
}

// Issue signs a cookie value for sessionID.
func (m *SessionManager) Issue(sessionID string) (string, error) {
	if _, err := uuid.Parse(sessionID); err != nil {
		return "", fmt.Errorf("invalid session id %q: %w", sessionID, err)
	}

	now := m.now()
	claims := &Claims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.lifetime)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(m.secretKey)
	if err != nil {
		return "", fmt.Errorf("failed to sign session cookie: %w", err)
	}
	return tokenString, nil
}

// Validate parses a cookie value and returns its claims if the signature,
// the validity window and the session ID all check out.
func (m *SessionManager) Validate(tokenString string) (*Claims, error) {
	if tokenString == "" {
		return nil, ErrMissingToken
	}

	token, err := jwt.ParseWithClaims(
		tokenString,
		&Claims{},
		func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return m.secretKey, nil
		},
		jwt.WithTimeFunc(m.now),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if _, err := uuid.Parse(claims.SessionID); err != nil {
		return nil, fmt.Errorf("%w: bad session id", ErrInvalidToken)
	}
	return claims, nil
}
