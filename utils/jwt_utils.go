package utils

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/DanielTrujilloS/DafaMedicSistema/models"
)

var ErrInvalidSession = errors.New("invalid session")

// SessionPayload is the identity carried by a session token.
type SessionPayload struct {
	Sub   string      `json:"sub"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
}

type sessionClaims struct {
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.RegisteredClaims
}

// SessionIssuer signs and verifies HS256 session tokens. Tokens are not
// tracked server-side, so a leaked token stays valid until it expires.
type SessionIssuer struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewSessionIssuer(secret string, ttl time.Duration) (*SessionIssuer, error) {
	if secret == "" {
		return nil, errors.New("session secret is empty")
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &SessionIssuer{secret: []byte(secret), ttl: ttl, now: time.Now}, nil
}

func (s *SessionIssuer) TTL() time.Duration { return s.ttl }

func (s *SessionIssuer) Sign(p SessionPayload) (string, error) {
	now := s.now()
	claims := sessionClaims{
		Email: p.Email,
		Role:  p.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   p.Sub,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session: %w", err)
	}
	return token, nil
}

func (s *SessionIssuer) Verify(tokenString string) (SessionPayload, error) {
	var claims sessionClaims
	_, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return SessionPayload{}, fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}
	if claims.Subject == "" {
		return SessionPayload{}, fmt.Errorf("%w: missing subject", ErrInvalidSession)
	}
	if claims.Role != models.RoleAdmin && claims.Role != models.RoleUser {
		return SessionPayload{}, fmt.Errorf("%w: unknown role %q", ErrInvalidSession, claims.Role)
	}
	return SessionPayload{Sub: claims.Subject, Email: claims.Email, Role: claims.Role}, nil
}
