package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/DanielTrujilloS/DafaMedicSistema/repository"
	"github.com/DanielTrujilloS/DafaMedicSistema/utils"
)

var ErrInvalidCredentials = errors.New("invalid credentials")

type AuthService struct {
	users    repository.UserRepository
	sessions *utils.SessionIssuer
}

func NewAuthService(users repository.UserRepository, sessions *utils.SessionIssuer) *AuthService {
	return &AuthService{users: users, sessions: sessions}
}

// Login returns a signed session token. Unknown emails, inactive accounts and
// wrong passwords all yield ErrInvalidCredentials.
func (a *AuthService) Login(ctx context.Context, email, password string) (string, error) {
	u, err := a.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return "", ErrInvalidCredentials
	}
	if err != nil {
		return "", err
	}
	if !u.IsActive {
		return "", ErrInvalidCredentials
	}
	if err := bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	token, err := a.sessions.Sign(utils.SessionPayload{Sub: u.ID, Email: u.Email, Role: u.Role})
	if err != nil {
		return "", fmt.Errorf("failed to issue session: %w", err)
	}
	return token, nil
}

func (a *AuthService) Verify(token string) (utils.SessionPayload, error) {
	return a.sessions.Verify(token)
}
