package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"erpcore/internal/domain"
)

type authService struct {
	userRepo      domain.UserRepository
	provider      domain.IdentityProvider
	tokenIssuer   domain.TokenIssuer
	sessionExpiry time.Duration
}

// NewAuthService creates an AuthService that verifies credentials
// against the identity provider and issues session JWTs.
func NewAuthService(userRepo domain.UserRepository, provider domain.IdentityProvider, tokenIssuer domain.TokenIssuer, sessionExpiry time.Duration) domain.AuthService {
	return &authService{
		userRepo:      userRepo,
		provider:      provider,
		tokenIssuer:   tokenIssuer,
		sessionExpiry: sessionExpiry,
	}
}

func (s *authService) Login(ctx context.Context, email, password string) (string, *domain.User, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	// Every failure reads the same to the caller; which part rejected
	// the attempt is not disclosed.
	if _, err := s.provider.VerifyPassword(ctx, email, password); err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return "", nil, fmt.Errorf("invalid credentials")
	}
	token, err := s.tokenIssuer.Issue(user.ID, user.Email, user.Role, s.sessionExpiry)
	if err != nil {
		return "", nil, fmt.Errorf("failed to sign token: %w", err)
	}
	return token, user, nil
}
