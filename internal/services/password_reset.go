package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"erpcore/internal/domain"
)

type passwordResetService struct {
	userRepo     domain.UserRepository
	tokenRepo    domain.TokenRepository
	codec        domain.TokenCodec
	resetRepo    domain.PasswordResetRequestRepository
	provider     domain.IdentityProvider
	emailService domain.EmailService
	resetTTL     time.Duration
	baseURL      string
	logger       *slog.Logger
}

// NewPasswordResetService creates the forgot-password flow for existing users.
func NewPasswordResetService(userRepo domain.UserRepository, tokenRepo domain.TokenRepository, codec domain.TokenCodec, resetRepo domain.PasswordResetRequestRepository, provider domain.IdentityProvider, emailService domain.EmailService, resetTTL time.Duration, baseURL string, logger *slog.Logger) domain.PasswordResetService {
	return &passwordResetService{
		userRepo:     userRepo,
		tokenRepo:    tokenRepo,
		codec:        codec,
		resetRepo:    resetRepo,
		provider:     provider,
		emailService: emailService,
		resetTTL:     resetTTL,
		baseURL:      baseURL,
		logger:       logger,
	}
}

func (s *passwordResetService) RequestReset(ctx context.Context, email string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		// Same outward response as an unknown address.
		return nil
	}
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Report success regardless, so callers cannot probe which
			// emails have accounts. No token is created.
			s.logger.DebugContext(ctx, "reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}

	// A newer request supersedes the old one: at most one live reset
	// token per user.
	if live, err := s.resetRepo.GetLiveByUserID(ctx, user.ID); err != nil {
		return fmt.Errorf("failed to check live reset requests: %w", err)
	} else if live != nil {
		if err := s.tokenRepo.Consume(ctx, live.TokenID); err != nil &&
			!errors.Is(err, domain.ErrTokenAlreadyUsed) && !errors.Is(err, domain.ErrTokenExpired) {
			return fmt.Errorf("failed to invalidate previous reset token: %w", err)
		}
		if err := s.resetRepo.CloseByTokenID(ctx, live.TokenID); err != nil {
			return fmt.Errorf("failed to close previous reset request: %w", err)
		}
	}

	tokenString, token, err := s.codec.Issue(domain.TokenPurposePasswordReset, user.ID, s.resetTTL)
	if err != nil {
		return fmt.Errorf("failed to issue reset token: %w", err)
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}
	if err := s.resetRepo.Create(ctx, &domain.PasswordResetRequest{
		ID:          uuid.NewString(),
		UserID:      user.ID,
		TokenID:     token.ID,
		RequestedAt: time.Now(),
	}); err != nil {
		return fmt.Errorf("failed to create reset request: %w", err)
	}

	if s.emailService != nil {
		data := &domain.PasswordResetEmailData{
			Email:          email,
			ResetURL:       s.baseURL + "/password-reset/" + tokenString,
			ExpiresInHours: int(s.resetTTL.Hours()),
		}
		if err := s.emailService.SendPasswordReset(ctx, data); err != nil {
			return fmt.Errorf("failed to send reset email: %w", err)
		}
	}
	return nil
}

func (s *passwordResetService) ResetPassword(ctx context.Context, tokenString, newPassword string) error {
	dec, err := s.codec.Decode(tokenString)
	if err != nil {
		return err
	}
	if dec.Purpose != domain.TokenPurposePasswordReset {
		return domain.ErrTokenInvalid
	}
	// Policy check before consuming: a weak password leaves the token
	// live for a retry with a stronger one.
	if err := validatePassword(newPassword); err != nil {
		return err
	}
	if err := s.tokenRepo.Consume(ctx, dec.ID); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, dec.SubjectID)
	if err != nil {
		return err
	}

	err = callProvider(ctx, func() error {
		return s.provider.UpdatePassword(ctx, user.AccountID, newPassword)
	})
	if err != nil {
		if errors.Is(err, domain.ErrIdentityProviderUnavailable) {
			// Token already consumed; the user must request a fresh link.
			return fmt.Errorf("%w: password update did not complete, request a new reset link", err)
		}
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.resetRepo.CloseByTokenID(ctx, dec.ID); err != nil {
		return fmt.Errorf("failed to close reset request: %w", err)
	}
	return nil
}
