package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"erpcore/internal/domain"
)

type onboardingService struct {
	tokenRepo   domain.TokenRepository
	codec       domain.TokenCodec
	profileRepo domain.StaffProfileRepository
	invRepo     domain.InvitationRepository
	userRepo    domain.UserRepository
	provider    domain.IdentityProvider
	welcomeTTL  time.Duration
}

// NewOnboardingService creates the OnboardingService that drives a
// staff member from invited to active.
func NewOnboardingService(tokenRepo domain.TokenRepository, codec domain.TokenCodec, profileRepo domain.StaffProfileRepository, invRepo domain.InvitationRepository, userRepo domain.UserRepository, provider domain.IdentityProvider, welcomeTTL time.Duration) domain.OnboardingService {
	return &onboardingService{
		tokenRepo:   tokenRepo,
		codec:       codec,
		profileRepo: profileRepo,
		invRepo:     invRepo,
		userRepo:    userRepo,
		provider:    provider,
		welcomeTTL:  welcomeTTL,
	}
}

func (s *onboardingService) RedeemInvite(ctx context.Context, tokenString string) (*domain.StaffProfile, string, error) {
	dec, err := s.codec.Decode(tokenString)
	if err != nil {
		return nil, "", err
	}
	if dec.Purpose != domain.TokenPurposeInvite {
		return nil, "", domain.ErrTokenInvalid
	}
	// Consume first: of two near-simultaneous redemptions exactly one
	// passes this point.
	if err := s.tokenRepo.Consume(ctx, dec.ID); err != nil {
		return nil, "", err
	}

	inv, err := s.invRepo.GetByID(ctx, dec.SubjectID)
	if err != nil {
		return nil, "", err
	}

	now := time.Now()
	profile := &domain.StaffProfile{
		ID:           uuid.NewString(),
		InvitationID: inv.ID,
		CompanyID:    inv.CompanyID,
		Email:        inv.Email,
		State:        domain.OnboardingProfileDrafted,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.profileRepo.Create(ctx, profile); err != nil {
		return nil, "", fmt.Errorf("failed to create staff profile: %w", err)
	}

	// The welcome token scopes the remaining onboarding requests to
	// this profile, so an unrelated session cannot write to it.
	welcomeString, welcomeToken, err := s.codec.Issue(domain.TokenPurposeWelcome, profile.ID, s.welcomeTTL)
	if err != nil {
		return nil, "", fmt.Errorf("failed to issue welcome token: %w", err)
	}
	if err := s.tokenRepo.Create(ctx, welcomeToken); err != nil {
		return nil, "", fmt.Errorf("failed to store welcome token: %w", err)
	}
	return profile, welcomeString, nil
}

func (s *onboardingService) SubmitProfile(ctx context.Context, welcomeToken string, fields domain.ProfileFields) (*domain.StaffProfile, error) {
	profile, dec, err := s.profileForWelcomeToken(ctx, welcomeToken)
	if err != nil {
		return nil, err
	}
	// Lookup only, no consume: profile completion may span several
	// requests before the password step.
	if err := s.tokenRepo.CheckLive(ctx, dec.ID); err != nil {
		return nil, err
	}

	profile.Name = strings.TrimSpace(fields.Name)
	profile.LastName = strings.TrimSpace(fields.LastName)
	profile.JobTitle = strings.TrimSpace(fields.JobTitle)
	profile.Phone = strings.TrimSpace(fields.Phone)
	profile.ProfileComplete = true
	profile.UpdatedAt = time.Now()
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update staff profile: %w", err)
	}
	return profile, nil
}

func (s *onboardingService) SetCredentials(ctx context.Context, welcomeToken, password string) (*domain.StaffProfile, error) {
	profile, dec, err := s.profileForWelcomeToken(ctx, welcomeToken)
	if err != nil {
		return nil, err
	}
	// Policy check before consuming: a weak password must leave the
	// welcome token live so the user can retry.
	if err := validatePassword(password); err != nil {
		return nil, err
	}
	// Final use of the welcome token.
	if err := s.tokenRepo.Consume(ctx, dec.ID); err != nil {
		return nil, err
	}

	var accountID string
	err = callProvider(ctx, func() error {
		var perr error
		accountID, perr = s.provider.CreateAccount(ctx, profile.Email, password)
		return perr
	})
	if err != nil {
		if errors.Is(err, domain.ErrIdentityProviderUnavailable) {
			// The token is already consumed and is not resurrected; the
			// user needs a fresh invitation link.
			return nil, fmt.Errorf("%w: account creation did not complete, request a new invitation link", err)
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	// Setting credentials activates the account even when the display
	// fields were never filled in; they stay empty and can be edited by
	// an admin later. Anything else would leave the welcome token spent
	// with no way to finish.
	profile.AccountID = accountID
	profile.CredentialSet = true
	profile.State = domain.OnboardingActive
	profile.UpdatedAt = time.Now()
	if err := s.profileRepo.Update(ctx, profile); err != nil {
		return nil, fmt.Errorf("failed to update staff profile: %w", err)
	}

	if err := s.invRepo.UpdateStatus(ctx, profile.InvitationID, domain.InvitationAccepted); err != nil {
		return nil, fmt.Errorf("failed to accept invitation: %w", err)
	}

	now := time.Now()
	user := &domain.User{
		Email:     profile.Email,
		Name:      profile.Name,
		LastName:  profile.LastName,
		CompanyID: profile.CompanyID,
		Role:      "staff",
		AccountID: accountID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}
	return profile, nil
}

func (s *onboardingService) profileForWelcomeToken(ctx context.Context, welcomeToken string) (*domain.StaffProfile, *domain.DecodedToken, error) {
	dec, err := s.codec.Decode(welcomeToken)
	if err != nil {
		return nil, nil, err
	}
	if dec.Purpose != domain.TokenPurposeWelcome {
		return nil, nil, domain.ErrTokenInvalid
	}
	profile, err := s.profileRepo.GetByID(ctx, dec.SubjectID)
	if err != nil {
		return nil, nil, err
	}
	return profile, dec, nil
}
