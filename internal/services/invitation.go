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

type invitationService struct {
	invRepo      domain.InvitationRepository
	tokenRepo    domain.TokenRepository
	codec        domain.TokenCodec
	emailService domain.EmailService
	inviteTTL    time.Duration
	baseURL      string
}

// NewInvitationService creates an InvitationService with the given
// repositories, token codec, and email delivery.
func NewInvitationService(invRepo domain.InvitationRepository, tokenRepo domain.TokenRepository, codec domain.TokenCodec, emailService domain.EmailService, inviteTTL time.Duration, baseURL string) domain.InvitationService {
	return &invitationService{
		invRepo:      invRepo,
		tokenRepo:    tokenRepo,
		codec:        codec,
		emailService: emailService,
		inviteTTL:    inviteTTL,
		baseURL:      baseURL,
	}
}

func (s *invitationService) Invite(ctx context.Context, companyID, email string) (*domain.Invitation, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if !emailRegexp.MatchString(email) {
		return nil, fmt.Errorf("invalid email format")
	}

	if _, err := s.invRepo.FindPending(ctx, companyID, email); err == nil {
		return nil, domain.ErrDuplicateActiveInvite
	} else if !errors.Is(err, domain.ErrInvitationNotFound) {
		return nil, fmt.Errorf("failed to check existing invitations: %w", err)
	}

	invitationID := uuid.NewString()
	tokenString, token, err := s.codec.Issue(domain.TokenPurposeInvite, invitationID, s.inviteTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to issue invite token: %w", err)
	}
	if err := s.tokenRepo.Create(ctx, token); err != nil {
		return nil, fmt.Errorf("failed to store invite token: %w", err)
	}

	now := time.Now()
	inv := &domain.Invitation{
		ID:            invitationID,
		CompanyID:     companyID,
		Email:         email,
		Status:        domain.InvitationPending,
		InviteTokenID: token.ID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.invRepo.Create(ctx, inv); err != nil {
		// Two admins racing on the same email: the partial unique index
		// decides, and the loser's token is dead weight we clean up.
		if errors.Is(err, domain.ErrDuplicateActiveInvite) {
			_ = s.tokenRepo.Consume(ctx, token.ID)
			return nil, err
		}
		return nil, fmt.Errorf("failed to create invitation: %w", err)
	}

	if s.emailService != nil {
		data := &domain.StaffInviteEmailData{
			Email:         email,
			WelcomeURL:    s.baseURL + "/staff/welcome/" + tokenString,
			ExpiresInDays: int(s.inviteTTL.Hours() / 24),
		}
		if err := s.emailService.SendStaffInvite(ctx, data); err != nil {
			return nil, fmt.Errorf("failed to send invite email: %w", err)
		}
	}
	return inv, nil
}

func (s *invitationService) Revoke(ctx context.Context, invitationID string) error {
	inv, err := s.invRepo.GetByID(ctx, invitationID)
	if err != nil {
		return err
	}
	if inv.Status != domain.InvitationPending {
		return domain.ErrInvitationNotPending
	}
	if err := s.invRepo.UpdateStatus(ctx, inv.ID, domain.InvitationRevoked); err != nil {
		return fmt.Errorf("failed to revoke invitation: %w", err)
	}
	// Kill the outstanding link even inside its TTL. A token that was
	// already consumed or expired is equally dead, so those outcomes
	// are fine.
	if err := s.tokenRepo.Consume(ctx, inv.InviteTokenID); err != nil {
		if !errors.Is(err, domain.ErrTokenAlreadyUsed) && !errors.Is(err, domain.ErrTokenExpired) {
			return fmt.Errorf("failed to invalidate invite token: %w", err)
		}
	}
	return nil
}

func (s *invitationService) ListByCompany(ctx context.Context, companyID string) ([]*domain.Invitation, error) {
	invs, err := s.invRepo.ListByCompanyID(ctx, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list invitations: %w", err)
	}
	return invs, nil
}

func (s *invitationService) ExpireStale(ctx context.Context) (int64, error) {
	n, err := s.invRepo.MarkExpiredPending(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to expire stale invitations: %w", err)
	}
	return n, nil
}
