package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for invitation operations.
var (
	ErrInvitationNotFound    = errors.New("invitation not found")
	ErrDuplicateActiveInvite = errors.New("a pending invitation already exists for this email")
	ErrInvitationNotPending  = errors.New("invitation is not pending")
)

// InvitationStatus is the lifecycle state of a staff invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationAccepted InvitationStatus = "accepted"
	InvitationExpired  InvitationStatus = "expired"
	InvitationRevoked  InvitationStatus = "revoked"
)

// Invitation represents an offer for a prospective staff member to join
// a company. Email is immutable once created; status moves to Accepted
// only through onboarding, or to Revoked/Expired administratively.
// swagger:model Invitation
type Invitation struct {
	ID            string           `json:"id"`
	CompanyID     string           `json:"company_id"`
	Email         string           `json:"email"`
	Status        InvitationStatus `json:"status"`
	InviteTokenID string           `json:"-"`
	CreatedAt     time.Time        `json:"created_at"`
	UpdatedAt     time.Time        `json:"updated_at"`
}

// InvitationRepository defines storage operations for invitations.
type InvitationRepository interface {
	Create(ctx context.Context, inv *Invitation) error
	GetByID(ctx context.Context, id string) (*Invitation, error)
	FindPending(ctx context.Context, companyID, email string) (*Invitation, error)
	UpdateStatus(ctx context.Context, id string, status InvitationStatus) error
	ListByCompanyID(ctx context.Context, companyID string) ([]*Invitation, error)
	// MarkExpiredPending flips pending invitations whose invite token has
	// passed its expiry and was never consumed. Returns the number updated.
	MarkExpiredPending(ctx context.Context) (int64, error)
}

// InvitationService defines the business logic for inviting staff.
type InvitationService interface {
	Invite(ctx context.Context, companyID, email string) (*Invitation, error)
	Revoke(ctx context.Context, invitationID string) error
	ListByCompany(ctx context.Context, companyID string) ([]*Invitation, error)
	ExpireStale(ctx context.Context) (int64, error)
}
