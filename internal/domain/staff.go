package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for onboarding operations.
var (
	ErrStaffProfileNotFound = errors.New("staff profile not found")
	ErrWeakCredential       = errors.New("password does not meet the policy")
)

// OnboardingState tracks a staff member's progress from invited to active.
type OnboardingState string

const (
	OnboardingInvited        OnboardingState = "invited"
	OnboardingProfileDrafted OnboardingState = "profile_drafted"
	OnboardingActive         OnboardingState = "active"
	OnboardingExpired        OnboardingState = "expired"
	OnboardingRevoked        OnboardingState = "revoked"
)

// StaffProfile is created when an invite token is first redeemed.
// Setting credentials activates the account; ProfileComplete records
// whether the display fields were ever filled in.
// swagger:model StaffProfile
type StaffProfile struct {
	ID              string          `json:"id"`
	InvitationID    string          `json:"invitation_id"`
	CompanyID       string          `json:"company_id"`
	Email           string          `json:"email"`
	Name            string          `json:"name"`
	LastName        string          `json:"last_name"`
	JobTitle        string          `json:"job_title"`
	Phone           string          `json:"phone"`
	State           OnboardingState `json:"state"`
	ProfileComplete bool            `json:"profile_complete"`
	CredentialSet   bool            `json:"credential_set"`
	AccountID       string          `json:"-"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// ProfileFields is the display payload collected during onboarding.
// Field-level validation beyond trimming happens in the surrounding
// forms; the core only enforces the password policy.
type ProfileFields struct {
	Name     string `json:"name"`
	LastName string `json:"last_name"`
	JobTitle string `json:"job_title"`
	Phone    string `json:"phone"`
}

// StaffProfileRepository defines storage operations for staff profiles.
type StaffProfileRepository interface {
	Create(ctx context.Context, p *StaffProfile) error
	GetByID(ctx context.Context, id string) (*StaffProfile, error)
	GetByInvitationID(ctx context.Context, invitationID string) (*StaffProfile, error)
	Update(ctx context.Context, p *StaffProfile) error
}

// OnboardingService drives the staged conversion of an invitation into
// an active staff account. The welcome token returned by RedeemInvite
// scopes the remaining steps and is consumed only by SetCredentials, so
// profile and password can be completed in separate sessions.
type OnboardingService interface {
	RedeemInvite(ctx context.Context, tokenString string) (profile *StaffProfile, welcomeToken string, err error)
	SubmitProfile(ctx context.Context, welcomeToken string, fields ProfileFields) (*StaffProfile, error)
	SetCredentials(ctx context.Context, welcomeToken, password string) (*StaffProfile, error)
}
