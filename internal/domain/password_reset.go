package domain

import (
	"context"
	"time"
)

// PasswordResetRequest records a forgot-password request. At most one
// live request exists per user: a newer request supersedes the old one
// by consuming its token.
type PasswordResetRequest struct {
	ID          string     `json:"id"`
	UserID      string     `json:"user_id"`
	TokenID     string     `json:"-"`
	RequestedAt time.Time  `json:"requested_at"`
	ClosedAt    *time.Time `json:"closed_at,omitempty"`
}

// PasswordResetRequestRepository defines storage for reset requests.
type PasswordResetRequestRepository interface {
	Create(ctx context.Context, req *PasswordResetRequest) error
	GetLiveByUserID(ctx context.Context, userID string) (*PasswordResetRequest, error)
	CloseByTokenID(ctx context.Context, tokenID string) error
}

// PasswordResetService is the forgot-password flow for existing users.
// RequestReset always reports success so callers cannot probe which
// emails have accounts.
type PasswordResetService interface {
	RequestReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, tokenString, newPassword string) error
}
