package postgres

import (
	"context"
	"database/sql"
	"errors"

	"erpcore/internal/domain"
)

type resetRequestRepository struct {
	DB *sql.DB
}

// NewResetRequestRepository returns a domain.PasswordResetRequestRepository implemented with Postgres.
func NewResetRequestRepository(db *sql.DB) domain.PasswordResetRequestRepository {
	return &resetRequestRepository{DB: db}
}

func (r *resetRequestRepository) Create(ctx context.Context, req *domain.PasswordResetRequest) error {
	query := `
		INSERT INTO password_reset_requests (id, user_id, token_id, requested_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := r.DB.ExecContext(ctx, query, req.ID, req.UserID, req.TokenID, req.RequestedAt)
	return err
}

// GetLiveByUserID returns the user's open reset request whose token is
// still redeemable, or nil when there is none. At most one such row
// exists because a new request supersedes the old one.
func (r *resetRequestRepository) GetLiveByUserID(ctx context.Context, userID string) (*domain.PasswordResetRequest, error) {
	query := `
		SELECT r.id, r.user_id, r.token_id, r.requested_at, r.closed_at
		FROM password_reset_requests r
		INNER JOIN tokens t ON t.id = r.token_id
		WHERE r.user_id = $1 AND r.closed_at IS NULL
		  AND t.consumed_at IS NULL AND t.expires_at > NOW()
		ORDER BY r.requested_at DESC
		LIMIT 1
	`
	req := &domain.PasswordResetRequest{}
	err := r.DB.QueryRowContext(ctx, query, userID).Scan(&req.ID, &req.UserID, &req.TokenID, &req.RequestedAt, &req.ClosedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

func (r *resetRequestRepository) CloseByTokenID(ctx context.Context, tokenID string) error {
	query := `
		UPDATE password_reset_requests
		SET closed_at = NOW()
		WHERE token_id = $1 AND closed_at IS NULL
	`
	_, err := r.DB.ExecContext(ctx, query, tokenID)
	return err
}
