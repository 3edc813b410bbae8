package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/lib/pq"

	"erpcore/internal/domain"
)

type invitationRepository struct {
	DB *sql.DB
}

// NewInvitationRepository returns a domain.InvitationRepository implemented with Postgres.
// A partial unique index on (company_id, email) WHERE status = 'pending'
// backs the one-live-invite rule; unique violations map to
// ErrDuplicateActiveInvite.
func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{DB: db}
}

func (r *invitationRepository) Create(ctx context.Context, inv *domain.Invitation) error {
	query := `
		INSERT INTO invitations (id, company_id, email, status, invite_token_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := r.DB.ExecContext(ctx, query, inv.ID, inv.CompanyID, inv.Email, inv.Status, inv.InviteTokenID, inv.CreatedAt, inv.UpdatedAt)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return domain.ErrDuplicateActiveInvite
		}
		return err
	}
	return nil
}

func (r *invitationRepository) GetByID(ctx context.Context, id string) (*domain.Invitation, error) {
	query := `
		SELECT id, company_id, email, status, invite_token_id, created_at, updated_at
		FROM invitations
		WHERE id = $1
	`
	inv := &domain.Invitation{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&inv.ID, &inv.CompanyID, &inv.Email, &inv.Status, &inv.InviteTokenID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) FindPending(ctx context.Context, companyID, email string) (*domain.Invitation, error) {
	query := `
		SELECT id, company_id, email, status, invite_token_id, created_at, updated_at
		FROM invitations
		WHERE company_id = $1 AND email = $2 AND status = 'pending'
		LIMIT 1
	`
	inv := &domain.Invitation{}
	err := r.DB.QueryRowContext(ctx, query, companyID, email).Scan(&inv.ID, &inv.CompanyID, &inv.Email, &inv.Status, &inv.InviteTokenID, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrInvitationNotFound
		}
		return nil, err
	}
	return inv, nil
}

func (r *invitationRepository) UpdateStatus(ctx context.Context, id string, status domain.InvitationStatus) error {
	query := `
		UPDATE invitations
		SET status = $2, updated_at = NOW()
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query, id, status)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrInvitationNotFound
	}
	return nil
}

func (r *invitationRepository) ListByCompanyID(ctx context.Context, companyID string) ([]*domain.Invitation, error) {
	query := `
		SELECT id, company_id, email, status, invite_token_id, created_at, updated_at
		FROM invitations
		WHERE company_id = $1
		ORDER BY created_at DESC
	`
	rows, err := r.DB.QueryContext(ctx, query, companyID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var invs []*domain.Invitation
	for rows.Next() {
		inv := &domain.Invitation{}
		if err := rows.Scan(&inv.ID, &inv.CompanyID, &inv.Email, &inv.Status, &inv.InviteTokenID, &inv.CreatedAt, &inv.UpdatedAt); err != nil {
			return nil, err
		}
		invs = append(invs, inv)
	}
	return invs, rows.Err()
}

func (r *invitationRepository) MarkExpiredPending(ctx context.Context) (int64, error) {
	query := `
		UPDATE invitations i
		SET status = 'expired', updated_at = NOW()
		FROM tokens t
		WHERE i.invite_token_id = t.id
		  AND i.status = 'pending'
		  AND t.consumed_at IS NULL
		  AND t.expires_at <= NOW()
	`
	res, err := r.DB.ExecContext(ctx, query)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
