package postgres

import (
	"context"
	"database/sql"
	"errors"

	"erpcore/internal/domain"
)

type staffProfileRepository struct {
	DB *sql.DB
}

// NewStaffProfileRepository returns a domain.StaffProfileRepository implemented with Postgres.
func NewStaffProfileRepository(db *sql.DB) domain.StaffProfileRepository {
	return &staffProfileRepository{DB: db}
}

const staffProfileColumns = `id, invitation_id, company_id, email, name, last_name, job_title, phone,
		state, profile_complete, credential_set, account_id, created_at, updated_at`

func (r *staffProfileRepository) Create(ctx context.Context, p *domain.StaffProfile) error {
	query := `
		INSERT INTO staff_profiles (id, invitation_id, company_id, email, name, last_name, job_title, phone,
			state, profile_complete, credential_set, account_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`
	_, err := r.DB.ExecContext(ctx, query,
		p.ID, p.InvitationID, p.CompanyID, p.Email, p.Name, p.LastName, p.JobTitle, p.Phone,
		p.State, p.ProfileComplete, p.CredentialSet, p.AccountID, p.CreatedAt, p.UpdatedAt)
	return err
}

func (r *staffProfileRepository) GetByID(ctx context.Context, id string) (*domain.StaffProfile, error) {
	query := `SELECT ` + staffProfileColumns + ` FROM staff_profiles WHERE id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, id))
}

func (r *staffProfileRepository) GetByInvitationID(ctx context.Context, invitationID string) (*domain.StaffProfile, error) {
	query := `SELECT ` + staffProfileColumns + ` FROM staff_profiles WHERE invitation_id = $1`
	return r.scanOne(r.DB.QueryRowContext(ctx, query, invitationID))
}

func (r *staffProfileRepository) Update(ctx context.Context, p *domain.StaffProfile) error {
	query := `
		UPDATE staff_profiles
		SET name = $2, last_name = $3, job_title = $4, phone = $5,
			state = $6, profile_complete = $7, credential_set = $8, account_id = $9, updated_at = $10
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		p.ID, p.Name, p.LastName, p.JobTitle, p.Phone,
		p.State, p.ProfileComplete, p.CredentialSet, p.AccountID, p.UpdatedAt)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return domain.ErrStaffProfileNotFound
	}
	return nil
}

func (r *staffProfileRepository) scanOne(row *sql.Row) (*domain.StaffProfile, error) {
	p := &domain.StaffProfile{}
	err := row.Scan(&p.ID, &p.InvitationID, &p.CompanyID, &p.Email, &p.Name, &p.LastName, &p.JobTitle, &p.Phone,
		&p.State, &p.ProfileComplete, &p.CredentialSet, &p.AccountID, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrStaffProfileNotFound
		}
		return nil, err
	}
	return p, nil
}
