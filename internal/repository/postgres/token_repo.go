package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"erpcore/internal/domain"
)

type tokenRepository struct {
	DB *sql.DB
}

// NewTokenRepository returns a domain.TokenRepository implemented with Postgres.
func NewTokenRepository(db *sql.DB) domain.TokenRepository {
	return &tokenRepository{DB: db}
}

func (r *tokenRepository) Create(ctx context.Context, t *domain.Token) error {
	query := `
		INSERT INTO tokens (id, purpose, subject_id, issued_at, expires_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.DB.ExecContext(ctx, query, t.ID, t.Purpose, t.SubjectID, t.IssuedAt, t.ExpiresAt)
	return err
}

func (r *tokenRepository) GetByID(ctx context.Context, id string) (*domain.Token, error) {
	query := `
		SELECT id, purpose, subject_id, issued_at, expires_at, consumed_at
		FROM tokens
		WHERE id = $1
	`
	t := &domain.Token{}
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&t.ID, &t.Purpose, &t.SubjectID, &t.IssuedAt, &t.ExpiresAt, &t.ConsumedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrTokenInvalid
		}
		return nil, err
	}
	return t, nil
}

// Consume marks the token used with a single conditional update, so
// exactly one of any concurrent redeemers wins even across worker
// processes. Expiry is judged against the database clock at this
// moment, not at issue time.
func (r *tokenRepository) Consume(ctx context.Context, id string) error {
	query := `
		UPDATE tokens
		SET consumed_at = NOW()
		WHERE id = $1 AND consumed_at IS NULL AND expires_at > NOW()
	`
	res, err := r.DB.ExecContext(ctx, query, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 1 {
		return nil
	}
	return r.classify(ctx, id)
}

// CheckLive reports whether the token could still be consumed, without
// consuming it. Used while profile completion spans several requests.
func (r *tokenRepository) CheckLive(ctx context.Context, id string) error {
	query := `
		SELECT 1 FROM tokens
		WHERE id = $1 AND consumed_at IS NULL AND expires_at > NOW()
	`
	var one int
	err := r.DB.QueryRowContext(ctx, query, id).Scan(&one)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	return r.classify(ctx, id)
}

// classify explains why a consume or liveness check lost: the row is
// gone, already consumed, or past expiry.
func (r *tokenRepository) classify(ctx context.Context, id string) error {
	t, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if t.ConsumedAt != nil {
		return domain.ErrTokenAlreadyUsed
	}
	if !t.ExpiresAt.After(time.Now()) {
		return domain.ErrTokenExpired
	}
	return domain.ErrTokenInvalid
}
