package identity

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"erpcore/internal/domain"
)

// localProvider is the in-house authentication backend: bcrypt hashes in
// a credentials table, keyed by account id. It sits behind the same
// IdentityProvider port as the external one so the workflow services
// cannot tell the difference.
type localProvider struct {
	db     *sql.DB
	hasher domain.PasswordHasher
}

func (p *localProvider) CreateAccount(ctx context.Context, email, password string) (string, error) {
	salt, err := p.hasher.GenerateSalt()
	if err != nil {
		return "", err
	}
	hash, err := p.hasher.Hash(salt, password)
	if err != nil {
		return "", err
	}
	accountID := uuid.NewString()
	query := `
		INSERT INTO credentials (account_id, email, password_hash, salt, created_at, updated_at)
		VALUES ($1, $2, $3, $4, NOW(), NOW())
	`
	if _, err := p.db.ExecContext(ctx, query, accountID, email, hash, salt); err != nil {
		return "", fmt.Errorf("failed to create account: %w", err)
	}
	return accountID, nil
}

func (p *localProvider) UpdatePassword(ctx context.Context, accountID, password string) error {
	salt, err := p.hasher.GenerateSalt()
	if err != nil {
		return err
	}
	hash, err := p.hasher.Hash(salt, password)
	if err != nil {
		return err
	}
	query := `
		UPDATE credentials
		SET password_hash = $2, salt = $3, updated_at = NOW()
		WHERE account_id = $1
	`
	res, err := p.db.ExecContext(ctx, query, accountID, hash, salt)
	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("account %s not found", accountID)
	}
	return nil
}

func (p *localProvider) VerifyPassword(ctx context.Context, email, password string) (string, error) {
	query := `
		SELECT account_id, password_hash, salt
		FROM credentials
		WHERE email = $1
	`
	var accountID, hash, salt string
	err := p.db.QueryRowContext(ctx, query, email).Scan(&accountID, &hash, &salt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", fmt.Errorf("unknown account")
		}
		return "", err
	}
	if err := p.hasher.Compare(hash, salt, password); err != nil {
		return "", fmt.Errorf("password mismatch")
	}
	return accountID, nil
}
