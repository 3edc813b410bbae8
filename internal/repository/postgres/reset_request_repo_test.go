package postgres

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"erpcore/internal/domain"
)

func TestResetRequestRepository_GetLiveByUserID(t *testing.T) {
	ctx := context.Background()
	requestedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("live request found", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT r.id, r.user_id, r.token_id`).
			WithArgs("user-1").
			WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "token_id", "requested_at", "closed_at"}).
				AddRow("req-1", "user-1", "tok-1", requestedAt, nil))

		repo := NewResetRequestRepository(db)
		req, err := repo.GetLiveByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.NotNil(t, req)
		require.Equal(t, "tok-1", req.TokenID)
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no live request returns nil", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectQuery(`SELECT r.id, r.user_id, r.token_id`).
			WithArgs("user-1").
			WillReturnError(sql.ErrNoRows)

		repo := NewResetRequestRepository(db)
		req, err := repo.GetLiveByUserID(ctx, "user-1")
		require.NoError(t, err)
		require.Nil(t, req)
		require.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestResetRequestRepository_Create(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	requestedAt := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	mock.ExpectExec(`INSERT INTO password_reset_requests`).
		WithArgs("req-1", "user-1", "tok-1", requestedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewResetRequestRepository(db)
	err = repo.Create(context.Background(), &domain.PasswordResetRequest{
		ID:          "req-1",
		UserID:      "user-1",
		TokenID:     "tok-1",
		RequestedAt: requestedAt,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestResetRequestRepository_CloseByTokenID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`UPDATE password_reset_requests`).
		WithArgs("tok-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewResetRequestRepository(db)
	err = repo.CloseByTokenID(context.Background(), "tok-1")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}
