package services

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/adapters/auth"
	"erpcore/internal/domain"
)

type resetFixture struct {
	svc       domain.PasswordResetService
	codec     domain.TokenCodec
	tokenRepo *fakeTokenRepo
	userRepo  *fakeUserRepo
	resetRepo *fakeResetRepo
	provider  *fakeProvider
	emails    *fakeEmailService
}

func newResetFixture(t *testing.T) *resetFixture {
	t.Helper()
	f := &resetFixture{
		codec:     auth.NewTokenCodec("test-secret"),
		tokenRepo: newFakeTokenRepo(),
		userRepo:  newFakeUserRepo(),
		resetRepo: newFakeResetRepo(),
		provider:  newFakeProvider(),
		emails:    &fakeEmailService{},
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError}))
	f.svc = NewPasswordResetService(f.userRepo, f.tokenRepo, f.codec, f.resetRepo, f.provider, f.emails, 2*time.Hour, testBaseURL, logger)
	return f
}

func (f *resetFixture) seedUser(t *testing.T, email string) *domain.User {
	t.Helper()
	user := &domain.User{
		Email:     email,
		CompanyID: "co-1",
		Role:      "staff",
		AccountID: "acc-existing",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	require.NoError(t, f.userRepo.Create(context.Background(), user))
	return user
}

func (f *resetFixture) lastResetToken(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.emails.resets)
	url := f.emails.resets[len(f.emails.resets)-1].ResetURL
	return strings.TrimPrefix(url, testBaseURL+"/password-reset/")
}

func TestPasswordResetService_RequestReset(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	user := f.seedUser(t, "alice@co.com")

	require.NoError(t, f.svc.RequestReset(ctx, "Alice@Co.com"))

	require.Len(t, f.emails.resets, 1)
	assert.Equal(t, "alice@co.com", f.emails.resets[0].Email)
	assert.Equal(t, 2, f.emails.resets[0].ExpiresInHours)

	live, err := f.resetRepo.GetLiveByUserID(ctx, user.ID)
	require.NoError(t, err)
	require.NotNil(t, live)

	dec, err := f.codec.Decode(f.lastResetToken(t))
	require.NoError(t, err)
	assert.Equal(t, domain.TokenPurposePasswordReset, dec.Purpose)
	assert.Equal(t, user.ID, dec.SubjectID)
}

func TestPasswordResetService_RequestReset_UnknownEmail(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	// No existence leak: unknown addresses report success and create
	// nothing.
	require.NoError(t, f.svc.RequestReset(ctx, "unknown@co.com"))
	assert.Empty(t, f.emails.resets)
	assert.Empty(t, f.tokenRepo.tokens)
	assert.Empty(t, f.resetRepo.byID)
}

func TestPasswordResetService_SecondRequestSupersedesFirst(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	f.seedUser(t, "alice@co.com")

	require.NoError(t, f.svc.RequestReset(ctx, "alice@co.com"))
	firstToken := f.lastResetToken(t)

	require.NoError(t, f.svc.RequestReset(ctx, "alice@co.com"))
	secondToken := f.lastResetToken(t)
	require.NotEqual(t, firstToken, secondToken)

	// The first token was invalidated by the second request.
	err := f.svc.ResetPassword(ctx, firstToken, "str0ng-enough")
	require.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)

	require.NoError(t, f.svc.ResetPassword(ctx, secondToken, "str0ng-enough"))
}

func TestPasswordResetService_ResetPassword(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	user := f.seedUser(t, "alice@co.com")
	require.NoError(t, f.svc.RequestReset(ctx, "alice@co.com"))
	tokenString := f.lastResetToken(t)

	// A weak password is rejected and the token stays redeemable.
	err := f.svc.ResetPassword(ctx, tokenString, "weak")
	require.ErrorIs(t, err, domain.ErrWeakCredential)

	require.NoError(t, f.svc.ResetPassword(ctx, tokenString, "str0nger-now1"))
	assert.Equal(t, "str0nger-now1", f.provider.updated[user.AccountID])

	// The request record is closed and the token cannot be replayed.
	live, err := f.resetRepo.GetLiveByUserID(ctx, user.ID)
	require.NoError(t, err)
	assert.Nil(t, live)
	err = f.svc.ResetPassword(ctx, tokenString, "str0nger-now1")
	require.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
}

func TestPasswordResetService_ResetPassword_BadTokens(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)

	err := f.svc.ResetPassword(ctx, "garbage", "str0ng-enough")
	require.ErrorIs(t, err, domain.ErrTokenInvalid)

	// A welcome token cannot be redeemed as a reset token.
	welcomeString, token, err := f.codec.Issue(domain.TokenPurposeWelcome, "sp-1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, f.tokenRepo.Create(ctx, token))
	err = f.svc.ResetPassword(ctx, welcomeString, "str0ng-enough")
	require.ErrorIs(t, err, domain.ErrTokenInvalid)
}

func TestPasswordResetService_ResetPassword_ProviderDown(t *testing.T) {
	ctx := context.Background()
	f := newResetFixture(t)
	f.seedUser(t, "alice@co.com")
	require.NoError(t, f.svc.RequestReset(ctx, "alice@co.com"))
	tokenString := f.lastResetToken(t)

	f.provider.updateErrs = []error{domain.ErrIdentityProviderUnavailable, domain.ErrIdentityProviderUnavailable}
	err := f.svc.ResetPassword(ctx, tokenString, "str0ng-enough")
	require.ErrorIs(t, err, domain.ErrIdentityProviderUnavailable)

	// Consumed before the provider call; a fresh link is required.
	err = f.svc.ResetPassword(ctx, tokenString, "str0ng-enough")
	require.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
}
