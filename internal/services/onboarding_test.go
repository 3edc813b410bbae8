package services

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"erpcore/internal/adapters/auth"
	"erpcore/internal/domain"
)

type onboardingFixture struct {
	svc         domain.OnboardingService
	codec       domain.TokenCodec
	tokenRepo   *fakeTokenRepo
	invRepo     *fakeInvitationRepo
	profileRepo *fakeProfileRepo
	userRepo    *fakeUserRepo
	provider    *fakeProvider
}

func newOnboardingFixture() *onboardingFixture {
	f := &onboardingFixture{
		codec:       auth.NewTokenCodec("test-secret"),
		tokenRepo:   newFakeTokenRepo(),
		invRepo:     newFakeInvitationRepo(),
		profileRepo: newFakeProfileRepo(),
		userRepo:    newFakeUserRepo(),
		provider:    newFakeProvider(),
	}
	f.svc = NewOnboardingService(f.tokenRepo, f.codec, f.profileRepo, f.invRepo, f.userRepo, f.provider, 48*time.Hour)
	return f
}

// invite seeds a pending invitation plus its stored invite token and
// returns the token string, the way the invitation service would.
func (f *onboardingFixture) invite(t *testing.T, email string, ttl time.Duration) (*domain.Invitation, string) {
	t.Helper()
	ctx := context.Background()
	inv := &domain.Invitation{
		ID:        "inv-" + email,
		CompanyID: "co-1",
		Email:     email,
		Status:    domain.InvitationPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	tokenString, token, err := f.codec.Issue(domain.TokenPurposeInvite, inv.ID, ttl)
	require.NoError(t, err)
	require.NoError(t, f.tokenRepo.Create(ctx, token))
	inv.InviteTokenID = token.ID
	require.NoError(t, f.invRepo.Create(ctx, inv))
	return inv, tokenString
}

func TestOnboardingService_RedeemInvite(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture()
	inv, tokenString := f.invite(t, "alice@co.com", 7*24*time.Hour)

	profile, welcomeToken, err := f.svc.RedeemInvite(ctx, tokenString)
	require.NoError(t, err)
	assert.Equal(t, domain.OnboardingProfileDrafted, profile.State)
	assert.Equal(t, inv.ID, profile.InvitationID)
	assert.Equal(t, "alice@co.com", profile.Email)
	assert.False(t, profile.ProfileComplete)
	assert.False(t, profile.CredentialSet)
	require.NotEmpty(t, welcomeToken)

	dec, err := f.codec.Decode(welcomeToken)
	require.NoError(t, err)
	assert.Equal(t, domain.TokenPurposeWelcome, dec.Purpose)
	assert.Equal(t, profile.ID, dec.SubjectID)

	// Redeeming the same link a second time must fail.
	_, _, err = f.svc.RedeemInvite(ctx, tokenString)
	require.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
}

func TestOnboardingService_RedeemInvite_BadTokens(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture()

	t.Run("garbage", func(t *testing.T) {
		_, _, err := f.svc.RedeemInvite(ctx, "garbage")
		require.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		_, tokenString := f.invite(t, "late@co.com", -time.Minute)
		_, _, err := f.svc.RedeemInvite(ctx, tokenString)
		require.ErrorIs(t, err, domain.ErrTokenExpired)
	})

	t.Run("wrong purpose", func(t *testing.T) {
		welcomeString, token, err := f.codec.Issue(domain.TokenPurposeWelcome, "sp-1", time.Hour)
		require.NoError(t, err)
		require.NoError(t, f.tokenRepo.Create(ctx, token))
		_, _, err = f.svc.RedeemInvite(ctx, welcomeString)
		require.ErrorIs(t, err, domain.ErrTokenInvalid)
	})

	t.Run("forged", func(t *testing.T) {
		other := auth.NewTokenCodec("attacker-secret")
		forged, _, err := other.Issue(domain.TokenPurposeInvite, "inv-x", time.Hour)
		require.NoError(t, err)
		_, _, err = f.svc.RedeemInvite(ctx, forged)
		require.ErrorIs(t, err, domain.ErrTokenInvalid)
	})
}

func TestOnboardingService_RedeemInvite_Concurrent(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture()
	_, tokenString := f.invite(t, "alice@co.com", 7*24*time.Hour)

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, _, errs[i] = f.svc.RedeemInvite(ctx, tokenString)
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for _, err := range errs {
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
			losses++
		}
	}
	assert.Equal(t, 1, wins)
	assert.Equal(t, n-1, losses)
}

func TestOnboardingService_SubmitProfile_Resumable(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture()
	_, tokenString := f.invite(t, "alice@co.com", 7*24*time.Hour)
	_, welcomeToken, err := f.svc.RedeemInvite(ctx, tokenString)
	require.NoError(t, err)

	// Profile completion may span several requests; the welcome token
	// stays live throughout.
	profile, err := f.svc.SubmitProfile(ctx, welcomeToken, domain.ProfileFields{Name: "Alice"})
	require.NoError(t, err)
	assert.True(t, profile.ProfileComplete)
	assert.Equal(t, "Alice", profile.Name)

	profile, err = f.svc.SubmitProfile(ctx, welcomeToken, domain.ProfileFields{Name: "Alice", LastName: "Smith", JobTitle: "Dispatcher"})
	require.NoError(t, err)
	assert.Equal(t, "Smith", profile.LastName)
	assert.Equal(t, domain.OnboardingProfileDrafted, profile.State)
}

func TestOnboardingService_SetCredentials(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture()
	inv, tokenString := f.invite(t, "alice@co.com", 7*24*time.Hour)
	_, welcomeToken, err := f.svc.RedeemInvite(ctx, tokenString)
	require.NoError(t, err)
	_, err = f.svc.SubmitProfile(ctx, welcomeToken, domain.ProfileFields{Name: "Alice", LastName: "Smith"})
	require.NoError(t, err)

	// A weak password is rejected before the token is touched.
	_, err = f.svc.SetCredentials(ctx, welcomeToken, "short")
	require.ErrorIs(t, err, domain.ErrWeakCredential)
	_, err = f.svc.SubmitProfile(ctx, welcomeToken, domain.ProfileFields{Name: "Alice", LastName: "Smith"})
	require.NoError(t, err, "welcome token must survive a weak-credential attempt")

	profile, err := f.svc.SetCredentials(ctx, welcomeToken, "str0ng-enough")
	require.NoError(t, err)
	assert.Equal(t, domain.OnboardingActive, profile.State)
	assert.True(t, profile.CredentialSet)
	assert.NotEmpty(t, profile.AccountID)

	got, err := f.invRepo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationAccepted, got.Status)

	user, err := f.userRepo.GetByEmail(ctx, "alice@co.com")
	require.NoError(t, err)
	assert.Equal(t, profile.AccountID, user.AccountID)
	assert.Equal(t, "staff", user.Role)

	// The welcome token was consumed exactly once.
	_, err = f.svc.SetCredentials(ctx, welcomeToken, "str0ng-enough")
	require.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
	_, err = f.svc.SubmitProfile(ctx, welcomeToken, domain.ProfileFields{Name: "Alice"})
	require.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
}

func TestOnboardingService_SetCredentials_ProviderRetries(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture()
	_, tokenString := f.invite(t, "alice@co.com", 7*24*time.Hour)
	_, welcomeToken, err := f.svc.RedeemInvite(ctx, tokenString)
	require.NoError(t, err)
	_, err = f.svc.SubmitProfile(ctx, welcomeToken, domain.ProfileFields{Name: "Alice"})
	require.NoError(t, err)

	// One transient failure is absorbed by the retry.
	f.provider.createErrs = []error{domain.ErrIdentityProviderUnavailable}
	profile, err := f.svc.SetCredentials(ctx, welcomeToken, "str0ng-enough")
	require.NoError(t, err)
	assert.Equal(t, domain.OnboardingActive, profile.State)
}

func TestOnboardingService_SetCredentials_ProviderDown(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture()
	_, tokenString := f.invite(t, "alice@co.com", 7*24*time.Hour)
	_, welcomeToken, err := f.svc.RedeemInvite(ctx, tokenString)
	require.NoError(t, err)

	f.provider.createErrs = []error{domain.ErrIdentityProviderUnavailable, domain.ErrIdentityProviderUnavailable}
	_, err = f.svc.SetCredentials(ctx, welcomeToken, "str0ng-enough")
	require.ErrorIs(t, err, domain.ErrIdentityProviderUnavailable)

	// The token was consumed before the provider call and is not
	// resurrected; only a fresh invitation link can finish onboarding.
	_, err = f.svc.SetCredentials(ctx, welcomeToken, "str0ng-enough")
	require.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)
}

func TestOnboardingService_SetCredentials_BeforeProfile(t *testing.T) {
	ctx := context.Background()
	f := newOnboardingFixture()
	inv, tokenString := f.invite(t, "alice@co.com", 7*24*time.Hour)
	_, welcomeToken, err := f.svc.RedeemInvite(ctx, tokenString)
	require.NoError(t, err)

	// Straight to the password step: the account still activates, with
	// the display fields left empty.
	profile, err := f.svc.SetCredentials(ctx, welcomeToken, "str0ng-enough")
	require.NoError(t, err)
	assert.Equal(t, domain.OnboardingActive, profile.State)
	assert.True(t, profile.CredentialSet)
	assert.False(t, profile.ProfileComplete)
	assert.Empty(t, profile.Name)

	got, err := f.invRepo.GetByID(ctx, inv.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.InvitationAccepted, got.Status)

	user, err := f.userRepo.GetByEmail(ctx, "alice@co.com")
	require.NoError(t, err)
	assert.Equal(t, "staff", user.Role)

	// The welcome token is spent; a late profile submission is rejected
	// but the account is already usable.
	_, err = f.svc.SubmitProfile(ctx, welcomeToken, domain.ProfileFields{Name: "Alice", LastName: "Smith"})
	require.ErrorIs(t, err, domain.ErrTokenAlreadyUsed)

	stored, err := f.profileRepo.GetByID(ctx, profile.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OnboardingActive, stored.State)
}
