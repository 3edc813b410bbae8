package domain

import (
	"context"
	"errors"
)

// ErrIdentityProviderUnavailable is returned after the single retry
// against the identity provider has failed. By then any token guarding
// the step is already consumed, so callers must ask the user to request
// a fresh link rather than replay the old one.
var ErrIdentityProviderUnavailable = errors.New("identity provider unavailable")

// IdentityProvider is the authentication backend boundary. The core
// never stores passwords itself; it hands them to the provider and
// keeps only the returned account id.
type IdentityProvider interface {
	CreateAccount(ctx context.Context, email, password string) (accountID string, err error)
	UpdatePassword(ctx context.Context, accountID, password string) error
	VerifyPassword(ctx context.Context, email, password string) (accountID string, err error)
}
