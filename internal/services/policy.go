package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"
	"unicode"

	"erpcore/internal/domain"
)

const minPasswordLen = 8

var emailRegexp = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)

// validatePassword enforces the credential policy: at least 8
// characters with both a letter and a digit.
func validatePassword(password string) error {
	if len(password) < minPasswordLen {
		return fmt.Errorf("%w: must be at least %d characters", domain.ErrWeakCredential, minPasswordLen)
	}
	var hasLetter, hasDigit bool
	for _, r := range password {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasDigit = true
		}
	}
	if !hasLetter || !hasDigit {
		return fmt.Errorf("%w: must contain a letter and a digit", domain.ErrWeakCredential)
	}
	return nil
}

const providerRetryBackoff = 500 * time.Millisecond

// callProvider runs fn against the identity provider, retrying exactly
// once after a short backoff when the provider reports itself
// unavailable. Any other error is final.
func callProvider(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !errors.Is(err, domain.ErrIdentityProviderUnavailable) {
		return err
	}
	select {
	case <-time.After(providerRetryBackoff):
	case <-ctx.Done():
		return ctx.Err()
	}
	return fn()
}
