package domain

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for token validation. Every redeemer surfaces these
// verbatim; a consumed or expired token must never succeed on replay.
var (
	ErrTokenInvalid     = errors.New("token invalid")
	ErrTokenExpired     = errors.New("token expired")
	ErrTokenAlreadyUsed = errors.New("token already used")
)

// TokenPurpose tags what a single-use token may be redeemed for.
type TokenPurpose string

const (
	TokenPurposeInvite        TokenPurpose = "invite"
	TokenPurposeWelcome       TokenPurpose = "welcome"
	TokenPurposePasswordReset TokenPurpose = "password_reset"
)

// Token is the stored record of a single-use token. The repository is
// the only authority on expiry and consumption; nothing trusts the
// token string's face value without a store lookup.
type Token struct {
	ID         string       `json:"id"`
	Purpose    TokenPurpose `json:"purpose"`
	SubjectID  string       `json:"subject_id"`
	IssuedAt   time.Time    `json:"issued_at"`
	ExpiresAt  time.Time    `json:"expires_at"`
	ConsumedAt *time.Time   `json:"consumed_at,omitempty"`
}

// DecodedToken holds the claims a codec extracts from a token string.
type DecodedToken struct {
	ID        string
	Purpose   TokenPurpose
	SubjectID string
}

// TokenCodec encodes and decodes opaque token strings. Issue returns
// the string handed to the user plus the record to persist. Decode
// fails with ErrTokenInvalid on malformed or forged input; it never
// judges expiry or consumption (that is the repository's job).
type TokenCodec interface {
	Issue(purpose TokenPurpose, subjectID string, ttl time.Duration) (tokenString string, token *Token, err error)
	Decode(tokenString string) (*DecodedToken, error)
}

// TokenRepository defines storage for single-use tokens.
//
// Consume must be atomic with respect to concurrent redemptions of the
// same id: exactly one caller gets nil, the rest get ErrTokenAlreadyUsed.
// Expiry is evaluated at consume time, so an unused token past its
// expires_at fails with ErrTokenExpired. CheckLive performs the same
// validity check without consuming, for multi-request flows.
type TokenRepository interface {
	Create(ctx context.Context, token *Token) error
	GetByID(ctx context.Context, id string) (*Token, error)
	Consume(ctx context.Context, id string) error
	CheckLive(ctx context.Context, id string) error
}
