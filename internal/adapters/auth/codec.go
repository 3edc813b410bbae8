package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"erpcore/internal/domain"
)

type linkTokenClaims struct {
	jwt.RegisteredClaims
	Purpose string `json:"purpose"`
}

type linkTokenCodec struct {
	secret []byte
}

// NewTokenCodec returns a TokenCodec for single-use link tokens, signed
// with HS256. The signature makes the string unforgeable; expiry and
// consumption are still decided only by the token repository, so Decode
// deliberately skips claims validation.
func NewTokenCodec(secret string) domain.TokenCodec {
	return &linkTokenCodec{secret: []byte(secret)}
}

func (c *linkTokenCodec) Issue(purpose domain.TokenPurpose, subjectID string, ttl time.Duration) (string, *domain.Token, error) {
	now := time.Now()
	record := &domain.Token{
		ID:        uuid.NewString(),
		Purpose:   purpose,
		SubjectID: subjectID,
		IssuedAt:  now,
		ExpiresAt: now.Add(ttl),
	}
	claims := linkTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        record.ID,
			Subject:   subjectID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(record.ExpiresAt),
		},
		Purpose: string(purpose),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(c.secret)
	if err != nil {
		return "", nil, err
	}
	return tokenString, record, nil
}

func (c *linkTokenCodec) Decode(tokenString string) (*domain.DecodedToken, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		// Expiry is the repository's call, evaluated at consume time;
		// an expired-but-well-formed token must decode so the store can
		// answer ErrTokenExpired instead of a generic parse failure.
		jwt.WithoutClaimsValidation(),
	)
	parsed, err := parser.ParseWithClaims(tokenString, &linkTokenClaims{}, func(t *jwt.Token) (any, error) {
		return c.secret, nil
	})
	if err != nil || !parsed.Valid {
		return nil, domain.ErrTokenInvalid
	}
	claims, ok := parsed.Claims.(*linkTokenClaims)
	if !ok || claims.ID == "" || claims.Subject == "" {
		return nil, domain.ErrTokenInvalid
	}
	purpose := domain.TokenPurpose(claims.Purpose)
	switch purpose {
	case domain.TokenPurposeInvite, domain.TokenPurposeWelcome, domain.TokenPurposePasswordReset:
	default:
		return nil, domain.ErrTokenInvalid
	}
	return &domain.DecodedToken{
		ID:        claims.ID,
		Purpose:   purpose,
		SubjectID: claims.Subject,
	}, nil
}
