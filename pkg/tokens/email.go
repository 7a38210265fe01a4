package tokens

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/secondhandhub/marketplace-backend/pkg/config"
)

// Purpose restricts a signed email token to one semantic use. Minting and
// parsing are both keyed on it, so a verification link can never be replayed
// against the password-reset endpoint.
type Purpose string

const (
	PurposeEmailConfirm  Purpose = "email-confirm"
	PurposePasswordReset Purpose = "password-reset"
)

func (p Purpose) IsValid() bool {
	switch p {
	case PurposeEmailConfirm, PurposePasswordReset:
		return true
	}
	return false
}

// ErrInvalidEmailToken covers signature mismatch, expiry, and purpose
// mismatch alike. Callers surface one generic message for all three.
var ErrInvalidEmailToken = errors.New("invalid or expired email token")

// EmailTokenClaims is the payload of verification and reset links.
type EmailTokenClaims struct {
	Email   string  `json:"email"`
	Purpose Purpose `json:"purpose"`
	jwt.RegisteredClaims
}

// MintEmailToken issues a purpose-scoped token for the given address.
func MintEmailToken(cfg config.EmailTokenConfig, now time.Time, email string, purpose Purpose) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("email token secret is required")
	}
	if !purpose.IsValid() {
		return "", fmt.Errorf("invalid token purpose %q", purpose)
	}
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", fmt.Errorf("email is required")
	}

	maxAge := cfg.MaxAge
	if maxAge <= 0 {
		maxAge = time.Hour
	}

	claims := EmailTokenClaims{
		Email:   email,
		Purpose: purpose,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(maxAge)),
		},
	}

	token := jwt.NewWithClaims(jwtSigningMethod, claims)
	signed, err := token.SignedString([]byte(cfg.Secret))
	if err != nil {
		return "", fmt.Errorf("signing email token: %w", err)
	}
	return signed, nil
}

// ParseEmailToken verifies signature, expiry, and purpose, returning the
// embedded address. Every failure mode collapses into ErrInvalidEmailToken.
func ParseEmailToken(cfg config.EmailTokenConfig, tokenString string, want Purpose) (string, error) {
	if cfg.Secret == "" {
		return "", fmt.Errorf("email token secret is required")
	}

	claims := &EmailTokenClaims{}
	_, err := jwt.ParseWithClaims(
		tokenString,
		claims,
		func(token *jwt.Token) (interface{}, error) {
			if token.Method != jwtSigningMethod {
				return nil, fmt.Errorf("unexpected signing method %s", token.Header["alg"])
			}
			return []byte(cfg.Secret), nil
		},
		jwt.WithValidMethods([]string{jwtSigningMethod.Alg()}),
	)
	if err != nil {
		return "", ErrInvalidEmailToken
	}
	if claims.Purpose != want || claims.Email == "" {
		return "", ErrInvalidEmailToken
	}
	return claims.Email, nil
}
