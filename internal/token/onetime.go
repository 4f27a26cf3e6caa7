package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	purposeReset   = "password_reset"
	purposeConfirm = "email_confirm"
)

// onetimeClaims back the two signed single-purpose tokens: password reset
// (explicit expiry, subject = username) and email confirmation (no expiry
// claim, verification enforces a max-age window from iat).
type onetimeClaims struct {
	Email   string `json:"email,omitempty"`
	Purpose string `json:"purpose"`
	jwt.RegisteredClaims
}

// IssueResetToken mints a stateless password-reset token binding the
// username with an absolute expiry.
func (m *Manager) IssueResetToken(username string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := onetimeClaims{
		Purpose: purposeReset,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   username,
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyResetToken returns the username bound to a valid reset token.
// Single-use enforcement lives in the service layer against the
// used-reset-token table; this only covers signature and expiry.
func (m *Manager) VerifyResetToken(tokenStr string) (string, error) {
	claims, err := m.parseOnetime(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposeReset || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

// IssueConfirmToken mints an email-confirmation token. No expiry claim is
// encoded; VerifyConfirmToken enforces the age window instead.
func (m *Manager) IssueConfirmToken(email string) (string, error) {
	claims := onetimeClaims{
		Email:   email,
		Purpose: purposeConfirm,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:       uuid.NewString(),
			IssuedAt: jwt.NewNumericDate(time.Now()),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// VerifyConfirmToken returns the email bound to a confirmation token no
// older than maxAge. It fails closed: any signature, purpose or age problem
// yields an error, never a partial result.
func (m *Manager) VerifyConfirmToken(tokenStr string, maxAge time.Duration) (string, error) {
	claims, err := m.parseOnetime(tokenStr)
	if err != nil {
		return "", err
	}
	if claims.Purpose != purposeConfirm || claims.Email == "" {
		return "", ErrInvalidToken
	}
	if claims.IssuedAt == nil {
		return "", ErrInvalidToken
	}
	if time.Since(claims.IssuedAt.Time) > maxAge {
		return "", ErrExpiredToken
	}
	return claims.Email, nil
}

func (m *Manager) parseOnetime(tokenStr string) (*onetimeClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &onetimeClaims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return m.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrExpiredToken
		}
		return nil, ErrInvalidToken
	}

	claims, ok := token.Claims.(*onetimeClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
