package token

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

var (
	ErrInvalidToken = errors.New("invalid or malformed token")
	ErrExpiredToken = errors.New("token has expired")
	ErrWrongPurpose = errors.New("token issued for a different purpose")
)

const (
	typeAccess  = "access"
	typeRefresh = "refresh"
)

// SessionClaims are the claims embedded in access and refresh tokens.
// The jti (RegisteredClaims.ID) is the key into the revocation list.
type SessionClaims struct {
	IsAdministrator bool   `json:"is_administrator"`
	SuperAdmin      bool   `json:"super_admin,omitempty"`
	Fresh           bool   `json:"fresh,omitempty"`
	TokenType       string `json:"type"`
	jwt.RegisteredClaims
}

// UserID parses the subject claim back into a user id.
func (c *SessionClaims) UserID() (uuid.UUID, error) {
	id, err := uuid.Parse(c.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return id, nil
}

// Manager signs and validates every token the service issues. It holds the
// server secret so no other package touches it.
type Manager struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
}

func NewManager(secret string, accessTTL, refreshTTL time.Duration) *Manager {
	return &Manager{
		secret:     []byte(secret),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
	}
}

// IssueAccessToken mints an access token. fresh is true only when the token
// comes straight from a credential login, never from a refresh.
func (m *Manager) IssueAccessToken(userID uuid.UUID, isAdmin, superAdmin, fresh bool) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		IsAdministrator: isAdmin,
		SuperAdmin:      superAdmin,
		Fresh:           fresh,
		TokenType:       typeAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.accessTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// IssueRefreshToken mints a longer-lived refresh token. Refresh tokens carry
// the administrator claim but never freshness.
func (m *Manager) IssueRefreshToken(userID uuid.UUID, isAdmin bool) (string, error) {
	now := time.Now()
	claims := SessionClaims{
		IsAdministrator: isAdmin,
		TokenType:       typeRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID.String(),
			ID:        uuid.NewString(),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.refreshTTL)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// ValidateAccessToken checks signature, expiry and token type. Revocation is
// the caller's concern: the jti still has to be checked against the list.
func (m *Manager) ValidateAccessToken(tokenStr string) (*SessionClaims, error) {
	return m.validate(tokenStr, typeAccess)
}

// ValidateRefreshToken checks signature, expiry and token type.
func (m *Manager) ValidateRefreshToken(tokenStr string) (*SessionClaims, error) {
	return m.validate(tokenStr, typeRefresh)
}

func (m *Manager) validate(tokenStr, wantType string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &SessionClaims{}, func(t *jwt.Token) (interface{}, error) {
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

	claims, ok := token.Claims.(*SessionClaims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != wantType {
		return nil, ErrWrongPurpose
	}
	if claims.ID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
