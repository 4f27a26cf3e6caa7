package model

import "time"

// RevokedToken records a jti that was revoked on logout. Append-only.
type RevokedToken struct {
	JTI       string    `json:"jti" db:"jti"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}

// UsedResetToken records a password-reset token that was already consumed,
// so a reset token is single-use even while still inside its TTL.
type UsedResetToken struct {
	Token     string    `json:"token" db:"token"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
