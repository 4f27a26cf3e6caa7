package model

import (
	"time"

	"github.com/google/uuid"
)

// User represents a registered account. Super-admin status is not stored:
// it is derived by comparing the email against the configured value.
type User struct {
	ID           uuid.UUID  `json:"id" db:"id"`
	Email        string     `json:"email" db:"email"`
	Username     string     `json:"username" db:"username"`
	FirstName    string     `json:"first_name" db:"first_name"`
	LastName     string     `json:"last_name" db:"last_name"`
	PasswordHash string     `json:"-" db:"password_hash"`
	IsAdmin      bool       `json:"is_admin" db:"is_admin"`
	Paid         bool       `json:"paid" db:"paid"`
	IsConfirmed  bool       `json:"is_confirmed" db:"is_confirmed"`
	ConfirmedOn  *time.Time `json:"confirmed_on,omitempty" db:"confirmed_on"`
	CreatedAt    time.Time  `json:"date_created" db:"date_created"`
}
