package model

import (
	"time"

	"github.com/google/uuid"
)

// URL represents a shortened URL entry in the system. Keys are unique across
// active and soft-deleted rows and are never reused.
type URL struct {
	ID        uuid.UUID `json:"id" db:"id"`
	Name      string    `json:"name,omitempty" db:"name"`
	Key       string    `json:"key" db:"key"`
	TargetURL string    `json:"target_url" db:"target_url" validate:"required,url"`
	IsActive  bool      `json:"is_active" db:"is_active"`
	Clicks    int64     `json:"clicks" db:"clicks"`
	CreatedAt time.Time `json:"date_created" db:"date_created"`
	UserID    uuid.UUID `json:"user_id" db:"user_id"`
}
