package models

import (
	"time"

	"github.com/google/uuid"
)

// WaitlistEntry is one app waitlist signup. Entries are never mutated.
type WaitlistEntry struct {
	ID        uuid.UUID `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"created_at"`
}
