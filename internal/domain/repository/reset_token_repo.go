package repository

import (
	"time"

	"github.com/google/uuid"
)

// ResetTokenRepository stores single-use password reset tokens. The backing
// store owns expiry (TTL) and Consume must be get-and-delete in one step so
// a token can never be redeemed twice.
type ResetTokenRepository interface {
	Store(token string, userID uuid.UUID, ttl time.Duration) error
	// Consume returns the owner of the token and removes it atomically.
	// Unknown or expired tokens return ErrNotFound.
	Consume(token string) (uuid.UUID, error)
}
