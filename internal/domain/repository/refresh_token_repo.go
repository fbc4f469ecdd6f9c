package repository

import (
	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
)

// RefreshTokenRepository persists refresh token records keyed by jti.
// Records are append-and-flag only: nothing here deletes rows.
type RefreshTokenRepository interface {
	// Create stores a record for a freshly issued refresh token.
	Create(token *entity.RefreshToken) error

	// GetByJTI finds a record by the refresh JWT's id claim.
	GetByJTI(jti string) (*entity.RefreshToken, error)

	// Revoke marks the record revoked. Revoking an already-revoked record
	// succeeds; an unknown jti returns ErrNotFound.
	Revoke(jti, reason string) error

	// Rotate atomically revokes the old record and inserts the new one in a
	// single transaction. A record that is already revoked (token reuse)
	// fails the whole rotation with ErrNotFound.
	Rotate(oldJTI, reason string, newToken *entity.RefreshToken) error

	// RevokeAllForUser revokes every active record of the user.
	RevokeAllForUser(userID uuid.UUID, reason string) error

	// SweepExpired flags expired-but-unrevoked records as revoked so the
	// active set stays small. Returns the number of flagged rows.
	SweepExpired() (int64, error)
}
