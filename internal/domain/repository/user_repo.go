package repository

import (
	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
)

// UserRepository defines account persistence. Lookups see only non-deleted
// accounts; List is the one all-scope read, for admin views.
type UserRepository interface {
	Create(user *entity.User) error
	GetByID(id uuid.UUID) (*entity.User, error)
	GetByEmail(email string) (*entity.User, error)
	GetByUsername(username string) (*entity.User, error)
	// UpdateProfile applies a partial field update; password and identity
	// fields are stripped before the write.
	UpdateProfile(userID uuid.UUID, updates map[string]interface{}) error
	// UpdatePassword hashes and stores a new password, recording who changed it.
	UpdatePassword(userID uuid.UUID, newPassword string, updatedBy uuid.UUID) error
	// SoftDelete marks the account deleted and inactive; the row stays.
	SoftDelete(userID, deletedBy uuid.UUID) error
	// List returns a page of accounts in the all scope with the total count.
	List(limit, offset int) ([]entity.User, int64, error)
}
