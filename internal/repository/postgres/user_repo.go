package postgres

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// UserRepo implements repository.UserRepository.
type UserRepo struct {
	db *gorm.DB
}

// NewUserRepo creates a new user repository.
func NewUserRepo(db *gorm.DB) *UserRepo {
	return &UserRepo{db: db}
}

// active returns a query scoped to non-deleted accounts. This is the default
// entry point; only List bypasses it, for admin reads.
func (r *UserRepo) active() *gorm.DB {
	return r.db.Where("is_deleted = ?", false)
}

// Create stores a new account.
func (r *UserRepo) Create(user *entity.User) error {
	return r.db.Create(user).Error
}

// GetByID returns a non-deleted account by ID.
func (r *UserRepo) GetByID(id uuid.UUID) (*entity.User, error) {
	var user entity.User
	err := r.active().Where("id = ?", id).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByEmail returns a non-deleted account by normalized email.
func (r *UserRepo) GetByEmail(email string) (*entity.User, error) {
	var user entity.User
	err := r.active().Where("email = ?", email).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// GetByUsername returns a non-deleted account by username.
func (r *UserRepo) GetByUsername(username string) (*entity.User, error) {
	var user entity.User
	err := r.active().Where("username = ?", username).First(&user).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, err
	}
	return &user, nil
}

// UpdateProfile applies a partial update. The password and identity columns
// can never travel through this method.
func (r *UserRepo) UpdateProfile(userID uuid.UUID, updates map[string]interface{}) error {
	delete(updates, "password")
	delete(updates, "email")
	delete(updates, "id")

	updates["updated_at"] = time.Now()

	result := r.db.Model(&entity.User{}).
		Where("id = ? AND is_deleted = ?", userID, false).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// UpdatePassword hashes and stores a new password. The hash is written with a
// raw statement to bypass the BeforeSave hook and avoid double hashing; the
// same statement flips PasswordAuthEnabled on so the account becomes
// password-capable even if it started as social-only.
func (r *UserRepo) UpdatePassword(userID uuid.UUID, newPassword string, updatedBy uuid.UUID) error {
	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		log.Printf("[UserRepo.UpdatePassword] failed to hash password: %v", err)
		return err
	}

	result := r.db.Exec(
		"UPDATE users SET password = ?, password_auth_enabled = TRUE, updated_by = ?, updated_at = ? WHERE id = ? AND is_deleted = FALSE",
		string(hashedPassword),
		updatedBy,
		time.Now(),
		userID,
	)
	if result.Error != nil {
		log.Printf("[UserRepo.UpdatePassword] failed to update password for user=%s: %v", userID, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// SoftDelete marks the account deleted and inactive inside one statement.
func (r *UserRepo) SoftDelete(userID, deletedBy uuid.UUID) error {
	now := time.Now()
	result := r.db.Model(&entity.User{}).
		Where("id = ? AND is_deleted = ?", userID, false).
		Updates(map[string]interface{}{
			"is_deleted": true,
			"deleted_at": now,
			"deleted_by": deletedBy,
			"is_active":  false,
			"updated_at": now,
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrNotFound
	}
	return nil
}

// List returns a page of accounts in the all scope with the total count.
// A transaction keeps the page and the count consistent with each other.
func (r *UserRepo) List(limit, offset int) ([]entity.User, int64, error) {
	var users []entity.User
	var total int64

	err := r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&entity.User{}).Count(&total).Error; err != nil {
			return err
		}
		return tx.Order("created_at DESC, id ASC").
			Limit(limit).
			Offset(offset).
			Find(&users).Error
	})
	if err != nil {
		return nil, 0, err
	}
	return users, total, nil
}
