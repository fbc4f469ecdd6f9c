package postgres

import (
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// RefreshTokenRepo implements repository.RefreshTokenRepository on PostgreSQL.
// The table is append-and-flag: no method here removes rows, so the full
// issuance history survives for audit.
type RefreshTokenRepo struct {
	db *gorm.DB
}

// NewRefreshTokenRepo creates the repository and fails on a nil DB handle.
func NewRefreshTokenRepo(gormDB *gorm.DB) (*RefreshTokenRepo, error) {
	if gormDB == nil {
		return nil, fmt.Errorf("GORM DB instance is required for RefreshTokenRepo")
	}
	return &RefreshTokenRepo{db: gormDB}, nil
}

// Create stores a new refresh token record.
func (r *RefreshTokenRepo) Create(token *entity.RefreshToken) error {
	if err := r.db.Create(token).Error; err != nil {
		return fmt.Errorf("failed to create refresh token record: %w", err)
	}
	return nil
}

// GetByJTI finds a record by the token's jti claim.
func (r *RefreshTokenRepo) GetByJTI(jti string) (*entity.RefreshToken, error) {
	var token entity.RefreshToken
	err := r.db.Where("jti = ?", jti).First(&token).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get refresh token by jti: %w", err)
	}
	return &token, nil
}

// Revoke marks the record revoked. Revoking twice is a no-op success; an
// unknown jti returns ErrNotFound so callers can distinguish the cases.
func (r *RefreshTokenRepo) Revoke(jti, reason string) error {
	now := time.Now()
	result := r.db.Model(&entity.RefreshToken{}).
		Where("jti = ? AND revoked = ?", jti, false).
		Updates(map[string]interface{}{
			"revoked":    true,
			"revoked_at": now,
			"reason":     reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		var count int64
		if err := r.db.Model(&entity.RefreshToken{}).Where("jti = ?", jti).Count(&count).Error; err != nil {
			return fmt.Errorf("failed to check refresh token existence: %w", err)
		}
		if count == 0 {
			return apperrors.ErrNotFound
		}
		// Already revoked: the goal state holds.
	}
	return nil
}

// Rotate revokes the old record and inserts the new one in a single
// transaction. The guarded UPDATE doubles as a reuse check: a jti that is
// already revoked affects zero rows and the whole rotation fails.
func (r *RefreshTokenRepo) Rotate(oldJTI, reason string, newToken *entity.RefreshToken) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		now := time.Now()
		result := tx.Model(&entity.RefreshToken{}).
			Where("jti = ? AND revoked = ?", oldJTI, false).
			Updates(map[string]interface{}{
				"revoked":    true,
				"revoked_at": now,
				"reason":     reason,
			})
		if result.Error != nil {
			return fmt.Errorf("failed to revoke rotated token: %w", result.Error)
		}
		if result.RowsAffected == 0 {
			return apperrors.ErrNotFound
		}
		if err := tx.Create(newToken).Error; err != nil {
			return fmt.Errorf("failed to store rotated token: %w", err)
		}
		return nil
	})
}

// RevokeAllForUser revokes every active record of the user.
func (r *RefreshTokenRepo) RevokeAllForUser(userID uuid.UUID, reason string) error {
	now := time.Now()
	result := r.db.Model(&entity.RefreshToken{}).
		Where("user_id = ? AND revoked = ?", userID, false).
		Updates(map[string]interface{}{
			"revoked":    true,
			"revoked_at": now,
			"reason":     reason,
		})
	if result.Error != nil {
		return fmt.Errorf("failed to revoke tokens for user %s: %w", userID, result.Error)
	}
	// No ErrNotFound here: a user without active tokens is a valid state.
	return nil
}

// SweepExpired flags expired-but-unrevoked records as revoked. Rows are kept;
// the periodic sweep only shrinks the active set scanned by other queries.
func (r *RefreshTokenRepo) SweepExpired() (int64, error) {
	now := time.Now()
	result := r.db.Model(&entity.RefreshToken{}).
		Where("revoked = ? AND expires_at <= ?", false, now).
		Updates(map[string]interface{}{
			"revoked":    true,
			"revoked_at": now,
			"reason":     "expired",
		})
	if result.Error != nil {
		return 0, fmt.Errorf("failed to sweep expired refresh tokens: %w", result.Error)
	}
	if result.RowsAffected > 0 {
		log.Printf("[RefreshTokenRepo] swept %d expired tokens", result.RowsAffected)
	}
	return result.RowsAffected, nil
}
