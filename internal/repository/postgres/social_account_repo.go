package postgres

import (
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

type SocialAccountRepo struct {
	db *gorm.DB
}

func NewSocialAccountRepo(db *gorm.DB) *SocialAccountRepo {
	return &SocialAccountRepo{db: db}
}

func (r *SocialAccountRepo) Create(account *entity.SocialAccount) error {
	return r.db.Create(account).Error
}

func (r *SocialAccountRepo) GetByProviderUID(provider, providerUID string) (*entity.SocialAccount, error) {
	var account entity.SocialAccount
	err := r.db.
		Where("provider = ? AND provider_uid = ?", provider, providerUID).
		First(&account).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get social account by provider uid: %w", err)
	}
	return &account, nil
}

func (r *SocialAccountRepo) ListByUser(userID uuid.UUID) ([]entity.SocialAccount, error) {
	var accounts []entity.SocialAccount
	err := r.db.
		Where("user_id = ?", userID).
		Order("created_at ASC").
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list social accounts: %w", err)
	}
	return accounts, nil
}

// DeleteGuarded removes the user's link for the provider. The whole check
// runs in one transaction with the account row locked, so two concurrent
// disconnects cannot both pass the last-method check and strand the account.
// The guard is evaluated before the link is resolved: an account down to a
// single password-less identity gets ErrLastAuthMethod for any provider it
// names, linked or not.
func (r *SocialAccountRepo) DeleteGuarded(userID uuid.UUID, provider string) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		var user entity.User
		err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", userID).
			First(&user).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to lock user row: %w", err)
		}

		var linked int64
		if err := tx.Model(&entity.SocialAccount{}).
			Where("user_id = ?", userID).
			Count(&linked).Error; err != nil {
			return fmt.Errorf("failed to count social accounts: %w", err)
		}

		if linked == 1 && !user.HasUsablePassword() {
			return repository.ErrLastAuthMethod
		}

		var account entity.SocialAccount
		err = tx.Where("user_id = ? AND provider = ?", userID, provider).
			First(&account).Error
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return apperrors.ErrNotFound
			}
			return fmt.Errorf("failed to find social account: %w", err)
		}

		return tx.Delete(&account).Error
	})
}

func (r *SocialAccountRepo) DeleteByUserID(userID uuid.UUID) error {
	return r.db.Where("user_id = ?", userID).Delete(&entity.SocialAccount{}).Error
}
