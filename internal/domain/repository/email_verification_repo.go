package repository

import (
	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
)

// EmailVerificationRepository persists verification code attempts.
type EmailVerificationRepository interface {
	Create(code *entity.EmailVerificationCode) error
	GetLatestActiveByUserID(userID uuid.UUID) (*entity.EmailVerificationCode, error)
	IncrementAttempts(id uint) error
	MarkConsumed(id uint) error
	// DeleteByUserID drops all codes of the user; issuing a new code starts
	// from a clean slate.
	DeleteByUserID(userID uuid.UUID) error
}
