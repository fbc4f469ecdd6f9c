package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// PasswordResetService handles the forgot-password flow. Tokens are random,
// single-use and time-limited; requests never reveal whether an email exists.
type PasswordResetService struct {
	userRepo     repository.UserRepository
	resetTokens  repository.ResetTokenRepository
	emailService EmailService
	tokenTTL     time.Duration
}

func NewPasswordResetService(
	userRepo repository.UserRepository,
	resetTokens repository.ResetTokenRepository,
	emailService EmailService,
	tokenTTL time.Duration,
) (*PasswordResetService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required for PasswordResetService")
	}
	if resetTokens == nil {
		return nil, fmt.Errorf("reset token repository is required for PasswordResetService")
	}
	if emailService == nil {
		return nil, fmt.Errorf("email service is required for PasswordResetService")
	}
	if tokenTTL <= 0 {
		tokenTTL = time.Hour
	}
	return &PasswordResetService{
		userRepo:     userRepo,
		resetTokens:  resetTokens,
		emailService: emailService,
		tokenTTL:     tokenTTL,
	}, nil
}

// RequestReset starts a reset for the email. It returns nil for unknown and
// disabled accounts alike; only internal failures surface, so the endpoint
// cannot be used to probe which emails are registered.
func (s *PasswordResetService) RequestReset(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			log.Printf("[PasswordResetService] reset requested for unknown email")
			return nil
		}
		return fmt.Errorf("failed to look up user: %w", err)
	}
	if !user.IsActive {
		log.Printf("[PasswordResetService] reset requested for disabled account id=%s", user.ID)
		return nil
	}

	token, err := generateResetToken()
	if err != nil {
		return err
	}
	if err := s.resetTokens.Store(token, user.ID, s.tokenTTL); err != nil {
		return fmt.Errorf("failed to store reset token: %w", err)
	}

	idempotencyKey := fmt.Sprintf("pwd-reset:%s:%s", user.ID, token[:8])
	if err := s.emailService.SendPasswordResetToken(ctx, user.Email, token, idempotencyKey); err != nil {
		return fmt.Errorf("failed to send reset email: %w", err)
	}

	log.Printf("[PasswordResetService] reset token issued for user id=%s", user.ID)
	return nil
}

// ConfirmReset redeems the token and sets the new password. The token is
// consumed atomically, so a second confirmation with the same token fails
// even when the first one bailed out later in the flow.
func (s *PasswordResetService) ConfirmReset(ctx context.Context, token, newPassword, newPasswordConfirm string) error {
	if newPassword != newPasswordConfirm {
		return fmt.Errorf("%w: password fields didn't match", apperrors.ErrValidation)
	}

	userID, err := s.resetTokens.Consume(token)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return fmt.Errorf("failed to consume reset token: %w", err)
	}

	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return ErrInvalidResetToken
		}
		return err
	}

	if err := ValidatePassword(newPassword, user.Email, user.Username, user.FirstName, user.LastName); err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(user.ID, newPassword, user.ID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Printf("[PasswordResetService] password reset completed for user id=%s", user.ID)
	return nil
}

func generateResetToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
