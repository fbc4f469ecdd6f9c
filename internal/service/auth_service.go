package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/pkg/auth/manager"
)

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Email           string
	Password        string
	PasswordConfirm string
	FirstName       string
	LastName        string
}

// AuthService handles registration, credential checks and session lifecycle.
type AuthService struct {
	userRepo          repository.UserRepository
	tokenManager      *manager.TokenManager
	emailVerification *EmailVerificationService
}

// NewAuthService creates the service and validates required dependencies.
// The email verification service is optional; without it new accounts simply
// start unverified.
func NewAuthService(
	userRepo repository.UserRepository,
	tokenManager *manager.TokenManager,
	emailVerification *EmailVerificationService,
) (*AuthService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required for AuthService")
	}
	if tokenManager == nil {
		return nil, fmt.Errorf("token manager is required for AuthService")
	}
	return &AuthService{
		userRepo:          userRepo,
		tokenManager:      tokenManager,
		emailVerification: emailVerification,
	}, nil
}

// RegisterUser creates an account and issues its first token pair. When the
// acting caller is authenticated (admin-created accounts) actorID records who
// created the account; self-registration passes nil.
func (s *AuthService) RegisterUser(ctx context.Context, input RegisterInput, actorID *uuid.UUID) (*entity.User, *manager.TokenResponse, error) {
	email := normalizeEmail(input.Email)
	if email == "" {
		return nil, nil, fmt.Errorf("%w: email is required", apperrors.ErrValidation)
	}

	if input.Password != input.PasswordConfirm {
		return nil, nil, fmt.Errorf("%w: password fields didn't match", apperrors.ErrValidation)
	}
	if err := ValidatePassword(input.Password, email, input.FirstName, input.LastName); err != nil {
		return nil, nil, err
	}

	// Uniqueness is checked among non-deleted accounts only; a soft-deleted
	// account does not block re-registration of its email.
	if _, err := s.userRepo.GetByEmail(email); err == nil {
		return nil, nil, fmt.Errorf("%w: a user is already registered with this e-mail address", apperrors.ErrConflict)
	} else if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, nil, fmt.Errorf("failed to check email uniqueness: %w", err)
	}

	username, err := generateUniqueUsername(s.userRepo, email)
	if err != nil {
		return nil, nil, err
	}

	user := &entity.User{
		Email:     email,
		Username:  username,
		Password:  input.Password,
		FirstName: strings.TrimSpace(input.FirstName),
		LastName:  strings.TrimSpace(input.LastName),
		IsActive:  true,
		CreatedBy: actorID,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, nil, fmt.Errorf("failed to create user: %w", err)
	}

	tokens, err := s.tokenManager.IssueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}

	if s.emailVerification != nil {
		if err := s.emailVerification.SendCode(ctx, user.ID); err != nil {
			// Registration already succeeded; the code can be re-requested.
			log.Printf("[AuthService] failed to send verification code to %s: %v", user.Email, err)
		}
	}

	log.Printf("[AuthService] registered user id=%s email=%s", user.ID, user.Email)
	return user, tokens, nil
}

// AuthenticateUser validates credentials. Unknown email and wrong password
// produce the same error so responses do not leak which emails exist.
func (s *AuthService) AuthenticateUser(ctx context.Context, email, password string) (*entity.User, error) {
	user, err := s.userRepo.GetByEmail(normalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrValidation)
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	if !user.HasUsablePassword() || !user.CheckPassword(password) {
		return nil, fmt.Errorf("%w: invalid credentials", apperrors.ErrValidation)
	}

	if !user.IsActive {
		return nil, ErrAccountDisabled
	}

	return user, nil
}

// LoginUser authenticates and issues a token pair.
func (s *AuthService) LoginUser(ctx context.Context, email, password string) (*entity.User, *manager.TokenResponse, error) {
	user, err := s.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, nil, err
	}

	tokens, err := s.tokenManager.IssueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

// LogoutUser revokes the refresh token. An already-invalid token counts as
// success: the caller's goal is a dead session and the session is dead.
func (s *AuthService) LogoutUser(ctx context.Context, refreshToken string) error {
	err := s.tokenManager.RevokeRefreshToken(refreshToken, "logout")
	if err != nil {
		var tokenErr *manager.TokenError
		if errors.As(err, &tokenErr) && tokenErr.Type == manager.InvalidRefreshToken {
			log.Printf("[AuthService] logout with invalid refresh token: %v", err)
			return nil
		}
		return err
	}
	return nil
}

// ChangePassword verifies the current password and stores the new one.
// Existing refresh tokens stay valid: sessions survive a password change
// until their tokens expire or are revoked explicitly.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, oldPassword, newPassword, newPasswordConfirm string) error {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return err
	}

	if !user.CheckPassword(oldPassword) {
		return ErrInvalidOldPassword
	}
	if newPassword != newPasswordConfirm {
		return fmt.Errorf("%w: password fields didn't match", apperrors.ErrValidation)
	}
	if err := ValidatePassword(newPassword, user.Email, user.Username, user.FirstName, user.LastName); err != nil {
		return err
	}

	if err := s.userRepo.UpdatePassword(userID, newPassword, userID); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	log.Printf("[AuthService] password changed for user id=%s", userID)
	return nil
}

var usernameSanitizer = regexp.MustCompile(`[^a-z0-9_.-]`)

// generateUniqueUsername derives a handle from the email local part and
// appends an incrementing numeric suffix until it is free. Shared with the
// social login flow, which creates accounts without a chosen handle too.
func generateUniqueUsername(userRepo repository.UserRepository, email string) (string, error) {
	base := email
	if at := strings.Index(email, "@"); at > 0 {
		base = email[:at]
	}
	base = usernameSanitizer.ReplaceAllString(strings.ToLower(base), "")
	if base == "" {
		base = "user"
	}
	if len(base) > 40 {
		base = base[:40]
	}

	candidate := base
	for i := 1; ; i++ {
		_, err := userRepo.GetByUsername(candidate)
		if errors.Is(err, apperrors.ErrNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to check username uniqueness: %w", err)
		}
		candidate = fmt.Sprintf("%s%d", base, i)
		if i > 10000 {
			return "", fmt.Errorf("failed to generate unique username for base %q", base)
		}
	}
}

// randomPassword returns 32 hex chars of entropy for accounts that sign up
// through a provider and never see the value.
func randomPassword() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random password: %w", err)
	}
	return hex.EncodeToString(b), nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
