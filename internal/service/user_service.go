package service

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// UpdateProfileInput is a partial profile update. Nil fields are untouched.
// Email, password and identifiers are not updatable through this path at all.
type UpdateProfileInput struct {
	FirstName *string
	LastName  *string
	Phone     *string
	Bio       *string
	Avatar    *string
}

// UserService provides profile reads, partial updates and account removal.
type UserService struct {
	userRepo    repository.UserRepository
	socialRepo  repository.SocialAccountRepository
	refreshRepo repository.RefreshTokenRepository
}

func NewUserService(
	userRepo repository.UserRepository,
	socialRepo repository.SocialAccountRepository,
	refreshRepo repository.RefreshTokenRepository,
) (*UserService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required for UserService")
	}
	if socialRepo == nil {
		return nil, fmt.Errorf("social account repository is required for UserService")
	}
	if refreshRepo == nil {
		return nil, fmt.Errorf("refresh token repository is required for UserService")
	}
	return &UserService{
		userRepo:    userRepo,
		socialRepo:  socialRepo,
		refreshRepo: refreshRepo,
	}, nil
}

// GetProfile returns the account with its linked identities.
func (s *UserService) GetProfile(ctx context.Context, userID uuid.UUID) (*entity.User, []entity.SocialAccount, error) {
	user, err := s.userRepo.GetByID(userID)
	if err != nil {
		return nil, nil, err
	}
	accounts, err := s.socialRepo.ListByUser(userID)
	if err != nil {
		return nil, nil, err
	}
	return user, accounts, nil
}

// UpdateProfile applies the non-nil fields and stamps the actor as
// updated_by. The repository strips anything outside the allowed set, so
// even a bug here cannot touch email or password.
func (s *UserService) UpdateProfile(ctx context.Context, userID uuid.UUID, input UpdateProfileInput) (*entity.User, error) {
	updates := map[string]interface{}{}
	if input.FirstName != nil {
		updates["first_name"] = strings.TrimSpace(*input.FirstName)
	}
	if input.LastName != nil {
		updates["last_name"] = strings.TrimSpace(*input.LastName)
	}
	if input.Phone != nil {
		updates["phone"] = strings.TrimSpace(*input.Phone)
	}
	if input.Bio != nil {
		updates["bio"] = *input.Bio
	}
	if input.Avatar != nil {
		updates["avatar"] = strings.TrimSpace(*input.Avatar)
	}
	if len(updates) == 0 {
		return nil, fmt.Errorf("%w: no updatable fields provided", apperrors.ErrValidation)
	}

	updates["updated_by"] = userID

	if err := s.userRepo.UpdateProfile(userID, updates); err != nil {
		return nil, err
	}
	return s.userRepo.GetByID(userID)
}

// DeleteAccount soft-deletes the account and ends every session. The row is
// kept with its audit trail; the email becomes reusable for new signups.
// Linked identities are removed so the provider accounts can sign up fresh
// instead of resolving to a dead record.
func (s *UserService) DeleteAccount(ctx context.Context, userID uuid.UUID) error {
	if err := s.userRepo.SoftDelete(userID, userID); err != nil {
		return err
	}
	if err := s.socialRepo.DeleteByUserID(userID); err != nil {
		// A leftover link still cannot log in: the owner lookup runs in the
		// active scope and fails for the deleted account.
		log.Printf("[UserService] failed to remove social links for deleted user id=%s: %v", userID, err)
	}
	if err := s.refreshRepo.RevokeAllForUser(userID, "account deleted"); err != nil {
		// The account is already gone from the active scope; refresh attempts
		// will fail on the owner lookup even if this revocation lagged.
		log.Printf("[UserService] failed to revoke tokens for deleted user id=%s: %v", userID, err)
	}
	log.Printf("[UserService] soft-deleted account id=%s", userID)
	return nil
}

// ListUsers returns a page of accounts in the all scope for admin views.
func (s *UserService) ListUsers(ctx context.Context, page, pageSize int) ([]entity.User, int64, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	} else if pageSize > 100 {
		pageSize = 100
	}
	offset := (page - 1) * pageSize
	return s.userRepo.List(pageSize, offset)
}
