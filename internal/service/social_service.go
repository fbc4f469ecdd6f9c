package service

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/internal/service/provider"
	"github.com/yourusername/accounts-api/pkg/auth/manager"
)

// SocialService implements provider-based login and the management of linked
// identities.
type SocialService struct {
	userRepo     repository.UserRepository
	socialRepo   repository.SocialAccountRepository
	tokenManager *manager.TokenManager
	providers    *provider.Registry
}

func NewSocialService(
	userRepo repository.UserRepository,
	socialRepo repository.SocialAccountRepository,
	tokenManager *manager.TokenManager,
	providers *provider.Registry,
) (*SocialService, error) {
	if userRepo == nil {
		return nil, fmt.Errorf("user repository is required for SocialService")
	}
	if socialRepo == nil {
		return nil, fmt.Errorf("social account repository is required for SocialService")
	}
	if tokenManager == nil {
		return nil, fmt.Errorf("token manager is required for SocialService")
	}
	if providers == nil {
		return nil, fmt.Errorf("provider registry is required for SocialService")
	}
	return &SocialService{
		userRepo:     userRepo,
		socialRepo:   socialRepo,
		tokenManager: tokenManager,
		providers:    providers,
	}, nil
}

// LoginWithProvider exchanges a provider access token for a local session.
// Resolution order: existing link by (provider, uid); otherwise an active
// account with the same email gets the identity linked; otherwise a new
// account is created without a usable password.
func (s *SocialService) LoginWithProvider(ctx context.Context, providerName, accessToken string) (*entity.User, *manager.TokenResponse, error) {
	p, ok := s.providers.Get(providerName)
	if !ok {
		return nil, nil, fmt.Errorf("%w: unknown provider %q", apperrors.ErrNotFound, providerName)
	}

	profile, err := p.FetchProfile(ctx, accessToken)
	if err != nil {
		log.Printf("[SocialService] %s profile fetch failed: %v", providerName, err)
		return nil, nil, ErrProviderTokenInvalid
	}

	user, err := s.resolveUser(ctx, p.Name(), profile)
	if err != nil {
		return nil, nil, err
	}
	if !user.IsActive {
		return nil, nil, ErrAccountDisabled
	}

	tokens, err := s.tokenManager.IssueTokenPair(user)
	if err != nil {
		return nil, nil, err
	}
	return user, tokens, nil
}

func (s *SocialService) resolveUser(ctx context.Context, providerName string, profile *provider.Profile) (*entity.User, error) {
	link, err := s.socialRepo.GetByProviderUID(providerName, profile.UID)
	if err == nil {
		return s.userRepo.GetByID(link.UserID)
	}
	if !errors.Is(err, apperrors.ErrNotFound) {
		return nil, fmt.Errorf("failed to look up identity: %w", err)
	}

	email := normalizeEmail(profile.Email)
	if email != "" {
		existing, err := s.userRepo.GetByEmail(email)
		if err == nil {
			if err := s.link(existing.ID, providerName, profile); err != nil {
				return nil, err
			}
			log.Printf("[SocialService] linked %s identity to existing user id=%s", providerName, existing.ID)
			return existing, nil
		}
		if !errors.Is(err, apperrors.ErrNotFound) {
			return nil, fmt.Errorf("failed to look up user by email: %w", err)
		}
	}

	return s.signUp(ctx, providerName, profile, email)
}

// signUp auto-creates an account for a first-time provider login. The account
// gets a random throwaway hash and PasswordAuthEnabled=false, so password
// login stays off until the owner sets one through the reset flow.
func (s *SocialService) signUp(ctx context.Context, providerName string, profile *provider.Profile, email string) (*entity.User, error) {
	if email == "" {
		// Without an email there is nothing to register the account under.
		log.Printf("[SocialService] %s profile uid=%s has no email", providerName, profile.UID)
		return nil, ErrProviderTokenInvalid
	}

	username, err := generateUniqueUsername(s.userRepo, email)
	if err != nil {
		return nil, err
	}
	password, err := randomPassword()
	if err != nil {
		return nil, err
	}

	firstName, lastName := splitName(profile.Name)
	user := &entity.User{
		Email:               email,
		Username:            username,
		Password:            password,
		PasswordAuthEnabled: false,
		FirstName:           firstName,
		LastName:            lastName,
		Avatar:              profile.Picture,
		IsActive:            true,
		EmailVerified:       profile.EmailVerified,
	}
	if err := s.userRepo.Create(user); err != nil {
		return nil, fmt.Errorf("failed to create user from %s profile: %w", providerName, err)
	}

	if err := s.link(user.ID, providerName, profile); err != nil {
		return nil, err
	}

	log.Printf("[SocialService] auto-signup via %s user id=%s", providerName, user.ID)
	return user, nil
}

func (s *SocialService) link(userID uuid.UUID, providerName string, profile *provider.Profile) error {
	account := &entity.SocialAccount{
		UserID:        userID,
		Provider:      providerName,
		ProviderUID:   profile.UID,
		ProviderEmail: normalizeEmail(profile.Email),
		Name:          profile.Name,
		Picture:       profile.Picture,
	}
	if err := s.socialRepo.Create(account); err != nil {
		return fmt.Errorf("failed to link %s identity: %w", providerName, err)
	}
	return nil
}

// ListAccounts returns the user's linked identities.
func (s *SocialService) ListAccounts(ctx context.Context, userID uuid.UUID) ([]entity.SocialAccount, error) {
	return s.socialRepo.ListByUser(userID)
}

// Disconnect removes the user's link for the provider. The repository runs
// the last-method check and the delete as one serialized unit; this method
// only translates the guarded errors for callers.
func (s *SocialService) Disconnect(ctx context.Context, userID uuid.UUID, providerName string) error {
	if _, ok := s.providers.Get(providerName); !ok {
		return fmt.Errorf("%w: unknown provider %q", apperrors.ErrNotFound, providerName)
	}

	err := s.socialRepo.DeleteGuarded(userID, providerName)
	if err != nil {
		if errors.Is(err, repository.ErrLastAuthMethod) {
			return ErrLastAuthMethod
		}
		if errors.Is(err, apperrors.ErrNotFound) {
			return fmt.Errorf("%w: no %s account connected", apperrors.ErrNotFound, providerName)
		}
		return fmt.Errorf("failed to disconnect %s: %w", providerName, err)
	}

	log.Printf("[SocialService] disconnected %s for user id=%s", providerName, userID)
	return nil
}

func splitName(full string) (string, string) {
	first, last := full, ""
	for i := len(full) - 1; i >= 0; i-- {
		if full[i] == ' ' {
			first, last = full[:i], full[i+1:]
			break
		}
	}
	return first, last
}
