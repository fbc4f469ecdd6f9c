package repository

import (
	"errors"

	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
)

// ErrLastAuthMethod is returned by DeleteGuarded when removing the link would
// leave the account with no way to sign in.
var ErrLastAuthMethod = errors.New("cannot disconnect the only login method")

// SocialAccountRepository stores external provider links.
type SocialAccountRepository interface {
	Create(account *entity.SocialAccount) error
	GetByProviderUID(provider, providerUID string) (*entity.SocialAccount, error)
	ListByUser(userID uuid.UUID) ([]entity.SocialAccount, error)
	// DeleteGuarded removes the user's link for the provider inside one
	// transaction that locks the account row first. The last-method check
	// runs before the link lookup: it fails with ErrLastAuthMethod whenever
	// the account is down to one identity and no usable password, and with
	// ErrNotFound when the guard passes but no such link exists.
	DeleteGuarded(userID uuid.UUID, provider string) error
	// DeleteByUserID removes every link of the user, freeing the provider
	// identities after an account deletion.
	DeleteByUserID(userID uuid.UUID) error
}
