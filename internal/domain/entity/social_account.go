package entity

import (
	"time"

	"github.com/google/uuid"
)

// SocialAccount links a local account to an external auth provider
// (google, facebook, github). A (provider, provider_uid) pair belongs
// to exactly one account.
type SocialAccount struct {
	ID            uint      `gorm:"primaryKey" json:"id"`
	UserID        uuid.UUID `gorm:"type:uuid;not null;index" json:"user_id"`
	Provider      string    `gorm:"size:20;not null;uniqueIndex:idx_provider_uid,priority:1" json:"provider"`
	ProviderUID   string    `gorm:"size:255;not null;uniqueIndex:idx_provider_uid,priority:2" json:"provider_uid"`
	ProviderEmail string    `gorm:"size:100;not null;default:''" json:"provider_email,omitempty"`
	Name          string    `gorm:"size:200;not null;default:''" json:"name,omitempty"`
	Picture       string    `gorm:"size:500;not null;default:''" json:"picture,omitempty"`
	CreatedAt     time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

func (SocialAccount) TableName() string {
	return "social_accounts"
}
