package entity

import (
	"time"

	"github.com/google/uuid"
)

// RefreshToken is the persisted record behind a refresh JWT, keyed by the
// token's jti claim. Records are never deleted; revocation flips a flag so
// the full issuance history stays available for audit.
type RefreshToken struct {
	ID        uint       `gorm:"primaryKey" json:"id"`
	UserID    uuid.UUID  `gorm:"type:uuid;not null;index" json:"user_id"`
	JTI       string     `gorm:"size:36;not null;uniqueIndex" json:"-"`
	IssuedAt  time.Time  `gorm:"not null" json:"issued_at"`
	ExpiresAt time.Time  `gorm:"not null;index" json:"expires_at"`
	Revoked   bool       `gorm:"not null;default:false;index" json:"revoked"`
	RevokedAt *time.Time `gorm:"index" json:"revoked_at,omitempty"`
	Reason    string     `gorm:"size:255;not null;default:''" json:"reason,omitempty"`
	CreatedAt time.Time  `gorm:"not null" json:"created_at"`
}

// NewRefreshToken builds a record for a freshly issued refresh JWT.
func NewRefreshToken(userID uuid.UUID, jti string, issuedAt, expiresAt time.Time) *RefreshToken {
	return &RefreshToken{
		UserID:    userID,
		JTI:       jti,
		IssuedAt:  issuedAt,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
}

// IsActive reports whether the record can still back a refresh.
func (rt *RefreshToken) IsActive() bool {
	return !rt.Revoked && rt.ExpiresAt.After(time.Now())
}

// Revoke marks the record revoked with a reason.
func (rt *RefreshToken) Revoke(reason string) {
	now := time.Now()
	rt.Revoked = true
	rt.RevokedAt = &now
	rt.Reason = reason
}

func (RefreshToken) TableName() string {
	return "refresh_tokens"
}
