package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
)

// UserResponse is the full account serialization returned by profile and
// auth endpoints.
type UserResponse struct {
	ID             uuid.UUID               `json:"id"`
	Email          string                  `json:"email"`
	Username       string                  `json:"username"`
	FirstName      string                  `json:"first_name"`
	LastName       string                  `json:"last_name"`
	FullName       string                  `json:"full_name"`
	Phone          string                  `json:"phone"`
	Avatar         string                  `json:"avatar"`
	Bio            string                  `json:"bio"`
	IsActive       bool                    `json:"is_active"`
	EmailVerified  bool                    `json:"email_verified"`
	CreatedAt      time.Time               `json:"created_at"`
	UpdatedAt      time.Time               `json:"updated_at"`
	CreatedBy      *uuid.UUID              `json:"created_by,omitempty"`
	UpdatedBy      *uuid.UUID              `json:"updated_by,omitempty"`
	SocialAccounts []SocialAccountResponse `json:"social_accounts,omitempty"`
}

// SocialAccountResponse is one linked provider identity.
type SocialAccountResponse struct {
	ID            uint      `json:"id"`
	Provider      string    `json:"provider"`
	ProviderUID   string    `json:"uid"`
	ProviderEmail string    `json:"email,omitempty"`
	Name          string    `json:"name,omitempty"`
	Picture       string    `json:"picture,omitempty"`
	ConnectedAt   time.Time `json:"connected_at"`
}

// NewUserResponse converts an account and its linked identities.
func NewUserResponse(user *entity.User, accounts []entity.SocialAccount) *UserResponse {
	resp := &UserResponse{
		ID:            user.ID,
		Email:         user.Email,
		Username:      user.Username,
		FirstName:     user.FirstName,
		LastName:      user.LastName,
		FullName:      user.FullName(),
		Phone:         user.Phone,
		Avatar:        user.Avatar,
		Bio:           user.Bio,
		IsActive:      user.IsActive,
		EmailVerified: user.EmailVerified,
		CreatedAt:     user.CreatedAt,
		UpdatedAt:     user.UpdatedAt,
		CreatedBy:     user.CreatedBy,
		UpdatedBy:     user.UpdatedBy,
	}
	for _, a := range accounts {
		resp.SocialAccounts = append(resp.SocialAccounts, NewSocialAccountResponse(a))
	}
	return resp
}

func NewSocialAccountResponse(a entity.SocialAccount) SocialAccountResponse {
	return SocialAccountResponse{
		ID:            a.ID,
		Provider:      a.Provider,
		ProviderUID:   a.ProviderUID,
		ProviderEmail: a.ProviderEmail,
		Name:          a.Name,
		Picture:       a.Picture,
		ConnectedAt:   a.CreatedAt,
	}
}
