package manager

import (
	"errors"
	"fmt"
	"log"

	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/domain/entity"
	"github.com/yourusername/accounts-api/internal/domain/repository"
	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/pkg/auth"
)

// TokenErrorType classifies token flow failures for the HTTP layer.
type TokenErrorType string

const (
	// InvalidRefreshToken covers malformed, unknown and revoked refresh tokens.
	InvalidRefreshToken TokenErrorType = "invalid_refresh_token"
	// ExpiredRefreshToken is a refresh token past its lifetime.
	ExpiredRefreshToken TokenErrorType = "expired_refresh_token"
	// InvalidAccessToken covers bad or expired access tokens on verify.
	InvalidAccessToken TokenErrorType = "invalid_access_token"
	// UserNotFound means the token's owner no longer exists or is disabled.
	UserNotFound TokenErrorType = "user_not_found"
	// InternalError is an unexpected storage or signing failure.
	InternalError TokenErrorType = "internal_error"
)

// TokenError is a typed error for token operations.
type TokenError struct {
	Type    TokenErrorType
	Message string
	Err     error
}

func (e *TokenError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *TokenError) Unwrap() error {
	return e.Err
}

// NewTokenError creates a typed token error.
func NewTokenError(errType TokenErrorType, message string, err error) *TokenError {
	return &TokenError{Type: errType, Message: message, Err: err}
}

// TokenResponse is the issued pair returned to clients.
type TokenResponse struct {
	AccessToken  string    `json:"access_token"`
	RefreshToken string    `json:"refresh_token"`
	TokenType    string    `json:"token_type"`
	ExpiresIn    int64     `json:"expires_in"`
	UserID       uuid.UUID `json:"user_id"`
}

// TokenManager issues, rotates and revokes token pairs. Access tokens are
// stateless JWTs; every refresh token has a DB record keyed by jti that
// controls whether it is still honored.
type TokenManager struct {
	jwtService  *auth.JWTService
	refreshRepo repository.RefreshTokenRepository
	userRepo    repository.UserRepository
}

// NewTokenManager creates the manager and validates its dependencies.
func NewTokenManager(
	jwtService *auth.JWTService,
	refreshRepo repository.RefreshTokenRepository,
	userRepo repository.UserRepository,
) (*TokenManager, error) {
	if jwtService == nil {
		return nil, fmt.Errorf("JWTService is required for TokenManager")
	}
	if refreshRepo == nil {
		return nil, fmt.Errorf("RefreshTokenRepository is required for TokenManager")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("UserRepository is required for TokenManager")
	}
	return &TokenManager{
		jwtService:  jwtService,
		refreshRepo: refreshRepo,
		userRepo:    userRepo,
	}, nil
}

// IssueTokenPair generates an access and a refresh token for the user and
// persists the refresh token record.
func (m *TokenManager) IssueTokenPair(user *entity.User) (*TokenResponse, error) {
	accessToken, _, err := m.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, NewTokenError(InternalError, "failed to generate access token", err)
	}

	refreshToken, refreshClaims, err := m.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return nil, NewTokenError(InternalError, "failed to generate refresh token", err)
	}

	record := entity.NewRefreshToken(
		user.ID,
		refreshClaims.ID,
		refreshClaims.IssuedAt.Time,
		refreshClaims.ExpiresAt.Time,
	)
	if err := m.refreshRepo.Create(record); err != nil {
		return nil, NewTokenError(InternalError, "failed to persist refresh token", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(m.jwtService.AccessTTL().Seconds()),
		UserID:       user.ID,
	}, nil
}

// RefreshTokens exchanges a valid refresh token for a new pair. Rotation is
// atomic: the old record is revoked and the new one inserted in a single
// transaction, so a reused token can never yield two live sessions.
func (m *TokenManager) RefreshTokens(refreshToken string) (*TokenResponse, error) {
	claims, err := m.parseRefreshClaims(refreshToken, false)
	if err != nil {
		return nil, err
	}

	record, err := m.refreshRepo.GetByJTI(claims.ID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, NewTokenError(InvalidRefreshToken, "refresh token is not recognized", err)
		}
		return nil, NewTokenError(InternalError, "failed to load refresh token record", err)
	}
	if record.Revoked {
		log.Printf("[TokenManager] reuse of revoked refresh token jti=%s user=%s", record.JTI, record.UserID)
		return nil, NewTokenError(InvalidRefreshToken, "refresh token has been revoked", nil)
	}

	user, err := m.userRepo.GetByID(record.UserID)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, NewTokenError(UserNotFound, "token owner no longer exists", err)
		}
		return nil, NewTokenError(InternalError, "failed to load token owner", err)
	}
	if !user.IsActive {
		return nil, NewTokenError(UserNotFound, "token owner is disabled", nil)
	}

	accessToken, _, err := m.jwtService.GenerateAccessToken(user)
	if err != nil {
		return nil, NewTokenError(InternalError, "failed to generate access token", err)
	}
	newRefreshToken, newClaims, err := m.jwtService.GenerateRefreshToken(user)
	if err != nil {
		return nil, NewTokenError(InternalError, "failed to generate refresh token", err)
	}

	newRecord := entity.NewRefreshToken(
		user.ID,
		newClaims.ID,
		newClaims.IssuedAt.Time,
		newClaims.ExpiresAt.Time,
	)
	if err := m.refreshRepo.Rotate(record.JTI, "rotated", newRecord); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			// Lost the race to a concurrent refresh with the same token.
			return nil, NewTokenError(InvalidRefreshToken, "refresh token has been revoked", err)
		}
		return nil, NewTokenError(InternalError, "failed to rotate refresh token", err)
	}

	return &TokenResponse{
		AccessToken:  accessToken,
		RefreshToken: newRefreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int64(m.jwtService.AccessTTL().Seconds()),
		UserID:       user.ID,
	}, nil
}

// RevokeRefreshToken marks the token's record revoked. Unknown or malformed
// tokens fail with InvalidRefreshToken; revoking an already-revoked token
// succeeds. An expired but otherwise well-formed token can still be revoked
// so logout keeps working at the end of a session.
func (m *TokenManager) RevokeRefreshToken(refreshToken, reason string) error {
	claims, err := m.parseRefreshClaims(refreshToken, true)
	if err != nil {
		return err
	}

	if err := m.refreshRepo.Revoke(claims.ID, reason); err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return NewTokenError(InvalidRefreshToken, "refresh token is not recognized", err)
		}
		return NewTokenError(InternalError, "failed to revoke refresh token", err)
	}
	return nil
}

// RevokeAllForUser revokes every active refresh token of the user.
func (m *TokenManager) RevokeAllForUser(userID uuid.UUID, reason string) error {
	if err := m.refreshRepo.RevokeAllForUser(userID, reason); err != nil {
		return NewTokenError(InternalError, "failed to revoke user tokens", err)
	}
	return nil
}

// VerifyToken checks signature and expiry of either token type; a refresh
// token must additionally have an unrevoked record.
func (m *TokenManager) VerifyToken(tokenString string) (*auth.Claims, error) {
	claims, err := m.jwtService.ParseToken(tokenString)
	if err != nil {
		if errors.Is(err, apperrors.ErrExpiredToken) {
			return nil, NewTokenError(InvalidAccessToken, "token is expired", err)
		}
		return nil, NewTokenError(InvalidAccessToken, "token is invalid", err)
	}

	if claims.TokenType == auth.TokenTypeRefresh {
		record, err := m.refreshRepo.GetByJTI(claims.ID)
		if err != nil {
			if errors.Is(err, apperrors.ErrNotFound) {
				return nil, NewTokenError(InvalidRefreshToken, "refresh token is not recognized", err)
			}
			return nil, NewTokenError(InternalError, "failed to load refresh token record", err)
		}
		if !record.IsActive() {
			return nil, NewTokenError(InvalidRefreshToken, "refresh token has been revoked", nil)
		}
	}
	return claims, nil
}

// parseRefreshClaims parses a refresh token. With allowExpired the claims of
// an expired token are returned instead of an error.
func (m *TokenManager) parseRefreshClaims(refreshToken string, allowExpired bool) (*auth.Claims, error) {
	claims, err := m.jwtService.ParseToken(refreshToken)
	if err != nil {
		if errors.Is(err, apperrors.ErrExpiredToken) {
			if allowExpired && claims != nil && claims.ID != "" {
				return claims, nil
			}
			return nil, NewTokenError(ExpiredRefreshToken, "refresh token is expired", err)
		}
		return nil, NewTokenError(InvalidRefreshToken, "refresh token is invalid", err)
	}
	if claims.TokenType != auth.TokenTypeRefresh {
		return nil, NewTokenError(InvalidRefreshToken, "token is not a refresh token", nil)
	}
	return claims, nil
}
