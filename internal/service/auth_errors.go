package service

import (
	"fmt"

	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
)

// Auth flow specific errors. Each wraps one of the shared sentinels so the
// HTTP layer can map them with errors.Is while handlers that care about the
// exact case compare against these directly.
var (
	// ErrAccountDisabled is a login attempt against a deactivated account.
	ErrAccountDisabled = fmt.Errorf("%w: account disabled", apperrors.ErrForbidden)

	// ErrInvalidOldPassword is a password change with a wrong current password.
	ErrInvalidOldPassword = fmt.Errorf("%w: old password is incorrect", apperrors.ErrUnauthorized)

	// ErrProviderTokenInvalid is a social login whose provider token could
	// not be exchanged for a profile. A bad provider token is bad request
	// input, not a failed session, so it maps to 400 like the other input
	// errors.
	ErrProviderTokenInvalid = fmt.Errorf("%w: provider token verification failed", apperrors.ErrValidation)

	// ErrLastAuthMethod is a disconnect that would leave the account with no
	// way to sign in.
	ErrLastAuthMethod = fmt.Errorf("%w: cannot disconnect the only login method", apperrors.ErrValidation)

	// ErrInvalidResetToken is a reset confirmation with an unknown, used or
	// expired token.
	ErrInvalidResetToken = fmt.Errorf("%w: invalid or expired reset token", apperrors.ErrValidation)

	// ErrInvalidVerificationCode is an email confirmation with a wrong code.
	ErrInvalidVerificationCode = fmt.Errorf("%w: invalid verification code", apperrors.ErrValidation)

	// ErrVerificationExpired is an email confirmation with a stale code.
	ErrVerificationExpired = fmt.Errorf("%w: verification code expired", apperrors.ErrValidation)

	// ErrVerificationAttemptsExceeded means the code burned all its attempts.
	ErrVerificationAttemptsExceeded = fmt.Errorf("%w: too many verification attempts", apperrors.ErrValidation)

	// ErrVerificationResendCooldown throttles repeated resend requests.
	ErrVerificationResendCooldown = fmt.Errorf("%w: please wait before requesting a new code", apperrors.ErrConflict)
)
