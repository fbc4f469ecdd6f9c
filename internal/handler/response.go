package handler

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "github.com/yourusername/accounts-api/internal/pkg/errors"
	"github.com/yourusername/accounts-api/pkg/auth/manager"
)

// All responses share one envelope: successes carry "message" and optional
// "data", failures carry "message" and an optional field-keyed "errors" map.

func respondSuccess(c *gin.Context, status int, message string, data interface{}) {
	body := gin.H{"message": message}
	if data != nil {
		body["data"] = data
	}
	c.JSON(status, body)
}

func respondError(c *gin.Context, status int, message string, fieldErrors map[string]string) {
	body := gin.H{"message": message}
	if len(fieldErrors) > 0 {
		body["errors"] = fieldErrors
	}
	c.JSON(status, body)
}

// respondAppError maps service and token errors onto HTTP statuses. Internal
// details are logged and never leak: unexpected failures all collapse into a
// bare 500 envelope.
func respondAppError(c *gin.Context, err error) {
	var tokenErr *manager.TokenError
	if errors.As(err, &tokenErr) {
		switch tokenErr.Type {
		case manager.ExpiredRefreshToken:
			respondError(c, http.StatusUnauthorized, "Authentication failed", map[string]string{"detail": "Token is expired"})
		case manager.InvalidRefreshToken, manager.InvalidAccessToken:
			respondError(c, http.StatusUnauthorized, "Authentication failed", map[string]string{"detail": "Token is invalid"})
		case manager.UserNotFound:
			respondError(c, http.StatusUnauthorized, "Authentication failed", map[string]string{"detail": "Invalid credentials"})
		default:
			log.Printf("[Handler] token error: %v", err)
			respondError(c, http.StatusInternalServerError, "Internal server error", nil)
		}
		return
	}

	switch {
	case errors.Is(err, apperrors.ErrValidation):
		respondError(c, http.StatusBadRequest, "Validation failed", map[string]string{"detail": safeDetail(err, apperrors.ErrValidation)})
	case errors.Is(err, apperrors.ErrUnauthorized), errors.Is(err, apperrors.ErrExpiredToken):
		respondError(c, http.StatusUnauthorized, "Authentication failed", nil)
	case errors.Is(err, apperrors.ErrForbidden):
		respondError(c, http.StatusForbidden, "Permission denied", map[string]string{"detail": safeDetail(err, apperrors.ErrForbidden)})
	case errors.Is(err, apperrors.ErrNotFound):
		respondError(c, http.StatusNotFound, "Resource not found", nil)
	case errors.Is(err, apperrors.ErrConflict):
		respondError(c, http.StatusConflict, "Conflict", map[string]string{"detail": safeDetail(err, apperrors.ErrConflict)})
	default:
		log.Printf("[Handler] unexpected error: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error", nil)
	}
}

// safeDetail extracts the human suffix from errors built as
// fmt.Errorf("%w: detail", sentinel). Those messages are written for end
// users; anything else would have taken the 500 path instead.
func safeDetail(err error, sentinel error) string {
	msg := err.Error()
	prefix := sentinel.Error() + ": "
	if len(msg) > len(prefix) && msg[:len(prefix)] == prefix {
		return msg[len(prefix):]
	}
	return msg
}
