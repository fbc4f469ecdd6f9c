package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/accounts-api/internal/handler/dto"
	"github.com/yourusername/accounts-api/internal/service"
)

// SocialHandler serves provider login and linked identity management.
type SocialHandler struct {
	socialService *service.SocialService
}

func NewSocialHandler(socialService *service.SocialService) *SocialHandler {
	return &SocialHandler{socialService: socialService}
}

type SocialLoginRequest struct {
	AccessToken string `json:"access_token" binding:"required"`
}

// Login exchanges a provider access token for a local session. The provider
// comes from the path and has already been validated by the middleware.
func (h *SocialHandler) Login(c *gin.Context) {
	providerName := c.GetString("provider")

	var req SocialLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	user, tokens, err := h.socialService.LoginWithProvider(c.Request.Context(), providerName, req.AccessToken)
	if err != nil {
		respondAppError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Login successful", AuthResponse{
		User:   dto.NewUserResponse(user, nil),
		Tokens: tokens,
	})
}

// ListAccounts returns the caller's linked identities.
func (h *SocialHandler) ListAccounts(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication failed", nil)
		return
	}

	accounts, err := h.socialService.ListAccounts(c.Request.Context(), userID)
	if err != nil {
		respondAppError(c, err)
		return
	}

	resp := make([]dto.SocialAccountResponse, 0, len(accounts))
	for _, a := range accounts {
		resp = append(resp, dto.NewSocialAccountResponse(a))
	}
	respondSuccess(c, http.StatusOK, "Social accounts retrieved", resp)
}

// Disconnect removes the caller's link for the provider in the path.
func (h *SocialHandler) Disconnect(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication failed", nil)
		return
	}
	providerName := c.GetString("provider")

	if err := h.socialService.Disconnect(c.Request.Context(), userID, providerName); err != nil {
		respondAppError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Social account disconnected", nil)
}
