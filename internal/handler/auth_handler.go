package handler

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/yourusername/accounts-api/internal/handler/dto"
	"github.com/yourusername/accounts-api/internal/service"
	"github.com/yourusername/accounts-api/pkg/auth/manager"
)

// AuthHandler serves registration, login and token lifecycle endpoints.
type AuthHandler struct {
	authService       *service.AuthService
	tokenManager      *manager.TokenManager
	passwordReset     *service.PasswordResetService
	emailVerification *service.EmailVerificationService
}

func NewAuthHandler(
	authService *service.AuthService,
	tokenManager *manager.TokenManager,
	passwordReset *service.PasswordResetService,
	emailVerification *service.EmailVerificationService,
) *AuthHandler {
	return &AuthHandler{
		authService:       authService,
		tokenManager:      tokenManager,
		passwordReset:     passwordReset,
		emailVerification: emailVerification,
	}
}

// Request payloads.

type RegisterRequest struct {
	Email           string `json:"email" binding:"required,email"`
	Password        string `json:"password" binding:"required"`
	PasswordConfirm string `json:"password_confirm" binding:"required"`
	FirstName       string `json:"first_name" binding:"omitempty,max=100"`
	LastName        string `json:"last_name" binding:"omitempty,max=100"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type VerifyTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

type LogoutRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type ChangePasswordRequest struct {
	OldPassword        string `json:"old_password" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required"`
}

type PasswordResetRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type PasswordResetConfirmRequest struct {
	Token              string `json:"token" binding:"required"`
	NewPassword        string `json:"new_password" binding:"required"`
	NewPasswordConfirm string `json:"new_password_confirm" binding:"required"`
}

type VerifyEmailRequest struct {
	Code string `json:"code" binding:"required"`
}

// AuthResponse carries the account and its token pair.
type AuthResponse struct {
	User   *dto.UserResponse      `json:"user"`
	Tokens *manager.TokenResponse `json:"tokens"`
}

// Register creates an account. When the caller is already authenticated
// (admin bootstrap flows) the new account records them as its creator.
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	var actorID *uuid.UUID
	if id, ok := currentUserID(c); ok {
		actorID = &id
	}

	user, tokens, err := h.authService.RegisterUser(c.Request.Context(), service.RegisterInput{
		Email:           req.Email,
		Password:        req.Password,
		PasswordConfirm: req.PasswordConfirm,
		FirstName:       req.FirstName,
		LastName:        req.LastName,
	}, actorID)
	if err != nil {
		respondAppError(c, err)
		return
	}

	respondSuccess(c, http.StatusCreated, "Registration successful", AuthResponse{
		User:   dto.NewUserResponse(user, nil),
		Tokens: tokens,
	})
}

// Login authenticates with email and password.
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	user, tokens, err := h.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondAppError(c, err)
		return
	}

	respondSuccess(c, http.StatusOK, "Login successful", AuthResponse{
		User:   dto.NewUserResponse(user, nil),
		Tokens: tokens,
	})
}

// Logout revokes the refresh token. Repeating a logout with the same token
// still succeeds.
func (h *AuthHandler) Logout(c *gin.Context) {
	var req LogoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	if err := h.authService.LogoutUser(c.Request.Context(), req.RefreshToken); err != nil {
		respondAppError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Logout successful", nil)
}

// RefreshToken rotates a refresh token into a new pair.
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	tokens, err := h.tokenManager.RefreshTokens(req.RefreshToken)
	if err != nil {
		respondAppError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Token refreshed", tokens)
}

// VerifyToken reports whether a token is currently valid.
func (h *AuthHandler) VerifyToken(c *gin.Context) {
	var req VerifyTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	if _, err := h.tokenManager.VerifyToken(req.Token); err != nil {
		respondAppError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Token is valid", nil)
}

// ChangePassword updates the caller's password after verifying the old one.
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication failed", nil)
		return
	}

	var req ChangePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	err := h.authService.ChangePassword(c.Request.Context(), userID, req.OldPassword, req.NewPassword, req.NewPasswordConfirm)
	if err != nil {
		respondAppError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Password changed successfully", nil)
}

// RequestPasswordReset starts the forgot-password flow. The response is the
// same whether or not the email belongs to an account.
func (h *AuthHandler) RequestPasswordReset(c *gin.Context) {
	var req PasswordResetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	if err := h.passwordReset.RequestReset(c.Request.Context(), req.Email); err != nil {
		log.Printf("[AuthHandler] password reset request failed: %v", err)
		respondError(c, http.StatusInternalServerError, "Internal server error", nil)
		return
	}
	respondSuccess(c, http.StatusOK, "Password reset e-mail has been sent", nil)
}

// ConfirmPasswordReset redeems a reset token and sets the new password.
func (h *AuthHandler) ConfirmPasswordReset(c *gin.Context) {
	var req PasswordResetConfirmRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	err := h.passwordReset.ConfirmReset(c.Request.Context(), req.Token, req.NewPassword, req.NewPasswordConfirm)
	if err != nil {
		respondAppError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Password has been reset", nil)
}

// VerifyEmail confirms the caller's email with a mailed code.
func (h *AuthHandler) VerifyEmail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication failed", nil)
		return
	}

	var req VerifyEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Validation failed", bindingErrors(err))
		return
	}

	if err := h.emailVerification.ConfirmCode(c.Request.Context(), userID, req.Code); err != nil {
		respondAppError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Email verified", nil)
}

// ResendEmail sends a fresh verification code to the caller.
func (h *AuthHandler) ResendEmail(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		respondError(c, http.StatusUnauthorized, "Authentication failed", nil)
		return
	}

	if err := h.emailVerification.SendCode(c.Request.Context(), userID); err != nil {
		respondAppError(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, "Verification e-mail sent", nil)
}
