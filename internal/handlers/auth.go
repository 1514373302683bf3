package handlers

import (
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/tripora/backend/internal/middleware"
	"github.com/tripora/backend/internal/services"
	"github.com/tripora/backend/internal/store"
	"github.com/tripora/backend/pkg/response"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{authService: authService}
}

type refreshRequest struct {
	RefreshSecret string `json:"refresh_secret" binding:"required"`
}

type revokeRequest struct {
	RefreshSecret string `json:"refresh_secret"`
}

type tokenPayload struct {
	AccessToken      string    `json:"access_token"`
	AccessExpiresAt  time.Time `json:"access_expires_at"`
	RefreshSecret    string    `json:"refresh_secret"`
	RefreshExpiresAt time.Time `json:"refresh_expires_at"`
}

// Login handles user login
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidLogin) {
			response.Unauthorized(c, "invalid username or password")
			return
		}
		response.ServerError(c, "login failed")
		return
	}

	response.Success(c, gin.H{
		"user": result.User,
		"tokens": tokenPayload{
			AccessToken:      result.AccessToken,
			AccessExpiresAt:  result.AccessExpiresAt,
			RefreshSecret:    result.RefreshSecret,
			RefreshExpiresAt: result.RefreshExpiresAt,
		},
	})
}

// Refresh rotates a refresh credential and mints a new access token.
// Reuse detection and plain invalid credentials return the same body; the
// distinction is logged server-side only.
// POST /api/auth/refresh
func (h *AuthHandler) Refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.authService.Refresh(c.Request.Context(), req.RefreshSecret)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidCredential),
			errors.Is(err, services.ErrCredentialReuse):
			response.Unauthorized(c, "please log in again")
		case store.IsTransient(err):
			response.Error(c, response.NewServerError("request cancelled"))
		default:
			response.ServerError(c, "refresh failed")
		}
		return
	}

	response.Success(c, tokenPayload{
		AccessToken:      result.AccessToken,
		AccessExpiresAt:  result.AccessExpiresAt,
		RefreshSecret:    result.RefreshSecret,
		RefreshExpiresAt: result.RefreshExpiresAt,
	})
}

// Revoke revokes a refresh credential. Responds 204 regardless of whether a
// matching credential existed.
// POST /api/auth/revoke
func (h *AuthHandler) Revoke(c *gin.Context) {
	var req revokeRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.authService.Logout(c.Request.Context(), req.RefreshSecret); err != nil {
		response.ServerError(c, "revoke failed")
		return
	}
	response.NoContent(c)
}

// GetCurrentUser returns the current logged-in user
// GET /api/auth/me
func (h *AuthHandler) GetCurrentUser(c *gin.Context) {
	user, err := h.authService.GetUserByID(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		response.NotFound(c, "user not found")
		return
	}
	response.Success(c, user)
}

// CreateAdminIfNotExists creates default admin user
func (h *AuthHandler) CreateAdminIfNotExists() error {
	return h.authService.CreateAdminIfNotExists()
}
