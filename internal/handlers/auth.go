// internal/handlers/auth.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/certportal-backend/internal/i18n"
	"github.com/javajoker/certportal-backend/internal/services"
	"github.com/javajoker/certportal-backend/internal/utils"
)

type AuthHandler struct {
	authService *services.AuthService
}

func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req services.RegisterRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		respondErrorWithKeys(c, err, registerErrorKeys)
		return
	}

	utils.CreatedResponse(c, authResponse)
}

// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req services.LoginRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		respondErrorWithKeys(c, err, loginErrorKeys)
		return
	}

	utils.SuccessResponse(c, authResponse)
}

// POST /api/auth/refresh
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req services.RefreshTokenRequest
	if !bindJSON(c, &req) {
		return
	}

	authResponse, err := h.authService.RefreshToken(c.Request.Context(), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, authResponse)
}

// POST /api/auth/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims, _ := utils.GetClaimsFromContext(c)
	if err := h.authService.Logout(c.Request.Context(), claims); err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, gin.H{
		"message": i18n.T(utils.GetLangFromContext(c), i18n.KeyAuthLogoutSuccess),
	})
}

// GET /api/auth/me
func (h *AuthHandler) GetProfile(c *gin.Context) {
	principal := caller(c)

	user, err := h.authService.GetUserByID(c.Request.Context(), principal.ID)
	if err != nil {
		respondErrorWithKeys(c, err, profileErrorKeys)
		return
	}

	utils.SuccessResponse(c, user)
}
