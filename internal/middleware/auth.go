// internal/middleware/auth.go
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/certportal-backend/internal/i18n"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/services"
	"github.com/javajoker/certportal-backend/internal/utils"
)

func AuthRequired(tokens *utils.TokenManager, revoked services.RevocationList) gin.HandlerFunc {
	return func(c *gin.Context) {
		lang := utils.GetLangFromContext(c)

		token, ok := bearerToken(c)
		if !ok {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthRequired))
			c.Abort()
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthInvalidToken))
			c.Abort()
			return
		}

		isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID)
		if err != nil {
			logrus.WithError(err).Error("Failed to check token revocation")
			utils.InternalErrorResponse(c, "")
			c.Abort()
			return
		}
		if isRevoked {
			utils.UnauthorizedResponse(c, i18n.T(lang, i18n.KeyAuthTokenRevoked))
			c.Abort()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

// AdminRequired must run after AuthRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		role, _ := utils.GetUserRoleFromContext(c)
		if services.Authorize(models.Role(role), models.RoleAdmin) != services.Authorized {
			utils.ForbiddenResponse(c, i18n.T(utils.GetLangFromContext(c), i18n.KeyAdminAccessDenied))
			c.Abort()
			return
		}
		c.Next()
	}
}

// OptionalAuth attaches the caller identity when a valid token is present
// and lets anonymous requests through otherwise.
func OptionalAuth(tokens *utils.TokenManager, revoked services.RevocationList) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			c.Next()
			return
		}

		claims, err := tokens.ValidateAccessToken(token)
		if err != nil {
			c.Next()
			return
		}
		if isRevoked, err := revoked.IsRevoked(c.Request.Context(), claims.ID); err != nil || isRevoked {
			c.Next()
			return
		}

		setIdentity(c, claims)
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}

	// Extract token from "Bearer <token>"
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", false
	}
	return strings.TrimSpace(parts[1]), true
}

func setIdentity(c *gin.Context, claims *utils.JWTClaims) {
	c.Set("user_id", claims.UserID)
	c.Set("user_role", claims.Role)
	c.Set("token_claims", claims)
}
