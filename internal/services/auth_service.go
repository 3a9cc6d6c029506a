// internal/services/auth_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/store"
	"github.com/javajoker/certportal-backend/internal/utils"
)

type AuthService struct {
	users   store.UserStore
	tokens  *utils.TokenManager
	revoked RevocationList
	now     func() time.Time
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=100"`
	Email    string `json:"email" validate:"required,email,max=255"`
	Password string `json:"password" validate:"required,strong_password"`
}

type RefreshTokenRequest struct {
	RefreshToken string `json:"refreshToken" validate:"required"`
}

type AuthResponse struct {
	User         *models.User `json:"user"`
	AccessToken  string       `json:"accessToken"`
	RefreshToken string       `json:"refreshToken"`
	TokenType    string       `json:"tokenType"`
	ExpiresIn    int          `json:"expiresIn"` // in seconds
}

func NewAuthService(users store.UserStore, tokens *utils.TokenManager, revoked RevocationList) *AuthService {
	return &AuthService{
		users:   users,
		tokens:  tokens,
		revoked: revoked,
		now:     time.Now,
	}
}

// Register always creates a citizen account; admins are seeded.
func (s *AuthService) Register(ctx context.Context, req *RegisterRequest) (*AuthResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	user := &models.User{
		Name:  strings.TrimSpace(req.Name),
		Email: normalizeEmail(req.Email),
		Role:  models.RoleCitizen,
	}
	if err := user.SetPassword(req.Password); err != nil {
		return nil, apperrors.Dependency("failed to hash password", err)
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			return nil, apperrors.Conflict("user with this email already exists")
		}
		return nil, apperrors.Dependency("failed to create user", err)
	}

	return s.issueTokens(user)
}

func (s *AuthService) Login(ctx context.Context, req *LoginRequest) (*AuthResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	user, err := s.users.GetUserByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.Unauthenticated("invalid email or password")
		}
		return nil, apperrors.Dependency("failed to load user", err)
	}

	if err := user.CheckPassword(req.Password); err != nil {
		return nil, apperrors.Unauthenticated("invalid email or password")
	}

	now := s.now()
	if err := s.users.TouchLastLogin(ctx, user.ID, now); err != nil {
		logrus.WithField("user_id", user.ID).WithError(err).Warn("Failed to record last login")
	} else {
		user.LastLoginAt = &now
	}

	return s.issueTokens(user)
}

func (s *AuthService) RefreshToken(ctx context.Context, req *RefreshTokenRequest) (*AuthResponse, error) {
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	claims, err := s.tokens.ValidateRefreshToken(req.RefreshToken)
	if err != nil {
		return nil, apperrors.Unauthenticated("invalid refresh token")
	}

	revoked, err := s.revoked.IsRevoked(ctx, claims.ID)
	if err != nil {
		return nil, apperrors.Dependency("failed to check token revocation", err)
	}
	if revoked {
		return nil, apperrors.Unauthenticated("refresh token has been revoked")
	}

	user, err := s.GetUserByID(ctx, uuid.MustParse(claims.UserID))
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			return nil, apperrors.Unauthenticated("invalid refresh token")
		}
		return nil, err
	}

	// Refresh tokens are single use.
	if err := s.revoked.Revoke(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
		return nil, apperrors.Dependency("failed to rotate refresh token", err)
	}

	return s.issueTokens(user)
}

// Logout revokes the presented access token for the rest of its lifetime.
func (s *AuthService) Logout(ctx context.Context, claims *utils.JWTClaims) error {
	if claims == nil {
		return apperrors.Unauthenticated("authentication required")
	}
	if err := s.revoked.Revoke(ctx, claims.ID, claims.RemainingTTL(s.now())); err != nil {
		return apperrors.Dependency("failed to revoke token", err)
	}
	return nil
}

func (s *AuthService) GetUserByID(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("user")
		}
		return nil, apperrors.Dependency("failed to load user", err)
	}
	return user, nil
}

func (s *AuthService) issueTokens(user *models.User) (*AuthResponse, error) {
	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Name, string(user.Role))
	if err != nil {
		return nil, apperrors.Dependency("failed to generate access token", err)
	}

	refreshToken, err := s.tokens.GenerateRefreshToken(user.ID)
	if err != nil {
		return nil, apperrors.Dependency("failed to generate refresh token", err)
	}

	return &AuthResponse{
		User:         user,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.tokens.AccessTTL().Seconds()),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
