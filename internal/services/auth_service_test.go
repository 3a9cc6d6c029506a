package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/store"
	"github.com/javajoker/certportal-backend/internal/utils"
)

type AuthServiceTestSuite struct {
	suite.Suite
	ctx     context.Context
	tokens  *utils.TokenManager
	revoked *MemoryRevocationList
	service *AuthService
}

func (suite *AuthServiceTestSuite) SetupTest() {
	suite.ctx = context.Background()
	suite.tokens = utils.NewTokenManager("test-secret", "certportal-test", time.Hour, 24*time.Hour)
	suite.revoked = NewMemoryRevocationList()
	suite.service = NewAuthService(store.NewMemoryStore(), suite.tokens, suite.revoked)
}

func (suite *AuthServiceTestSuite) register() *AuthResponse {
	resp, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Name:     "Kavya",
		Email:    "Kavya@Example.com",
		Password: "TestPass123!",
	})
	suite.Require().NoError(err)
	return resp
}

func (suite *AuthServiceTestSuite) TestRegisterCreatesCitizen() {
	resp := suite.register()

	assert.Equal(suite.T(), models.RoleCitizen, resp.User.Role)
	assert.Equal(suite.T(), "kavya@example.com", resp.User.Email)
	assert.Equal(suite.T(), "Bearer", resp.TokenType)
	assert.Equal(suite.T(), 3600, resp.ExpiresIn)

	claims, err := suite.tokens.ValidateAccessToken(resp.AccessToken)
	require.NoError(suite.T(), err)
	assert.Equal(suite.T(), resp.User.ID.String(), claims.UserID)
	assert.Equal(suite.T(), "citizen", claims.Role)
}

func (suite *AuthServiceTestSuite) TestRegisterDuplicateEmail() {
	suite.register()

	_, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Name:     "Someone",
		Email:    "kavya@example.com",
		Password: "TestPass123!",
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindConflict))
}

func (suite *AuthServiceTestSuite) TestRegisterWeakPassword() {
	_, err := suite.service.Register(suite.ctx, &RegisterRequest{
		Name:     "Kavya",
		Email:    "kavya@example.com",
		Password: "password",
	})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindValidation))
}

func (suite *AuthServiceTestSuite) TestLogin() {
	suite.register()

	resp, err := suite.service.Login(suite.ctx, &LoginRequest{Email: "kavya@example.com", Password: "TestPass123!"})
	require.NoError(suite.T(), err)
	assert.NotEmpty(suite.T(), resp.AccessToken)
	assert.NotNil(suite.T(), resp.User.LastLoginAt)

	_, err = suite.service.Login(suite.ctx, &LoginRequest{Email: "kavya@example.com", Password: "wrong"})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindUnauthenticated))

	_, err = suite.service.Login(suite.ctx, &LoginRequest{Email: "nobody@example.com", Password: "TestPass123!"})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindUnauthenticated))
}

func (suite *AuthServiceTestSuite) TestRefreshTokenIsSingleUse() {
	registered := suite.register()

	refreshed, err := suite.service.RefreshToken(suite.ctx, &RefreshTokenRequest{RefreshToken: registered.RefreshToken})
	require.NoError(suite.T(), err)
	assert.NotEqual(suite.T(), registered.RefreshToken, refreshed.RefreshToken)

	_, err = suite.service.RefreshToken(suite.ctx, &RefreshTokenRequest{RefreshToken: registered.RefreshToken})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindUnauthenticated))

	_, err = suite.service.RefreshToken(suite.ctx, &RefreshTokenRequest{RefreshToken: registered.AccessToken})
	assert.True(suite.T(), apperrors.Is(err, apperrors.KindUnauthenticated))
}

func (suite *AuthServiceTestSuite) TestLogoutRevokesAccessToken() {
	registered := suite.register()
	claims, err := suite.tokens.ValidateAccessToken(registered.AccessToken)
	require.NoError(suite.T(), err)

	require.NoError(suite.T(), suite.service.Logout(suite.ctx, claims))

	revoked, err := suite.revoked.IsRevoked(suite.ctx, claims.ID)
	require.NoError(suite.T(), err)
	assert.True(suite.T(), revoked)
}

func TestAuthServiceSuite(t *testing.T) {
	suite.Run(t, new(AuthServiceTestSuite))
}
