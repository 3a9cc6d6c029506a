package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/certportal-backend/internal/config"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/store"
)

func TestSeedInitialDataCreatesAdminOnce(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemoryStore()
	admin := config.AdminConfig{Name: "Collector Office", Email: " Admin@Example.com ", Password: "AdminPass123!"}

	generated, err := SeedInitialData(ctx, users, admin)
	require.NoError(t, err)
	assert.Empty(t, generated)

	user, err := users.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.Equal(t, models.RoleAdmin, user.Role)
	assert.NoError(t, user.CheckPassword("AdminPass123!"))

	_, err = SeedInitialData(ctx, users, admin)
	require.NoError(t, err)
}

func TestSeedInitialDataGeneratesPassword(t *testing.T) {
	ctx := context.Background()
	users := store.NewMemoryStore()

	generated, err := SeedInitialData(ctx, users, config.AdminConfig{Name: "Admin", Email: "admin@example.com"})
	require.NoError(t, err)
	require.NotEmpty(t, generated)

	user, err := users.GetUserByEmail(ctx, "admin@example.com")
	require.NoError(t, err)
	assert.NoError(t, user.CheckPassword(generated))
}

func TestSeedInitialDataWithoutEmailIsNoop(t *testing.T) {
	generated, err := SeedInitialData(context.Background(), store.NewMemoryStore(), config.AdminConfig{})
	require.NoError(t, err)
	assert.Empty(t, generated)
}

func TestNewLoggerLevels(t *testing.T) {
	for _, level := range []string{"silent", "error", "warn", "info", ""} {
		assert.NotNil(t, newLogger(level), level)
	}
}
