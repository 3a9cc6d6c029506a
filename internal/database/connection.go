// internal/database/connection.go
package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/javajoker/certportal-backend/internal/config"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/store"
	"github.com/javajoker/certportal-backend/internal/utils"
)

func Initialize(cfg config.DatabaseConfig) (*gorm.DB, error) {
	gormConfig := &gorm.Config{
		Logger:         newLogger(cfg.LogLevel),
		TranslateError: true,
	}

	db, err := gorm.Open(postgres.Open(cfg.DSN()), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Get underlying sql.DB
	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	// Configure connection pool
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.MaxLifetime) * time.Second)

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logrus.WithFields(logrus.Fields{
		"host":     cfg.Host,
		"database": cfg.Database,
	}).Info("Database connection established")
	return db, nil
}

// newLogger routes gorm's output through logrus.
func newLogger(level string) logger.Interface {
	var logLevel logger.LogLevel
	switch level {
	case "silent":
		logLevel = logger.Silent
	case "error":
		logLevel = logger.Error
	case "info":
		logLevel = logger.Info
	default:
		logLevel = logger.Warn
	}

	return logger.New(logrus.StandardLogger(), logger.Config{
		SlowThreshold:             200 * time.Millisecond,
		LogLevel:                  logLevel,
		IgnoreRecordNotFoundError: true,
	})
}

func Close(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		logrus.WithError(err).Error("Error getting underlying sql.DB")
		return
	}

	if err := sqlDB.Close(); err != nil {
		logrus.WithError(err).Error("Error closing database connection")
	} else {
		logrus.Info("Database connection closed")
	}
}

func RunMigrations(db *gorm.DB) error {
	logrus.Info("Running database migrations...")

	if err := db.Exec(`CREATE EXTENSION IF NOT EXISTS "pgcrypto"`).Error; err != nil {
		return fmt.Errorf("failed to create pgcrypto extension: %w", err)
	}

	err := db.AutoMigrate(
		&models.User{},
		&models.Certificate{},
		&models.AuditLog{},
	)
	if err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	if err := WithTransaction(db, createIndexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	logrus.Info("Database migrations completed")
	return nil
}

// createIndexes adds the indexes that struct tags cannot express.
func createIndexes(tx *gorm.DB) error {
	indexes := []string{
		// Review queue
		"CREATE INDEX IF NOT EXISTS idx_certificates_pending ON certificates(application_date DESC) WHERE status = 'pending'",
		"CREATE INDEX IF NOT EXISTS idx_certificates_processed_by ON certificates(processed_by_id) WHERE processed_by_id IS NOT NULL",

		// Audit indexes
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_user_action ON audit_logs(user_id, action)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_resource ON audit_logs(resource_type, resource_id)",
		"CREATE INDEX IF NOT EXISTS idx_audit_logs_created ON audit_logs(created_at DESC)",
	}

	for _, index := range indexes {
		if err := tx.Exec(index).Error; err != nil {
			return fmt.Errorf("%s: %w", index, err)
		}
	}
	return nil
}

// SeedInitialData creates the configured administrator account unless a user
// with that email already exists. When no password is configured a random
// one is generated and returned so the operator can log in once.
func SeedInitialData(ctx context.Context, users store.UserStore, admin config.AdminConfig) (string, error) {
	email := strings.ToLower(strings.TrimSpace(admin.Email))
	if email == "" {
		return "", nil
	}

	if _, err := users.GetUserByEmail(ctx, email); err == nil {
		return "", nil
	} else if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("failed to look up admin user: %w", err)
	}

	password := admin.Password
	generated := ""
	if password == "" {
		var err error
		if password, err = utils.GeneratePassword(); err != nil {
			return "", fmt.Errorf("failed to generate admin password: %w", err)
		}
		generated = password
	}

	user := &models.User{
		Name:  admin.Name,
		Email: email,
		Role:  models.RoleAdmin,
	}
	if err := user.SetPassword(password); err != nil {
		return "", fmt.Errorf("failed to set admin password: %w", err)
	}

	if err := users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, store.ErrConflict) {
			// Another instance seeded concurrently.
			return "", nil
		}
		return "", fmt.Errorf("failed to create admin user: %w", err)
	}

	logrus.WithField("email", email).Info("Default admin user created")
	return generated, nil
}

// Transaction helper
func WithTransaction(db *gorm.DB, fn func(*gorm.DB) error) error {
	tx := db.Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		tx.Rollback()
		return err
	}

	return tx.Commit().Error
}
