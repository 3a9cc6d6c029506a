// internal/store/gorm.go
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/javajoker/certportal-backend/internal/models"
)

// GormStore persists users, applications and audit logs in PostgreSQL.
type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Ping(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

func (s *GormStore) CreateCertificate(ctx context.Context, certificate *models.Certificate) error {
	if err := s.db.WithContext(ctx).Omit("ApplicantUser", "ProcessorUser").Create(certificate).Error; err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}
	return nil
}

func (s *GormStore) GetCertificate(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	var certificate models.Certificate
	err := s.db.WithContext(ctx).
		Preload("ApplicantUser").
		Preload("ProcessorUser").
		First(&certificate, "id = ?", id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get certificate: %w", err)
	}
	certificate.ResolveRefs()
	return &certificate, nil
}

func (s *GormStore) ListCertificates(ctx context.Context, filter CertificateFilter) ([]models.Certificate, int64, error) {
	query := s.db.WithContext(ctx).Model(&models.Certificate{})

	if filter.ApplicantID != nil {
		query = query.Where("applicant_id = ?", *filter.ApplicantID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CertificateType != nil {
		query = query.Where("certificate_type = ?", *filter.CertificateType)
	}
	if filter.Subdivision != nil {
		query = query.Where("subdivision = ?", *filter.Subdivision)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count certificates: %w", err)
	}

	query = query.Preload("ApplicantUser").Preload("ProcessorUser").
		Order("application_date DESC").Order("id")
	if filter.Limit > 0 {
		query = query.Offset(filter.Offset).Limit(filter.Limit)
	}

	var certificates []models.Certificate
	if err := query.Find(&certificates).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list certificates: %w", err)
	}

	for i := range certificates {
		certificates[i].ResolveRefs()
	}
	return certificates, total, nil
}

func (s *GormStore) DecideCertificate(ctx context.Context, id uuid.UUID, decision Decision) (*models.Certificate, error) {
	// Single conditional write; the status predicate makes concurrent
	// decisions on the same row mutually exclusive.
	result := s.db.WithContext(ctx).Model(&models.Certificate{}).
		Where("id = ? AND status = ?", id, models.CertificateStatusPending).
		Updates(map[string]interface{}{
			"status":          decision.Status,
			"admin_remarks":   decision.AdminRemarks,
			"processed_by_id": decision.ProcessedByID,
			"processed_at":    decision.ProcessedAt,
			"updated_at":      decision.ProcessedAt,
		})
	if result.Error != nil {
		return nil, fmt.Errorf("failed to decide certificate: %w", result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&models.Certificate{}).Where("id = ?", id).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("failed to check certificate: %w", err)
		}
		if count == 0 {
			return nil, ErrNotFound
		}
		return nil, ErrConflict
	}

	return s.GetCertificate(ctx, id)
}

func (s *GormStore) CountByStatus(ctx context.Context) (map[models.CertificateStatus]int64, error) {
	var rows []struct {
		Status models.CertificateStatus
		Count  int64
	}
	err := s.db.WithContext(ctx).Model(&models.Certificate{}).
		Select("status, COUNT(*) AS count").
		Group("status").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count certificates by status: %w", err)
	}

	counts := make(map[models.CertificateStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

func (s *GormStore) CountByType(ctx context.Context) (map[models.CertificateType]int64, error) {
	var rows []struct {
		CertificateType models.CertificateType
		Count           int64
	}
	err := s.db.WithContext(ctx).Model(&models.Certificate{}).
		Select("certificate_type, COUNT(*) AS count").
		Group("certificate_type").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count certificates by type: %w", err)
	}

	counts := make(map[models.CertificateType]int64, len(rows))
	for _, row := range rows {
		counts[row.CertificateType] = row.Count
	}
	return counts, nil
}

func (s *GormStore) CountByDay(ctx context.Context, since time.Time) (map[string]int64, error) {
	var rows []struct {
		Day   string
		Count int64
	}
	err := s.db.WithContext(ctx).Model(&models.Certificate{}).
		Select("to_char(application_date AT TIME ZONE 'UTC', 'YYYY-MM-DD') AS day, COUNT(*) AS count").
		Where("application_date >= ?", since).
		Group("day").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to count certificates by day: %w", err)
	}

	counts := make(map[string]int64, len(rows))
	for _, row := range rows {
		counts[row.Day] = row.Count
	}
	return counts, nil
}

func (s *GormStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := s.db.WithContext(ctx).Create(user).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrConflict
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

func (s *GormStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *GormStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	err := s.db.WithContext(ctx).Model(&models.User{}).
		Where("id = ?", id).
		Update("last_login_at", at).Error
	if err != nil {
		return fmt.Errorf("failed to update last login: %w", err)
	}
	return nil
}

func (s *GormStore) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if err := s.db.WithContext(ctx).Create(entry).Error; err != nil {
		return fmt.Errorf("failed to create audit log: %w", err)
	}
	return nil
}
