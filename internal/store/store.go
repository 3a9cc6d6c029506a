// internal/store/store.go
package store

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/certportal-backend/internal/models"
)

var (
	ErrNotFound = errors.New("record not found")
	// ErrConflict is returned when a write loses to the current row state,
	// e.g. deciding an application that is no longer pending or registering
	// an email that already exists.
	ErrConflict = errors.New("record state conflict")
)

// CertificateFilter narrows a listing. Zero values mean "no constraint";
// a Limit of 0 returns every matching row.
type CertificateFilter struct {
	ApplicantID     *uuid.UUID
	Status          *models.CertificateStatus
	CertificateType *models.CertificateType
	Subdivision     *models.Subdivision
	Offset          int
	Limit           int
}

// Decision is the set of fields written when an admin decides a pending
// application.
type Decision struct {
	Status        models.CertificateStatus
	AdminRemarks  string
	ProcessedByID uuid.UUID
	ProcessedAt   time.Time
}

type CertificateStore interface {
	CreateCertificate(ctx context.Context, certificate *models.Certificate) error
	// GetCertificate returns the application with applicant and processor resolved.
	GetCertificate(ctx context.Context, id uuid.UUID) (*models.Certificate, error)
	// ListCertificates returns one page ordered by application date, newest
	// first, and the total number of rows matching the filter.
	ListCertificates(ctx context.Context, filter CertificateFilter) ([]models.Certificate, int64, error)
	// DecideCertificate applies the decision only if the row is still pending.
	// It returns ErrNotFound or ErrConflict when nothing was written.
	DecideCertificate(ctx context.Context, id uuid.UUID, decision Decision) (*models.Certificate, error)

	CountByStatus(ctx context.Context) (map[models.CertificateStatus]int64, error)
	CountByType(ctx context.Context) (map[models.CertificateType]int64, error)
	// CountByDay buckets applications dated at or after since by UTC day (YYYY-MM-DD).
	CountByDay(ctx context.Context, since time.Time) (map[string]int64, error)
}

type UserStore interface {
	CreateUser(ctx context.Context, user *models.User) error
	GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error
}

type AuditStore interface {
	CreateAuditLog(ctx context.Context, entry *models.AuditLog) error
}

// Store bundles every persistence concern the server needs.
type Store interface {
	CertificateStore
	UserStore
	AuditStore
	Ping(ctx context.Context) error
}

// DayKey formats t as the UTC calendar day used by the daily trend buckets.
func DayKey(t time.Time) string {
	return t.UTC().Format("2006-01-02")
}

var (
	_ Store = (*GormStore)(nil)
	_ Store = (*MemoryStore)(nil)
)
