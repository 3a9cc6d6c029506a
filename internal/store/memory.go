// internal/store/memory.go
package store

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/javajoker/certportal-backend/internal/models"
)

// MemoryStore keeps everything in process. It backs the unit tests and
// local runs without a database.
type MemoryStore struct {
	mu           sync.RWMutex
	users        map[uuid.UUID]*models.User
	emails       map[string]uuid.UUID
	certificates map[uuid.UUID]*models.Certificate
	auditLogs    []models.AuditLog
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:        make(map[uuid.UUID]*models.User),
		emails:       make(map[string]uuid.UUID),
		certificates: make(map[uuid.UUID]*models.Certificate),
	}
}

func (s *MemoryStore) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (s *MemoryStore) CreateCertificate(ctx context.Context, certificate *models.Certificate) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if certificate.ID == uuid.Nil {
		certificate.ID = uuid.New()
	}
	now := time.Now()
	if certificate.CreatedAt.IsZero() {
		certificate.CreatedAt = now
	}
	certificate.UpdatedAt = certificate.CreatedAt
	if certificate.Status == "" {
		certificate.Status = models.CertificateStatusPending
	}

	stored := cloneCertificate(certificate)
	stored.ApplicantUser = nil
	stored.ProcessorUser = nil
	stored.Applicant = nil
	stored.ProcessedBy = nil
	s.certificates[certificate.ID] = stored
	return nil
}

func (s *MemoryStore) GetCertificate(ctx context.Context, id uuid.UUID) (*models.Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	certificate, ok := s.certificates[id]
	if !ok {
		return nil, ErrNotFound
	}
	return s.resolved(certificate), nil
}

func (s *MemoryStore) ListCertificates(ctx context.Context, filter CertificateFilter) ([]models.Certificate, int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, 0, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []*models.Certificate
	for _, certificate := range s.certificates {
		if filter.ApplicantID != nil && certificate.ApplicantID != *filter.ApplicantID {
			continue
		}
		if filter.Status != nil && certificate.Status != *filter.Status {
			continue
		}
		if filter.CertificateType != nil && certificate.CertificateType != *filter.CertificateType {
			continue
		}
		if filter.Subdivision != nil && certificate.Subdivision != *filter.Subdivision {
			continue
		}
		matched = append(matched, certificate)
	}

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].ApplicationDate.Equal(matched[j].ApplicationDate) {
			return matched[i].ApplicationDate.After(matched[j].ApplicationDate)
		}
		return strings.Compare(matched[i].ID.String(), matched[j].ID.String()) < 0
	})

	total := int64(len(matched))
	if filter.Limit > 0 {
		start := filter.Offset
		if start > len(matched) {
			start = len(matched)
		}
		end := start + filter.Limit
		if end > len(matched) {
			end = len(matched)
		}
		matched = matched[start:end]
	}

	certificates := make([]models.Certificate, 0, len(matched))
	for _, certificate := range matched {
		certificates = append(certificates, *s.resolved(certificate))
	}
	return certificates, total, nil
}

func (s *MemoryStore) DecideCertificate(ctx context.Context, id uuid.UUID, decision Decision) (*models.Certificate, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	certificate, ok := s.certificates[id]
	if !ok {
		return nil, ErrNotFound
	}
	if certificate.Status != models.CertificateStatusPending {
		return nil, ErrConflict
	}

	processedBy := decision.ProcessedByID
	processedAt := decision.ProcessedAt
	certificate.Status = decision.Status
	certificate.AdminRemarks = decision.AdminRemarks
	certificate.ProcessedByID = &processedBy
	certificate.ProcessedAt = &processedAt
	certificate.UpdatedAt = processedAt

	return s.resolved(certificate), nil
}

func (s *MemoryStore) CountByStatus(ctx context.Context) (map[models.CertificateStatus]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.CertificateStatus]int64)
	for _, certificate := range s.certificates {
		counts[certificate.Status]++
	}
	return counts, nil
}

func (s *MemoryStore) CountByType(ctx context.Context) (map[models.CertificateType]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[models.CertificateType]int64)
	for _, certificate := range s.certificates {
		counts[certificate.CertificateType]++
	}
	return counts, nil
}

func (s *MemoryStore) CountByDay(ctx context.Context, since time.Time) (map[string]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[string]int64)
	for _, certificate := range s.certificates {
		if certificate.ApplicationDate.Before(since) {
			continue
		}
		counts[DayKey(certificate.ApplicationDate)]++
	}
	return counts, nil
}

func (s *MemoryStore) CreateUser(ctx context.Context, user *models.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.emails[email]; exists {
		return ErrConflict
	}

	if user.ID == uuid.Nil {
		user.ID = uuid.New()
	}
	if user.Role == "" {
		user.Role = models.RoleCitizen
	}
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	stored := *user
	s.users[user.ID] = &stored
	s.emails[email] = user.ID
	return nil
}

func (s *MemoryStore) GetUserByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, ErrNotFound
	}
	found := *user
	return &found, nil
}

func (s *MemoryStore) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[strings.ToLower(email)]
	if !ok {
		return nil, ErrNotFound
	}
	found := *s.users[id]
	return &found, nil
}

func (s *MemoryStore) TouchLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return ErrNotFound
	}
	user.LastLoginAt = &at
	return nil
}

func (s *MemoryStore) CreateAuditLog(ctx context.Context, entry *models.AuditLog) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()
	s.auditLogs = append(s.auditLogs, *entry)
	return nil
}

// AuditLogs returns a snapshot of recorded audit entries.
func (s *MemoryStore) AuditLogs() []models.AuditLog {
	s.mu.RLock()
	defer s.mu.RUnlock()

	logs := make([]models.AuditLog, len(s.auditLogs))
	copy(logs, s.auditLogs)
	return logs
}

// resolved must be called with s.mu held.
func (s *MemoryStore) resolved(certificate *models.Certificate) *models.Certificate {
	out := cloneCertificate(certificate)
	out.ApplicantUser = nil
	out.ProcessorUser = nil
	if applicant, ok := s.users[certificate.ApplicantID]; ok {
		out.Applicant = applicant.Ref(true)
	}
	if certificate.ProcessedByID != nil {
		if processor, ok := s.users[*certificate.ProcessedByID]; ok {
			out.ProcessedBy = processor.Ref(false)
		}
	}
	return out
}

func cloneCertificate(certificate *models.Certificate) *models.Certificate {
	out := *certificate
	if certificate.ApplicationData != nil {
		data := *certificate.ApplicationData
		if certificate.ApplicationData.Extra != nil {
			data.Extra = make(models.JSONB, len(certificate.ApplicationData.Extra))
			for k, v := range certificate.ApplicationData.Extra {
				data.Extra[k] = v
			}
		}
		out.ApplicationData = &data
	}
	if certificate.SupportingDocuments != nil {
		out.SupportingDocuments = make([]models.SupportingDocument, len(certificate.SupportingDocuments))
		copy(out.SupportingDocuments, certificate.SupportingDocuments)
	}
	if certificate.ProcessedByID != nil {
		id := *certificate.ProcessedByID
		out.ProcessedByID = &id
	}
	if certificate.ProcessedAt != nil {
		at := *certificate.ProcessedAt
		out.ProcessedAt = &at
	}
	return &out
}
