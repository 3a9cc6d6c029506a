// internal/services/certificate_service.go
package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/metrics"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/store"
	"github.com/javajoker/certportal-backend/internal/utils"
)

// DecisionNotifier is told about every decided application.
type DecisionNotifier interface {
	NotifyDecision(ctx context.Context, certificate *models.Certificate) error
}

type CertificateService struct {
	store    store.CertificateStore
	notifier DecisionNotifier
	metrics  *metrics.Metrics
	now      func() time.Time
}

type SubmitCertificateRequest struct {
	CertificateType     models.CertificateType      `json:"certificateType" validate:"required,certificate_type"`
	Subdivision         models.Subdivision          `json:"subdivision" validate:"required,subdivision"`
	ApplicationData     *models.ApplicationData     `json:"applicationData" validate:"required"`
	SupportingDocuments []models.SupportingDocument `json:"supportingDocuments" validate:"omitempty,dive"`
}

type DecideCertificateRequest struct {
	Status       models.CertificateStatus `json:"status" validate:"required,oneof=approved rejected"`
	AdminRemarks string                   `json:"adminRemarks" validate:"max=2000"`
}

type CertificateListParams struct {
	utils.PaginationParams
	Status          string
	CertificateType string
	Subdivision     string
}

type CertificateList struct {
	Certificates []models.Certificate
	Total        int64
}

func NewCertificateService(certificates store.CertificateStore, notifier DecisionNotifier, m *metrics.Metrics) *CertificateService {
	return &CertificateService{
		store:    certificates,
		notifier: notifier,
		metrics:  m,
		now:      time.Now,
	}
}

func (s *CertificateService) Submit(ctx context.Context, caller Caller, req *SubmitCertificateRequest) (*models.Certificate, error) {
	if err := caller.require(models.RoleCitizen, ""); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation(apperrors.Field("body", "required", "request body is required"))
	}
	if err := utils.Validate(req); err != nil {
		return nil, err
	}

	now := s.now().UTC()

	documents := make([]models.SupportingDocument, 0, len(req.SupportingDocuments))
	for _, doc := range req.SupportingDocuments {
		if doc.UploadedAt.IsZero() {
			doc.UploadedAt = now
		}
		documents = append(documents, doc)
	}

	data := *req.ApplicationData
	certificate := &models.Certificate{
		BaseModel:           models.BaseModel{ID: uuid.New(), CreatedAt: now, UpdatedAt: now},
		ApplicantID:         caller.ID,
		CertificateType:     req.CertificateType,
		Subdivision:         req.Subdivision,
		Status:              models.CertificateStatusPending,
		ApplicationData:     &data,
		SupportingDocuments: documents,
		ApplicationDate:     now,
	}

	if err := s.store.CreateCertificate(ctx, certificate); err != nil {
		return nil, apperrors.Dependency("failed to create certificate application", err)
	}
	s.metrics.IncrementSubmitted(string(certificate.CertificateType))

	created, err := s.store.GetCertificate(ctx, certificate.ID)
	if err != nil {
		return nil, apperrors.Dependency("failed to load certificate application", err)
	}
	return created, nil
}

func (s *CertificateService) List(ctx context.Context, caller Caller, params CertificateListParams) (*CertificateList, error) {
	if err := caller.require(models.RoleCitizen, ""); err != nil {
		return nil, err
	}

	filter, err := params.filter()
	if err != nil {
		return nil, err
	}
	if !caller.IsAdmin() {
		applicantID := caller.ID
		filter.ApplicantID = &applicantID
	}

	certificates, total, err := s.store.ListCertificates(ctx, filter)
	if err != nil {
		return nil, apperrors.Dependency("failed to list certificate applications", err)
	}
	if certificates == nil {
		certificates = []models.Certificate{}
	}
	return &CertificateList{Certificates: certificates, Total: total}, nil
}

func (s *CertificateService) GetByID(ctx context.Context, caller Caller, id uuid.UUID) (*models.Certificate, error) {
	if err := caller.require(models.RoleCitizen, ""); err != nil {
		return nil, err
	}

	certificate, err := s.store.GetCertificate(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperrors.NotFound("certificate application")
		}
		return nil, apperrors.Dependency("failed to load certificate application", err)
	}

	if !caller.IsAdmin() && !certificate.OwnedBy(caller.ID) {
		return nil, apperrors.Forbidden("not authorized to view this application")
	}
	return certificate, nil
}

func (s *CertificateService) Decide(ctx context.Context, caller Caller, id uuid.UUID, req *DecideCertificateRequest) (*models.Certificate, error) {
	if err := caller.require(models.RoleAdmin, "only administrators can decide applications"); err != nil {
		return nil, err
	}
	if req == nil {
		return nil, apperrors.Validation(apperrors.Field("body", "required", "request body is required"))
	}
	if err := validateDecision(req); err != nil {
		return nil, err
	}

	decided, err := s.store.DecideCertificate(ctx, id, store.Decision{
		Status:        req.Status,
		AdminRemarks:  strings.TrimSpace(req.AdminRemarks),
		ProcessedByID: caller.ID,
		ProcessedAt:   s.now().UTC(),
	})
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return nil, apperrors.NotFound("certificate application")
		case errors.Is(err, store.ErrConflict):
			s.metrics.IncrementDecisionConflict()
			return nil, apperrors.Conflict("certificate application already processed")
		default:
			return nil, apperrors.Dependency("failed to decide certificate application", err)
		}
	}
	s.metrics.IncrementDecided(string(decided.Status))

	if s.notifier != nil {
		go s.notifyDecision(decided)
	}
	return decided, nil
}

func (s *CertificateService) notifyDecision(certificate *models.Certificate) {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := s.notifier.NotifyDecision(ctx, certificate); err != nil {
		logrus.WithFields(logrus.Fields{
			"certificate_id": certificate.ID,
			"status":         certificate.Status,
		}).WithError(err).Warn("Failed to send decision notification")
	}
}

// validateDecision reports struct violations and the rejection-remarks rule
// together.
func validateDecision(req *DecideCertificateRequest) error {
	var fields []apperrors.FieldError
	if err := utils.ValidateStruct(req); err != nil {
		fields = utils.GetValidationErrors(err)
		if len(fields) == 0 {
			return apperrors.Dependency("failed to validate decision", err)
		}
	}
	if req.Status == models.CertificateStatusRejected && strings.TrimSpace(req.AdminRemarks) == "" {
		fields = append(fields, apperrors.Field("adminRemarks", "required", "adminRemarks is required when rejecting an application"))
	}
	if len(fields) > 0 {
		return apperrors.Validation(fields...)
	}
	return nil
}

func (p CertificateListParams) filter() (store.CertificateFilter, error) {
	filter := store.CertificateFilter{}
	var fields []apperrors.FieldError

	if p.Status != "" {
		status := models.CertificateStatus(p.Status)
		if status.Valid() {
			filter.Status = &status
		} else {
			fields = append(fields, apperrors.Field("status", "oneof", "status must be one of: pending approved rejected"))
		}
	}
	if p.CertificateType != "" {
		certificateType := models.CertificateType(p.CertificateType)
		if certificateType.Valid() {
			filter.CertificateType = &certificateType
		} else {
			fields = append(fields, apperrors.Field("certificateType", "certificate_type", "certificateType is not a supported certificate type"))
		}
	}
	if p.Subdivision != "" {
		subdivision := models.Subdivision(p.Subdivision)
		if subdivision.Valid() {
			filter.Subdivision = &subdivision
		} else {
			fields = append(fields, apperrors.Field("subdivision", "subdivision", "subdivision is not a supported subdivision"))
		}
	}
	if len(fields) > 0 {
		return filter, apperrors.Validation(fields...)
	}

	if p.Enabled() {
		filter.Offset = p.Offset()
		filter.Limit = p.Limit
	}
	return filter, nil
}
