// internal/models/certificate.go
package models

import (
	"time"

	"github.com/google/uuid"
)

// ApplicationData is the applicant-supplied payload. Extra carries the fields
// that only some certificate types ask for.
type ApplicationData struct {
	Purpose     string `json:"purpose" validate:"required,min=10"`
	Details     string `json:"details" validate:"required,min=20"`
	Declaration bool   `json:"declaration" validate:"required"`
	Extra       JSONB  `json:"extra,omitempty"`
}

type SupportingDocument struct {
	DocumentType string    `json:"documentType" validate:"required,max=100"`
	DocumentURL  string    `json:"documentUrl" validate:"required,url"`
	UploadedAt   time.Time `json:"uploadedAt"`
}

type Certificate struct {
	BaseModel
	ApplicantID         uuid.UUID            `json:"applicantId" gorm:"type:uuid;not null;index:idx_certificates_applicant_status,priority:1"`
	CertificateType     CertificateType      `json:"certificateType" gorm:"type:varchar(64);not null;index:idx_certificates_type_status,priority:1"`
	Subdivision         Subdivision          `json:"subdivision" gorm:"type:varchar(32);not null"`
	Status              CertificateStatus    `json:"status" gorm:"type:varchar(20);not null;default:'pending';index:idx_certificates_applicant_status,priority:2;index:idx_certificates_type_status,priority:2"`
	ApplicationData     *ApplicationData     `json:"applicationData" gorm:"type:jsonb;serializer:json;not null"`
	SupportingDocuments []SupportingDocument `json:"supportingDocuments" gorm:"type:jsonb;serializer:json"`
	AdminRemarks        string               `json:"adminRemarks" gorm:"type:text;not null;default:''"`
	ProcessedByID       *uuid.UUID           `json:"processedById,omitempty" gorm:"type:uuid"`
	ProcessedAt         *time.Time           `json:"processedAt,omitempty"`
	ApplicationDate     time.Time            `json:"applicationDate" gorm:"not null;index:idx_certificates_application_date,sort:desc"`

	// Relationships
	ApplicantUser *User `json:"-" gorm:"foreignKey:ApplicantID"`
	ProcessorUser *User `json:"-" gorm:"foreignKey:ProcessedByID"`

	// Resolved display fields, filled from the relationships above.
	Applicant   *UserRef `json:"applicant,omitempty" gorm:"-"`
	ProcessedBy *UserRef `json:"processedBy,omitempty" gorm:"-"`
}

// ResolveRefs copies the loaded relationships into their display projections.
// The applicant keeps the email, the processor only exposes its name.
func (c *Certificate) ResolveRefs() {
	if c.ApplicantUser != nil {
		c.Applicant = c.ApplicantUser.Ref(true)
	}
	if c.ProcessorUser != nil {
		c.ProcessedBy = c.ProcessorUser.Ref(false)
	}
}

func (c *Certificate) OwnedBy(userID uuid.UUID) bool {
	return c.ApplicantID == userID
}
