// internal/models/common.go
package models

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key;default:gen_random_uuid()"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// JSONB type for PostgreSQL
type JSONB map[string]interface{}

func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}

func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return nil
	}

	return json.Unmarshal(bytes, j)
}

// Enums
type Role string

const (
	RoleCitizen Role = "citizen"
	RoleAdmin   Role = "admin"
)

func (r Role) Valid() bool {
	return r == RoleCitizen || r == RoleAdmin
}

type CertificateStatus string

const (
	CertificateStatusPending  CertificateStatus = "pending"
	CertificateStatusApproved CertificateStatus = "approved"
	CertificateStatusRejected CertificateStatus = "rejected"
)

// CertificateStatuses lists every status in dashboard order.
var CertificateStatuses = []CertificateStatus{
	CertificateStatusPending,
	CertificateStatusApproved,
	CertificateStatusRejected,
}

func (s CertificateStatus) Valid() bool {
	for _, status := range CertificateStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// Decided reports whether the status is a terminal decision.
func (s CertificateStatus) Decided() bool {
	return s == CertificateStatusApproved || s == CertificateStatusRejected
}

type CertificateType string

const (
	CertificateTypeIncome             CertificateType = "Income Certificate"
	CertificateTypeAgeNationality     CertificateType = "Age/Nationality/Domicile"
	CertificateTypeSolvency           CertificateType = "Solvency Certificate"
	CertificateTypeSeniorCitizen      CertificateType = "Senior Citizen Certificate"
	CertificateTypeTemporaryResidence CertificateType = "Temporary Residence Certificate"
	CertificateTypeCulturalProgramme  CertificateType = "Cultural Programme Permission"
	CertificateTypeSmallLandHolder    CertificateType = "Small Land Holder Farmer Certificate"
	CertificateTypeLandless           CertificateType = "Landless Certificate"
	CertificateTypeAgriculturist      CertificateType = "Agriculturist Certificate"
	CertificateTypeHillyAreaResidence CertificateType = "Certificate of Residence in Hilly Area"
	CertificateTypeCertifiedCopy      CertificateType = "Certified Copy"
	CertificateTypeGeneralAffidavit   CertificateType = "General Affidavit"
	CertificateTypeBirth              CertificateType = "Birth Certificate"
	CertificateTypeCommunity          CertificateType = "Community Certificate"
)

var CertificateTypes = []CertificateType{
	CertificateTypeIncome,
	CertificateTypeAgeNationality,
	CertificateTypeSolvency,
	CertificateTypeSeniorCitizen,
	CertificateTypeTemporaryResidence,
	CertificateTypeCulturalProgramme,
	CertificateTypeSmallLandHolder,
	CertificateTypeLandless,
	CertificateTypeAgriculturist,
	CertificateTypeHillyAreaResidence,
	CertificateTypeCertifiedCopy,
	CertificateTypeGeneralAffidavit,
	CertificateTypeBirth,
	CertificateTypeCommunity,
}

func (t CertificateType) Valid() bool {
	for _, certificateType := range CertificateTypes {
		if t == certificateType {
			return true
		}
	}
	return false
}

type Subdivision string

const (
	SubdivisionAlandur        Subdivision = "Alandur"
	SubdivisionAmbattur       Subdivision = "Ambattur"
	SubdivisionAnnaNagar      Subdivision = "Anna Nagar"
	SubdivisionAdyar          Subdivision = "Adyar"
	SubdivisionKodambakkam    Subdivision = "Kodambakkam"
	SubdivisionMadhavaram     Subdivision = "Madhavaram"
	SubdivisionPerungudi      Subdivision = "Perungudi"
	SubdivisionSholinganallur Subdivision = "Sholinganallur"
	SubdivisionTeynampet      Subdivision = "Teynampet"
	SubdivisionThiruvottiyur  Subdivision = "Thiruvottiyur"
	SubdivisionTondiarpet     Subdivision = "Tondiarpet"
	SubdivisionVelachery      Subdivision = "Velachery"
)

var Subdivisions = []Subdivision{
	SubdivisionAlandur,
	SubdivisionAmbattur,
	SubdivisionAnnaNagar,
	SubdivisionAdyar,
	SubdivisionKodambakkam,
	SubdivisionMadhavaram,
	SubdivisionPerungudi,
	SubdivisionSholinganallur,
	SubdivisionTeynampet,
	SubdivisionThiruvottiyur,
	SubdivisionTondiarpet,
	SubdivisionVelachery,
}

func (s Subdivision) Valid() bool {
	for _, subdivision := range Subdivisions {
		if s == subdivision {
			return true
		}
	}
	return false
}

func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}
