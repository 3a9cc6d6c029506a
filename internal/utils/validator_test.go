package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/certportal-backend/internal/apperrors"
)

type nestedPayload struct {
	Purpose string `json:"purpose" validate:"required,min=10"`
}

type samplePayload struct {
	CertificateType string         `json:"certificateType" validate:"required,certificate_type"`
	Subdivision     string         `json:"subdivision" validate:"required,subdivision"`
	Password        string         `json:"password" validate:"omitempty,strong_password"`
	Data            *nestedPayload `json:"applicationData" validate:"required"`
}

func TestValidateReportsEveryFieldByJSONName(t *testing.T) {
	err := Validate(&samplePayload{
		CertificateType: "Driving Licence",
		Subdivision:     "Mylapore",
		Password:        "weak",
		Data:            &nestedPayload{Purpose: "short"},
	})
	require.Error(t, err)

	appErr, ok := apperrors.As(err)
	require.True(t, ok)
	assert.Equal(t, apperrors.KindValidation, appErr.Kind)

	fields := map[string]string{}
	for _, f := range appErr.Fields {
		fields[f.Field] = f.Tag
	}
	assert.Equal(t, map[string]string{
		"certificateType":         "certificate_type",
		"subdivision":             "subdivision",
		"password":                "strong_password",
		"applicationData.purpose": "min",
	}, fields)
}

func TestValidateAcceptsCatalogValues(t *testing.T) {
	err := Validate(&samplePayload{
		CertificateType: "Community Certificate",
		Subdivision:     "Anna Nagar",
		Password:        "Str0ng!Pass",
		Data:            &nestedPayload{Purpose: "Admission to college"},
	})
	assert.NoError(t, err)
}
