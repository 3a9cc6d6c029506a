// internal/utils/validator.go
package utils

import (
	"errors"
	"reflect"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/models"
)

var validate *validator.Validate

func init() {
	validate = validator.New()
	validate.RegisterTagNameFunc(func(field reflect.StructField) string {
		name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name == "" {
			return field.Name
		}
		return name
	})
	validate.RegisterValidation("strong_password", validateStrongPassword)
	validate.RegisterValidation("certificate_type", validateCertificateType)
	validate.RegisterValidation("subdivision", validateSubdivision)
}

func ValidateStruct(s interface{}) error {
	return validate.Struct(s)
}

// Validate runs the struct validation and converts failures into a single
// validation error listing every offending field.
func Validate(s interface{}) error {
	err := validate.Struct(s)
	if err == nil {
		return nil
	}
	if fields := GetValidationErrors(err); len(fields) > 0 {
		return apperrors.Validation(fields...)
	}
	return apperrors.Dependency("failed to validate request", err)
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	password := fl.Field().String()

	if len(password) < 8 {
		return false
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool

	for _, char := range password {
		switch {
		case unicode.IsUpper(char):
			hasUpper = true
		case unicode.IsLower(char):
			hasLower = true
		case unicode.IsNumber(char):
			hasNumber = true
		case unicode.IsPunct(char) || unicode.IsSymbol(char):
			hasSpecial = true
		}
	}

	return hasUpper && hasLower && hasNumber && hasSpecial
}

func validateCertificateType(fl validator.FieldLevel) bool {
	return models.CertificateType(fl.Field().String()).Valid()
}

func validateSubdivision(fl validator.FieldLevel) bool {
	return models.Subdivision(fl.Field().String()).Valid()
}

func GetValidationErrors(err error) []apperrors.FieldError {
	var validationErrors []apperrors.FieldError

	var validationErrs validator.ValidationErrors
	if errors.As(err, &validationErrs) {
		for _, e := range validationErrs {
			validationErrors = append(validationErrors, apperrors.Field(fieldPath(e), e.Tag(), getValidationMessage(e)))
		}
	}

	return validationErrors
}

// fieldPath drops the root struct name from the namespace so nested fields
// read as "applicationData.purpose".
func fieldPath(e validator.FieldError) string {
	namespace := e.Namespace()
	if i := strings.Index(namespace, "."); i >= 0 {
		return namespace[i+1:]
	}
	return e.Field()
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return e.Field() + " is required"
	case "email":
		return "Invalid email format"
	case "url":
		return e.Field() + " must be a valid URL"
	case "min":
		return e.Field() + " must be at least " + e.Param() + " characters"
	case "max":
		return e.Field() + " must be at most " + e.Param() + " characters"
	case "oneof":
		return e.Field() + " must be one of: " + e.Param()
	case "strong_password":
		return "Password must contain at least 8 characters with uppercase, lowercase, number, and special character"
	case "certificate_type":
		return e.Field() + " is not a supported certificate type"
	case "subdivision":
		return e.Field() + " is not a supported subdivision"
	default:
		return e.Field() + " is invalid"
	}
}
