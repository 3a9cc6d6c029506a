// internal/handlers/errors.go
package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/i18n"
	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/services"
	"github.com/javajoker/certportal-backend/internal/utils"
)

// errorKeys localizes the message of selected error kinds.
type errorKeys map[apperrors.Kind]string

var (
	certificateErrorKeys = errorKeys{
		apperrors.KindNotFound:  i18n.KeyCertificateNotFound,
		apperrors.KindForbidden: i18n.KeyCertificateForbidden,
		apperrors.KindConflict:  i18n.KeyCertificateAlreadyDecided,
	}
	loginErrorKeys    = errorKeys{apperrors.KindUnauthenticated: i18n.KeyAuthInvalidCredentials}
	registerErrorKeys = errorKeys{apperrors.KindConflict: i18n.KeyAuthUserExists}
	profileErrorKeys  = errorKeys{apperrors.KindNotFound: i18n.KeyUserNotFound}
)

// respondError is the single translation from service errors to HTTP.
func respondError(c *gin.Context, err error) {
	respondErrorWithKeys(c, err, nil)
}

func respondErrorWithKeys(c *gin.Context, err error, keys errorKeys) {
	appErr, ok := apperrors.As(err)
	if !ok {
		appErr = apperrors.Dependency("unexpected error", err)
	}

	message := appErr.Message
	if key, ok := keys[appErr.Kind]; ok {
		message = i18n.T(utils.GetLangFromContext(c), key)
	}

	switch appErr.Kind {
	case apperrors.KindValidation:
		if len(appErr.Fields) == 0 {
			utils.BadRequestResponse(c, message, nil)
			return
		}
		utils.ValidationErrorResponse(c, appErr.Fields)
	case apperrors.KindUnauthenticated:
		utils.UnauthorizedResponse(c, message)
	case apperrors.KindForbidden:
		utils.ForbiddenResponse(c, message)
	case apperrors.KindNotFound:
		utils.ErrorResponse(c, http.StatusNotFound, "NOT_FOUND", message, nil)
	case apperrors.KindConflict:
		utils.ConflictResponse(c, message)
	default:
		logrus.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
		}).WithError(err).Error("Request failed")
		_ = c.Error(err)
		utils.InternalErrorResponse(c, "")
	}
}

// bindJSON decodes the body and writes the error response itself when the
// body is unreadable.
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			utils.ErrorResponse(c, http.StatusRequestEntityTooLarge, "PAYLOAD_TOO_LARGE", "request body too large", nil)
			return false
		}
		lang := utils.GetLangFromContext(c)
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyValidationInvalid, "input"), err.Error())
		return false
	}
	return true
}

// caller builds the service principal from the identity AuthRequired set.
func caller(c *gin.Context) services.Caller {
	userID, _ := utils.GetUserIDFromContext(c)
	role, _ := utils.GetUserRoleFromContext(c)

	id, err := uuid.Parse(userID)
	if err != nil {
		return services.Caller{}
	}
	return services.Caller{ID: id, Role: models.Role(role)}
}
