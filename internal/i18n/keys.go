// internal/i18n/keys.go
package i18n

// Translation keys constants
const (
	// Authentication
	KeyAuthRequired           = "auth.required"
	KeyAuthInvalidToken       = "auth.invalid_token"
	KeyAuthTokenRevoked       = "auth.token_revoked"
	KeyAuthInvalidCredentials = "auth.invalid_credentials"
	KeyAuthUserExists         = "auth.user_exists"
	KeyAuthLogoutSuccess      = "auth.logout_success"

	// Users
	KeyUserNotFound = "user.not_found"

	// Certificates
	KeyCertificateNotFound       = "certificate.not_found"
	KeyCertificateForbidden      = "certificate.forbidden"
	KeyCertificateAlreadyDecided = "certificate.already_decided"

	// Uploads
	KeyUploadNoFiles     = "upload.no_files"

	// Admin
	KeyAdminAccessDenied = "admin.access_denied"

	// Validation
	KeyValidationInvalid = "validation.invalid"

	// System
	KeyInternalError = "system.internal_error"
	KeyRateLimited   = "system.rate_limited"
)
