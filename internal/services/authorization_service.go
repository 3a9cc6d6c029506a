// internal/services/authorization_service.go
package services

import (
	"github.com/google/uuid"

	"github.com/javajoker/certportal-backend/internal/apperrors"
	"github.com/javajoker/certportal-backend/internal/models"
)

type AuthorizationResult int

const (
	Forbidden AuthorizationResult = iota
	Authorized
)

// Authorize is the single role check used by services and middleware.
// Admins satisfy every requirement; citizens only the citizen requirement.
func Authorize(callerRole, requiredRole models.Role) AuthorizationResult {
	if !callerRole.Valid() || !requiredRole.Valid() {
		return Forbidden
	}
	if callerRole == models.RoleAdmin || callerRole == requiredRole {
		return Authorized
	}
	return Forbidden
}

// Caller is the authenticated principal a service call runs on behalf of.
type Caller struct {
	ID   uuid.UUID
	Role models.Role
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

func (c Caller) require(role models.Role, message string) error {
	if c.ID == uuid.Nil || Authorize(c.Role, role) != Authorized {
		return apperrors.Forbidden(message)
	}
	return nil
}
