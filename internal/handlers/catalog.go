// internal/handlers/catalog.go
package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/javajoker/certportal-backend/internal/models"
	"github.com/javajoker/certportal-backend/internal/utils"
)

// GET /api/catalog
func GetCatalog(c *gin.Context) {
	utils.SuccessResponse(c, gin.H{
		"certificateTypes": models.CertificateTypes,
		"subdivisions":     models.Subdivisions,
		"statuses":         models.CertificateStatuses,
	})
}
