// internal/handlers/certificate.go
package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/javajoker/certportal-backend/internal/i18n"
	"github.com/javajoker/certportal-backend/internal/services"
	"github.com/javajoker/certportal-backend/internal/utils"
)

type CertificateHandler struct {
	certificateService *services.CertificateService
	statsService       *services.StatsService
	storageService     *services.StorageService
}

func NewCertificateHandler(certificateService *services.CertificateService, statsService *services.StatsService, storageService *services.StorageService) *CertificateHandler {
	return &CertificateHandler{
		certificateService: certificateService,
		statsService:       statsService,
		storageService:     storageService,
	}
}

// POST /api/certificates
func (h *CertificateHandler) Submit(c *gin.Context) {
	var req services.SubmitCertificateRequest
	if !bindJSON(c, &req) {
		return
	}

	certificate, err := h.certificateService.Submit(c.Request.Context(), caller(c), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, certificate)
}

// GET /api/certificates
func (h *CertificateHandler) List(c *gin.Context) {
	pagination, err := utils.GetPaginationParams(c)
	if err != nil {
		respondError(c, err)
		return
	}

	params := services.CertificateListParams{
		PaginationParams: pagination,
		Status:           c.Query("status"),
		CertificateType:  c.Query("certificateType"),
		Subdivision:      c.Query("subdivision"),
	}

	list, err := h.certificateService.List(c.Request.Context(), caller(c), params)
	if err != nil {
		respondError(c, err)
		return
	}

	if pagination.Enabled() {
		utils.PaginatedResponse(c, utils.CreatePaginationResult(list.Certificates, list.Total, pagination))
		return
	}
	utils.SuccessResponseWithMeta(c, list.Certificates, gin.H{"total": list.Total})
}

// GET /api/certificates/:id
func (h *CertificateHandler) Get(c *gin.Context) {
	id, ok := certificateID(c)
	if !ok {
		return
	}

	certificate, err := h.certificateService.GetByID(c.Request.Context(), caller(c), id)
	if err != nil {
		respondErrorWithKeys(c, err, certificateErrorKeys)
		return
	}

	utils.SuccessResponse(c, certificate)
}

// PUT /api/certificates/:id
func (h *CertificateHandler) Decide(c *gin.Context) {
	id, ok := certificateID(c)
	if !ok {
		return
	}

	var req services.DecideCertificateRequest
	if !bindJSON(c, &req) {
		return
	}

	certificate, err := h.certificateService.Decide(c.Request.Context(), caller(c), id, &req)
	if err != nil {
		respondErrorWithKeys(c, err, certificateErrorKeys)
		return
	}

	utils.SuccessResponse(c, certificate)
}

// GET /api/certificates/stats/dashboard
func (h *CertificateHandler) DashboardStats(c *gin.Context) {
	summary, err := h.statsService.DashboardSummary(c.Request.Context(), caller(c))
	if err != nil {
		respondError(c, err)
		return
	}

	utils.SuccessResponse(c, summary)
}

// POST /api/certificates/documents
func (h *CertificateHandler) UploadDocuments(c *gin.Context) {
	lang := utils.GetLangFromContext(c)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.storageService.MaxRequestBytes())
	form, err := c.MultipartForm()
	if err != nil {
		utils.BadRequestResponse(c, i18n.T(lang, i18n.KeyUploadNoFiles), err.Error())
		return
	}

	documents, err := h.storageService.UploadDocuments(c.Request.Context(), caller(c), form.File["documents"], form.Value["documentTypes"])
	if err != nil {
		respondError(c, err)
		return
	}

	utils.CreatedResponse(c, documents)
}

// certificateID parses the :id path parameter. A malformed id can never
// name an existing application, so it is reported as not found.
func certificateID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		utils.NotFoundResponse(c, "certificate")
		return uuid.Nil, false
	}
	return id, true
}
