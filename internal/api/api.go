package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/edutec-labs/certgen-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxUploadSize limita el tamaño de archivos subidos (fondos y lotes)
const maxUploadSize = 20 << 20 // 20 MB

// API maneja todos los endpoints de la API
type API struct {
	templateService    *services.TemplateService
	certificateService *services.CertificateService
	batchService       *services.BatchService
	logger             *logrus.Logger
}

// NewAPI crea una nueva instancia de la API
func NewAPI(
	templateService *services.TemplateService,
	certificateService *services.CertificateService,
	batchService *services.BatchService,
	logger *logrus.Logger,
) *API {
	return &API{
		templateService:    templateService,
		certificateService: certificateService,
		batchService:       batchService,
		logger:             logger,
	}
}

// CreateTemplate crea una nueva plantilla de certificado
func (api *API) CreateTemplate(c *gin.Context) {
	var req models.CreateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding create template request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	template, err := api.templateService.Create(&req)
	if err != nil {
		api.respondError(c, err, "Error creating template")
		return
	}

	c.JSON(http.StatusCreated, template)
}

// GetTemplate obtiene una plantilla por ID
func (api *API) GetTemplate(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	template, err := api.templateService.GetByID(id)
	if err != nil {
		api.respondError(c, err, "Error retrieving template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// GetActiveTemplate obtiene la plantilla activa
func (api *API) GetActiveTemplate(c *gin.Context) {
	template, err := api.templateService.GetActive()
	if err != nil {
		api.respondError(c, err, "Error retrieving active template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// ListTemplates lista todas las plantillas
func (api *API) ListTemplates(c *gin.Context) {
	response, err := api.templateService.List()
	if err != nil {
		api.respondError(c, err, "Error listing templates")
		return
	}

	c.JSON(http.StatusOK, response)
}

// UpdateTemplate actualiza una plantilla existente
func (api *API) UpdateTemplate(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	var req models.UpdateTemplateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding update template request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	template, err := api.templateService.Update(id, &req)
	if err != nil {
		api.respondError(c, err, "Error updating template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// ActivateTemplate marca una plantilla como la activa
func (api *API) ActivateTemplate(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	template, err := api.templateService.Activate(id)
	if err != nil {
		api.respondError(c, err, "Error activating template")
		return
	}

	c.JSON(http.StatusOK, template)
}

// DeleteTemplate elimina una plantilla inactiva
func (api *API) DeleteTemplate(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	if err := api.templateService.Delete(id); err != nil {
		api.respondError(c, err, "Error deleting template")
		return
	}

	c.Status(http.StatusNoContent)
}

// UploadTemplateBackground sube la imagen de fondo de una plantilla
func (api *API) UploadTemplateBackground(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	data, filename, _, ok := api.readUpload(c, "background")
	if !ok {
		return
	}

	template, err := api.templateService.UploadBackground(c.Request.Context(), id, data, filename)
	if err != nil {
		api.respondError(c, err, "Error uploading template background")
		return
	}

	c.JSON(http.StatusOK, template)
}

// IssueCertificate emite un certificado individual
func (api *API) IssueCertificate(c *gin.Context) {
	var req models.CreateCertificateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		api.logger.WithError(err).Error("Error binding issue certificate request")
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid request format", []models.ErrorDetail{
			{Field: "body", Issue: err.Error()},
		}))
		return
	}

	record, err := api.certificateService.IssueCertificate(c.Request.Context(), &req)
	if err != nil {
		api.respondError(c, err, "Error issuing certificate")
		return
	}

	c.JSON(http.StatusCreated, api.toCertificateResponse(record))
}

// GetCertificate obtiene un certificado por ID
func (api *API) GetCertificate(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	record, err := api.certificateService.GetByID(id)
	if err != nil {
		api.respondError(c, err, "Error retrieving certificate")
		return
	}

	c.JSON(http.StatusOK, record)
}

// ListCertificates lista certificados filtrando por documento
func (api *API) ListCertificates(c *gin.Context) {
	documentID := strings.TrimSpace(c.Query("document_id"))
	if documentID == "" {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Missing required filter", []models.ErrorDetail{
			{Field: "document_id", Issue: "Query parameter is required"},
		}))
		return
	}

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	response, err := api.certificateService.FindByDocumentID(documentID, page, pageSize)
	if err != nil {
		api.respondError(c, err, "Error listing certificates")
		return
	}

	c.JSON(http.StatusOK, response)
}

// GetCertificateFile descarga el PDF de un certificado
func (api *API) GetCertificateFile(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	pdfData, err := api.certificateService.GetFile(c.Request.Context(), id)
	if err != nil {
		api.respondError(c, err, "Error retrieving certificate file")
		return
	}

	api.servePDF(c, fmt.Sprintf("certificado-%s.pdf", id), pdfData)
}

// RevokeCertificate revoca un certificado emitido
func (api *API) RevokeCertificate(c *gin.Context) {
	id, ok := api.parseID(c)
	if !ok {
		return
	}

	if err := api.certificateService.Revoke(id); err != nil {
		api.respondError(c, err, "Error revoking certificate")
		return
	}

	c.JSON(http.StatusOK, gin.H{"id": id, "status": models.CertificateStatusRevoked})
}

// ImportBatch procesa un archivo CSV/TSV de emisión masiva
func (api *API) ImportBatch(c *gin.Context) {
	data, filename, contentType, ok := api.readUpload(c, "file")
	if !ok {
		return
	}

	var templateID *uuid.UUID
	if raw := strings.TrimSpace(c.PostForm("template_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid template ID", []models.ErrorDetail{
				{Field: "template_id", Issue: "Must be a valid UUID"},
			}))
			return
		}
		templateID = &id
	}

	job, err := api.batchService.Process(c.Request.Context(), data, filename, contentType, templateID)
	if err != nil {
		api.respondError(c, err, "Error processing batch import")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"batch_id": job.ID,
		"file":     job.OriginalFileName,
		"summary":  job.Summary,
	})
}

// VerifyCertificate resuelve la vista pública de un certificado por su
// código de verificación. Endpoint sin autenticación.
func (api *API) VerifyCertificate(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))

	response, err := api.certificateService.Verify(code)
	if err != nil {
		api.respondError(c, err, "Error verifying certificate")
		return
	}

	c.JSON(http.StatusOK, response)
}

// VerifyCertificateFile descarga el PDF público de un certificado por
// su código de verificación
func (api *API) VerifyCertificateFile(c *gin.Context) {
	code := strings.TrimSpace(c.Param("code"))

	pdfData, err := api.certificateService.VerifyFile(c.Request.Context(), code)
	if err != nil {
		api.respondError(c, err, "Error retrieving certificate file")
		return
	}

	api.servePDF(c, fmt.Sprintf("certificado-%s.pdf", code), pdfData)
}

// parseID parsea el parámetro :id como UUID
func (api *API) parseID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Invalid ID", []models.ErrorDetail{
			{Field: "id", Issue: "Must be a valid UUID"},
		}))
		return uuid.Nil, false
	}
	return id, true
}

// readUpload lee un archivo de un form multipart. Retorna los bytes,
// el nombre original y el content type declarado de la parte.
func (api *API) readUpload(c *gin.Context, field string) ([]byte, string, string, bool) {
	fileHeader, err := c.FormFile(field)
	if err != nil {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Missing uploaded file", []models.ErrorDetail{
			{Field: field, Issue: "Multipart file is required"},
		}))
		return nil, "", "", false
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusBadRequest, models.NewValidationError("Uploaded file too large", []models.ErrorDetail{
			{Field: field, Issue: fmt.Sprintf("Maximum size is %d bytes", maxUploadSize)},
		}))
		return nil, "", "", false
	}

	file, err := fileHeader.Open()
	if err != nil {
		api.logger.WithError(err).Error("Error opening uploaded file")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("Error reading uploaded file"))
		return nil, "", "", false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		api.logger.WithError(err).Error("Error reading uploaded file")
		c.JSON(http.StatusInternalServerError, models.NewInternalError("Error reading uploaded file"))
		return nil, "", "", false
	}

	return data, fileHeader.Filename, fileHeader.Header.Get("Content-Type"), true
}

// servePDF responde con un PDF inline
func (api *API) servePDF(c *gin.Context, filename string, pdfData []byte) {
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=%s", filename))
	c.Data(http.StatusOK, "application/pdf", pdfData)
}

// toCertificateResponse arma la respuesta de emisión con sus enlaces
func (api *API) toCertificateResponse(record *models.CertificateRecord) models.CertificateResponse {
	return models.CertificateResponse{
		ID:               record.ID,
		VerificationCode: record.VerificationCode,
		Status:           record.Status,
		FullName:         record.FullName,
		EventName:        record.EventName,
		IssueDate:        record.IssueDate,
		Links: models.CertificateLinks{
			Self:   fmt.Sprintf("/v1/certificates/%s", record.ID),
			File:   fmt.Sprintf("/v1/certificates/%s/file", record.ID),
			Verify: fmt.Sprintf("/v1/verify/%s", record.VerificationCode),
		},
	}
}

// respondError traduce los errores del dominio al envelope HTTP
func (api *API) respondError(c *gin.Context, err error, logMessage string) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		details := make([]models.ErrorDetail, 0, len(validationErr.Fields))
		for _, field := range validationErr.Fields {
			details = append(details, models.ErrorDetail{Field: field, Issue: "Invalid value"})
		}
		c.JSON(http.StatusBadRequest, models.NewValidationError("Validation failed", details))
		return
	}

	var missingErr *models.MissingColumnsError
	if errors.As(err, &missingErr) {
		details := make([]models.ErrorDetail, 0, len(missingErr.Columns))
		for _, col := range missingErr.Columns {
			details = append(details, models.ErrorDetail{Field: col, Issue: "Required column is missing"})
		}
		c.JSON(http.StatusBadRequest, models.NewValidationError("Missing required columns", details))
		return
	}

	var duplicateErr *models.DuplicateCertificateError
	if errors.As(err, &duplicateErr) {
		c.JSON(http.StatusConflict, models.NewConflictError(
			fmt.Sprintf("An active certificate already exists for this document and event: %s", duplicateErr.ExistingID)))
		return
	}

	switch {
	case errors.Is(err, models.ErrTemplateNotFound):
		c.JSON(http.StatusNotFound, models.NewNotFoundError("Template not found"))
	case errors.Is(err, models.ErrCertificateNotFound):
		c.JSON(http.StatusNotFound, models.NewNotFoundError("Certificate not found"))
	case errors.Is(err, models.ErrNoActiveTemplate):
		c.JSON(http.StatusConflict, models.NewConflictError("No active template configured"))
	case errors.Is(err, models.ErrActiveTemplateDelete):
		c.JSON(http.StatusConflict, models.NewConflictError("Active template cannot be deleted, activate another template first"))
	default:
		api.logger.WithError(err).Error(logMessage)
		c.JSON(http.StatusInternalServerError, models.NewInternalError(logMessage))
	}
}
