package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// maxCodeAttempts limita los reintentos de generación ante colisiones
// de código de verificación
const maxCodeAttempts = 5

// Notifier envía la notificación de certificado emitido. La
// implementación de producción es email.ResendService.
type Notifier interface {
	SendCertificateIssued(record *models.CertificateRecord, pdfData []byte) error
}

// CertificateService maneja el ciclo de vida de los certificados:
// emisión, archivo, verificación pública y revocación
type CertificateService struct {
	certRepo     CertificateStore
	templateRepo TemplateStore
	fileRepo     CertificateFileStore
	binder       *RecordBinder
	renderer     *Renderer
	storage      AssetStorage      // opcional
	cache        VerificationCache // opcional
	notifier     Notifier          // opcional
	verifyTTL    time.Duration
	logger       *logrus.Logger
}

// NewCertificateService crea una nueva instancia del servicio.
// storage, cache y notifier pueden ser nil; las funciones que dependen
// de ellos se degradan sin error.
func NewCertificateService(
	certRepo CertificateStore,
	templateRepo TemplateStore,
	fileRepo CertificateFileStore,
	binder *RecordBinder,
	renderer *Renderer,
	storage AssetStorage,
	cache VerificationCache,
	notifier Notifier,
	verifyTTL time.Duration,
	logger *logrus.Logger,
) *CertificateService {
	return &CertificateService{
		certRepo:     certRepo,
		templateRepo: templateRepo,
		fileRepo:     fileRepo,
		binder:       binder,
		renderer:     renderer,
		storage:      storage,
		cache:        cache,
		notifier:     notifier,
		verifyTTL:    verifyTTL,
		logger:       logger,
	}
}

// IssueCertificate emite un certificado desde el formulario individual.
// Los campos de texto libre se pasan a mayúsculas antes de renderizar.
func (s *CertificateService) IssueCertificate(ctx context.Context, req *models.CreateCertificateRequest) (*models.CertificateRecord, error) {
	return s.issue(ctx, req, BindOptions{UppercaseFreeText: true})
}

// IssueFromRow emite un certificado desde una fila de importación
// masiva. A diferencia de la emisión individual, la capitalización del
// archivo origen se conserva tal cual.
func (s *CertificateService) IssueFromRow(ctx context.Context, req *models.CreateCertificateRequest) (*models.CertificateRecord, error) {
	return s.issue(ctx, req, BindOptions{UppercaseFreeText: false})
}

func (s *CertificateService) issue(ctx context.Context, req *models.CreateCertificateRequest, opts BindOptions) (*models.CertificateRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	template, err := s.resolveTemplate(req.TemplateID)
	if err != nil {
		return nil, err
	}

	// Política de duplicados: un certificado no revocado del mismo
	// documento y evento bloquea la emisión, salvo re-emisión explícita
	var existing *models.CertificateRecord
	if req.DocumentID != nil {
		existing, err = s.certRepo.FindActiveByDocumentAndEvent(*req.DocumentID, req.EventName)
		if err != nil && !errors.Is(err, models.ErrCertificateNotFound) {
			return nil, fmt.Errorf("error checking for duplicate certificate: %w", err)
		}
		if existing != nil && !req.Reissue {
			return nil, &models.DuplicateCertificateError{
				DocumentID: *req.DocumentID,
				EventName:  req.EventName,
				ExistingID: existing.ID,
			}
		}
	}

	record := buildRecord(req, template.ID)

	if existing != nil {
		// Re-emisión: se actualizan los datos descriptivos conservando
		// identidad y código de verificación
		record.ID = existing.ID
		record.VerificationCode = existing.VerificationCode
		record.CreatedAt = existing.CreatedAt
		if err := s.certRepo.Update(record); err != nil {
			return nil, fmt.Errorf("error updating certificate: %w", err)
		}
	} else {
		if err := s.persistWithFreshCode(record); err != nil {
			return nil, err
		}
	}

	pdfData, err := s.renderCertificate(ctx, record, template, opts)
	if err != nil {
		return nil, err
	}

	if err := s.saveFile(ctx, record, pdfData); err != nil {
		return nil, err
	}

	s.invalidateVerifyCache(record.VerificationCode)

	if s.notifier != nil && record.RecipientEmail != nil {
		go func(rec models.CertificateRecord, data []byte) {
			if err := s.notifier.SendCertificateIssued(&rec, data); err != nil {
				s.logger.WithError(err).WithField("certificate_id", rec.ID).Warn("Failed to send certificate email")
			}
		}(*record, pdfData)
	}

	s.logger.WithFields(logrus.Fields{
		"certificate_id":    record.ID,
		"verification_code": record.VerificationCode,
		"event_name":        record.EventName,
	}).Info("Certificate issued successfully")

	return record, nil
}

// persistWithFreshCode genera el código de verificación y persiste el
// registro. Reintenta con un código nuevo si el store reporta colisión;
// agotados los intentos el error es fatal.
func (s *CertificateService) persistWithFreshCode(record *models.CertificateRecord) error {
	for attempt := 1; attempt <= maxCodeAttempts; attempt++ {
		code, err := GenerateVerificationCode()
		if err != nil {
			return fmt.Errorf("error generating verification code: %w", err)
		}

		exists, err := s.certRepo.CodeExists(code)
		if err != nil {
			return fmt.Errorf("error checking verification code: %w", err)
		}
		if exists {
			s.logger.WithField("attempt", attempt).Warn("Verification code collision, retrying")
			continue
		}

		record.VerificationCode = code
		err = s.certRepo.Create(record)
		if err == nil {
			return nil
		}
		// Carrera entre el check y el insert: el índice único manda
		if errors.Is(err, models.ErrVerificationCodeTaken) {
			s.logger.WithField("attempt", attempt).Warn("Verification code collision on insert, retrying")
			continue
		}
		return fmt.Errorf("error creating certificate: %w", err)
	}

	return models.ErrCodeCollisionExhausted
}

// renderCertificate resuelve el fondo de la plantilla y renderiza el
// PDF. Un fondo irresoluble no es fatal: se registra y se renderiza con
// fondo en blanco.
func (s *CertificateService) renderCertificate(ctx context.Context, record *models.CertificateRecord, template *models.Template, opts BindOptions) ([]byte, error) {
	values, err := s.binder.Bind(record, template, opts)
	if err != nil {
		return nil, err
	}

	var background []byte
	if template.BackgroundAssetRef != nil && *template.BackgroundAssetRef != "" && s.storage != nil {
		background, err = s.storage.DownloadFile(ctx, *template.BackgroundAssetRef)
		if err != nil {
			assetErr := &models.AssetUnavailableError{Ref: *template.BackgroundAssetRef, Err: err}
			s.logger.WithError(assetErr).WithField("template_id", template.ID).Warn("Background asset unavailable, rendering blank background")
			background = nil
		}
	}

	pdfData, err := s.renderer.Render(template, background, values)
	if err != nil {
		return nil, fmt.Errorf("error rendering certificate PDF: %w", err)
	}

	return pdfData, nil
}

// saveFile persiste el PDF generado y, si hay almacenamiento de
// objetos, lo sube también ahí
func (s *CertificateService) saveFile(ctx context.Context, record *models.CertificateRecord, pdfData []byte) error {
	now := time.Now()
	file := &models.CertificateFile{
		ID:            uuid.New(),
		CertificateID: record.ID,
		PDFData:       pdfData,
		PDFSize:       int64(len(pdfData)),
		GeneratedAt:   now,
		UpdatedAt:     now,
	}

	if s.storage != nil {
		key := fmt.Sprintf("certificates/%s.pdf", record.ID)
		if url, err := s.storage.UploadFile(ctx, key, pdfData); err != nil {
			s.logger.WithError(err).WithField("certificate_id", record.ID).Warn("Failed to upload certificate PDF to object storage")
		} else {
			file.PDFURL = &url
		}
	}

	if err := s.fileRepo.CreateOrUpdate(file); err != nil {
		return fmt.Errorf("error saving certificate file: %w", err)
	}

	return nil
}

// GetByID obtiene un certificado por su ID
func (s *CertificateService) GetByID(id uuid.UUID) (*models.CertificateRecord, error) {
	return s.certRepo.GetByID(id)
}

// FindByDocumentID lista los certificados de un documento con paginación
func (s *CertificateService) FindByDocumentID(documentID string, page, pageSize int) (*models.CertificateListResponse, error) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 || pageSize > 100 {
		pageSize = 20
	}

	items, total, err := s.certRepo.FindByDocumentID(documentID, page, pageSize)
	if err != nil {
		return nil, err
	}

	return &models.CertificateListResponse{
		Items:    items,
		Page:     page,
		PageSize: pageSize,
		Total:    total,
	}, nil
}

// GetFile retorna los bytes del PDF de un certificado. Usa el archivo
// persistido; si solo quedó la copia en almacenamiento de objetos, la
// descarga de ahí.
func (s *CertificateService) GetFile(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if _, err := s.certRepo.GetByID(id); err != nil {
		return nil, err
	}

	file, err := s.fileRepo.GetByCertificateID(id)
	if err != nil {
		return nil, fmt.Errorf("error fetching certificate file: %w", err)
	}

	if len(file.PDFData) > 0 {
		return file.PDFData, nil
	}
	if file.PDFURL != nil && s.storage != nil {
		return s.storage.DownloadFile(ctx, *file.PDFURL)
	}

	return nil, fmt.Errorf("certificate file has no stored content: %s", id)
}

// Revoke revoca un certificado emitido. La consulta pública del código
// pasa a reportar el estado revocado.
func (s *CertificateService) Revoke(id uuid.UUID) error {
	record, err := s.certRepo.GetByID(id)
	if err != nil {
		return err
	}

	if record.Status == models.CertificateStatusRevoked {
		return nil
	}

	if err := s.certRepo.UpdateStatus(id, models.CertificateStatusRevoked); err != nil {
		return fmt.Errorf("error revoking certificate: %w", err)
	}

	s.invalidateVerifyCache(record.VerificationCode)

	s.logger.WithFields(logrus.Fields{
		"certificate_id":    id,
		"verification_code": record.VerificationCode,
	}).Info("Certificate revoked")

	return nil
}

// Verify resuelve la vista pública de un certificado por su código de
// verificación, con caché de lectura. Un fallo de caché se trata como
// cache miss y se responde desde la base de datos.
func (s *CertificateService) Verify(code string) (*models.VerificationResponse, error) {
	cacheKey := verifyCacheKey(code)

	if s.cache != nil {
		if cached, err := s.cache.Get(cacheKey); err == nil {
			var resp models.VerificationResponse
			if err := json.Unmarshal([]byte(cached), &resp); err == nil {
				return &resp, nil
			}
		}
	}

	record, err := s.certRepo.GetByVerificationCode(code)
	if err != nil {
		return nil, err
	}

	resp := &models.VerificationResponse{
		VerificationCode: record.VerificationCode,
		Status:           record.Status,
		FullName:         record.FullName,
		Role:             record.Role,
		EventName:        record.EventName,
		PeriodStart:      record.PeriodStart,
		PeriodEnd:        record.PeriodEnd,
		AcademicHours:    record.AcademicHours,
		IssueDate:        record.IssueDate,
	}

	if s.cache != nil {
		if data, err := json.Marshal(resp); err == nil {
			if err := s.cache.SetWithTTL(cacheKey, data, s.verifyTTL); err != nil {
				s.logger.WithError(err).Debug("Failed to cache verification response")
			}
		}
	}

	return resp, nil
}

// VerifyFile retorna el PDF de un certificado consultado por su código
func (s *CertificateService) VerifyFile(ctx context.Context, code string) ([]byte, error) {
	record, err := s.certRepo.GetByVerificationCode(code)
	if err != nil {
		return nil, err
	}
	return s.GetFile(ctx, record.ID)
}

// resolveTemplate obtiene la plantilla pedida o la activa por defecto
func (s *CertificateService) resolveTemplate(templateID *uuid.UUID) (*models.Template, error) {
	if templateID != nil {
		return s.templateRepo.GetByID(*templateID)
	}
	return s.templateRepo.GetActive()
}

func (s *CertificateService) invalidateVerifyCache(code string) {
	if s.cache == nil || code == "" {
		return
	}
	if err := s.cache.Delete(verifyCacheKey(code)); err != nil {
		s.logger.WithError(err).Debug("Failed to invalidate verification cache")
	}
}

func verifyCacheKey(code string) string {
	return "verify:" + code
}

// buildRecord arma el registro persistible desde el request ya validado
func buildRecord(req *models.CreateCertificateRequest, templateID uuid.UUID) *models.CertificateRecord {
	now := time.Now()

	var periodStart, periodEnd *time.Time
	if t, ok := models.ParseDate(req.PeriodStart); ok {
		periodStart = &t
	}
	if t, ok := models.ParseDate(req.PeriodEnd); ok {
		periodEnd = &t
	}

	return &models.CertificateRecord{
		ID:               uuid.New(),
		DocumentIDType:   req.DocumentIDType,
		DocumentID:       req.DocumentID,
		FullName:         req.FullName,
		RecipientEmail:   req.RecipientEmail,
		Role:             req.Role,
		EventName:        req.EventName,
		EventDescription: req.EventDescription,
		PeriodStart:      periodStart,
		PeriodEnd:        periodEnd,
		AcademicHours:    req.AcademicHours,
		IssueDate:        now,
		TemplateID:       templateID,
		Status:           models.CertificateStatusIssued,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
}
