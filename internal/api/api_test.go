package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/edutec-labs/certgen-service/internal/config"
	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/edutec-labs/certgen-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// stubTemplateStore sirve una única plantilla activa
type stubTemplateStore struct {
	template *models.Template
}

func (s *stubTemplateStore) Create(template *models.Template) error { return nil }

func (s *stubTemplateStore) GetByID(id uuid.UUID) (*models.Template, error) {
	if s.template != nil && s.template.ID == id {
		cp := *s.template
		return &cp, nil
	}
	return nil, models.ErrTemplateNotFound
}

func (s *stubTemplateStore) GetActive() (*models.Template, error) {
	if s.template == nil {
		return nil, models.ErrNoActiveTemplate
	}
	cp := *s.template
	return &cp, nil
}

func (s *stubTemplateStore) List() ([]models.Template, error) {
	if s.template == nil {
		return nil, nil
	}
	return []models.Template{*s.template}, nil
}

func (s *stubTemplateStore) Update(template *models.Template) error { return nil }
func (s *stubTemplateStore) Activate(id uuid.UUID) error            { return nil }
func (s *stubTemplateStore) Delete(id uuid.UUID) error              { return nil }

// stubCertStore guarda certificados en memoria
type stubCertStore struct {
	mu      sync.Mutex
	records map[uuid.UUID]*models.CertificateRecord
}

func newStubCertStore() *stubCertStore {
	return &stubCertStore{records: make(map[uuid.UUID]*models.CertificateRecord)}
}

func (s *stubCertStore) Create(record *models.CertificateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

func (s *stubCertStore) CodeExists(code string) (bool, error) { return false, nil }

func (s *stubCertStore) GetByID(id uuid.UUID) (*models.CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, models.ErrCertificateNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *stubCertStore) GetByVerificationCode(code string) (*models.CertificateRecord, error) {
	return nil, models.ErrCertificateNotFound
}

func (s *stubCertStore) FindActiveByDocumentAndEvent(documentID, eventName string) (*models.CertificateRecord, error) {
	return nil, models.ErrCertificateNotFound
}

func (s *stubCertStore) FindByDocumentID(documentID string, page, pageSize int) ([]models.CertificateRecord, int, error) {
	return nil, 0, nil
}

func (s *stubCertStore) Update(record *models.CertificateRecord) error { return nil }

func (s *stubCertStore) UpdateStatus(id uuid.UUID, status models.CertificateStatus) error {
	return nil
}

// stubFileStore guarda los PDFs generados en memoria
type stubFileStore struct {
	mu    sync.Mutex
	files map[uuid.UUID]*models.CertificateFile
}

func newStubFileStore() *stubFileStore {
	return &stubFileStore{files: make(map[uuid.UUID]*models.CertificateFile)}
}

func (s *stubFileStore) CreateOrUpdate(file *models.CertificateFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *file
	s.files[file.CertificateID] = &cp
	return nil
}

func (s *stubFileStore) GetByCertificateID(certificateID uuid.UUID) (*models.CertificateFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.files[certificateID]
	if !ok {
		return nil, models.ErrCertificateNotFound
	}
	cp := *file
	return &cp, nil
}

func activeTemplate() *models.Template {
	cfg := models.FieldConfigMap{}
	for _, def := range models.FieldSchema {
		cfg[def.Key] = models.FieldConfig{
			X: def.DefaultX, Y: def.DefaultY,
			Width: def.DefaultWidth, Height: def.DefaultHeight,
			Visible: true,
		}
	}
	now := time.Now()
	return &models.Template{
		ID:          uuid.New(),
		Name:        "Plantilla activa",
		FieldConfig: cfg,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

func newBatchRouter(t *testing.T, certStore *stubCertStore) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	logger := testLogger()

	templateStore := &stubTemplateStore{template: activeTemplate()}
	binder := services.NewRecordBinder("Instituto de Pruebas", logger)
	renderer := services.NewRenderer(logger)
	certService := services.NewCertificateService(
		certStore, templateStore, newStubFileStore(),
		binder, renderer,
		nil, nil, nil,
		time.Minute, logger,
	)
	batchService := services.NewBatchService(certService, &config.BatchConfig{Workers: 2, MaxRows: 100}, logger)
	templateService := services.NewTemplateService(templateStore, nil, logger)
	apiHandler := NewAPI(templateService, certService, batchService, logger)

	router := gin.New()
	router.POST("/v1/batches", apiHandler.ImportBatch)
	return router
}

// buildUpload arma un form multipart con el content type declarado en
// la parte del archivo
func buildUpload(t *testing.T, filename, partContentType string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", `form-data; name="file"; filename="`+filename+`"`)
	header.Set("Content-Type", partContentType)

	part, err := writer.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return &buf, writer.FormDataContentType()
}

type batchResponse struct {
	Summary models.BatchSummary `json:"summary"`
}

func TestImportBatchUsesDeclaredContentType(t *testing.T) {
	certStore := newStubCertStore()
	router := newBatchRouter(t, certStore)

	// Archivo tabulado sin extensión .tsv: el separador debe salir del
	// content type declarado en la parte, no del nombre ni del header
	// multipart del request
	tsv := strings.Join([]string{
		"document_type\tdocument_id\tfull_name\trole\tevent_name\tevent_description\tperiod_start\tperiod_end\tacademic_hours",
		"DNI\t12345678\tMaría Pérez\tAsistente\tCongreso 2025\tTalleres\t2025-03-01\t2025-03-03\t16",
	}, "\n")

	body, formContentType := buildUpload(t, "lote.txt", "text/tab-separated-values", []byte(tsv))
	req := httptest.NewRequest(http.MethodPost, "/v1/batches", body)
	req.Header.Set("Content-Type", formContentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Summary.TotalRows)
	assert.Equal(t, 1, resp.Summary.GeneratedCount)
	assert.Empty(t, resp.Summary.Errors)
	assert.Len(t, certStore.records, 1)
}

func TestImportBatchCSVUpload(t *testing.T) {
	certStore := newStubCertStore()
	router := newBatchRouter(t, certStore)

	csv := strings.Join([]string{
		"document_type,document_id,full_name,role,event_name,event_description,period_start,period_end,academic_hours",
		"DNI,12345678,María Pérez,Asistente,Congreso 2025,Talleres,2025-03-01,2025-03-03,16",
	}, "\n")

	body, formContentType := buildUpload(t, "lote.csv", "text/csv", []byte(csv))
	req := httptest.NewRequest(http.MethodPost, "/v1/batches", body)
	req.Header.Set("Content-Type", formContentType)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp batchResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Summary.GeneratedCount)
}

func TestImportBatchWithoutFile(t *testing.T) {
	router := newBatchRouter(t, newStubCertStore())

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/v1/batches", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
