package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

// memTemplateStore es una implementación en memoria de TemplateStore
type memTemplateStore struct {
	mu        sync.Mutex
	templates map[uuid.UUID]*models.Template
}

func newMemTemplateStore() *memTemplateStore {
	return &memTemplateStore{templates: make(map[uuid.UUID]*models.Template)}
}

func (s *memTemplateStore) Create(template *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *template
	s.templates[template.ID] = &cp
	return nil
}

func (s *memTemplateStore) GetByID(id uuid.UUID) (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	template, ok := s.templates[id]
	if !ok {
		return nil, models.ErrTemplateNotFound
	}
	cp := *template
	return &cp, nil
}

func (s *memTemplateStore) GetActive() (*models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, template := range s.templates {
		if template.IsActive {
			cp := *template
			return &cp, nil
		}
	}
	return nil, models.ErrNoActiveTemplate
}

func (s *memTemplateStore) List() ([]models.Template, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.Template
	for _, template := range s.templates {
		out = append(out, *template)
	}
	return out, nil
}

func (s *memTemplateStore) Update(template *models.Template) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.templates[template.ID]; !ok {
		return models.ErrTemplateNotFound
	}
	cp := *template
	s.templates[template.ID] = &cp
	return nil
}

func (s *memTemplateStore) Activate(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	target, ok := s.templates[id]
	if !ok {
		return models.ErrTemplateNotFound
	}
	for _, template := range s.templates {
		template.IsActive = false
	}
	target.IsActive = true
	return nil
}

func (s *memTemplateStore) Delete(id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	template, ok := s.templates[id]
	if !ok {
		return models.ErrTemplateNotFound
	}
	if template.IsActive {
		return models.ErrActiveTemplateDelete
	}
	delete(s.templates, id)
	return nil
}

// memCertStore es una implementación en memoria de CertificateStore.
// failCreates fuerza colisiones de código en los primeros inserts.
type memCertStore struct {
	mu          sync.Mutex
	records     map[uuid.UUID]*models.CertificateRecord
	failCreates int
}

func newMemCertStore() *memCertStore {
	return &memCertStore{records: make(map[uuid.UUID]*models.CertificateRecord)}
}

func (s *memCertStore) Create(record *models.CertificateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failCreates > 0 {
		s.failCreates--
		return models.ErrVerificationCodeTaken
	}
	for _, existing := range s.records {
		if existing.VerificationCode == record.VerificationCode {
			return models.ErrVerificationCodeTaken
		}
	}
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

func (s *memCertStore) CodeExists(code string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.VerificationCode == code {
			return true, nil
		}
	}
	return false, nil
}

func (s *memCertStore) GetByID(id uuid.UUID) (*models.CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return nil, models.ErrCertificateNotFound
	}
	cp := *record
	return &cp, nil
}

func (s *memCertStore) GetByVerificationCode(code string) (*models.CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.VerificationCode == code {
			cp := *record
			return &cp, nil
		}
	}
	return nil, models.ErrCertificateNotFound
}

func (s *memCertStore) FindActiveByDocumentAndEvent(documentID, eventName string) (*models.CertificateRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, record := range s.records {
		if record.DocumentID != nil && *record.DocumentID == documentID &&
			record.EventName == eventName && record.Status != models.CertificateStatusRevoked {
			cp := *record
			return &cp, nil
		}
	}
	return nil, models.ErrCertificateNotFound
}

func (s *memCertStore) FindByDocumentID(documentID string, page, pageSize int) ([]models.CertificateRecord, int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var all []models.CertificateRecord
	for _, record := range s.records {
		if record.DocumentID != nil && *record.DocumentID == documentID {
			all = append(all, *record)
		}
	}
	total := len(all)
	start := (page - 1) * pageSize
	if start >= total {
		return nil, total, nil
	}
	end := start + pageSize
	if end > total {
		end = total
	}
	return all[start:end], total, nil
}

func (s *memCertStore) Update(record *models.CertificateRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.records[record.ID]; !ok {
		return models.ErrCertificateNotFound
	}
	cp := *record
	s.records[record.ID] = &cp
	return nil
}

func (s *memCertStore) UpdateStatus(id uuid.UUID, status models.CertificateStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	record, ok := s.records[id]
	if !ok {
		return models.ErrCertificateNotFound
	}
	record.Status = status
	return nil
}

// memFileStore es una implementación en memoria de CertificateFileStore
type memFileStore struct {
	mu    sync.Mutex
	files map[uuid.UUID]*models.CertificateFile
}

func newMemFileStore() *memFileStore {
	return &memFileStore{files: make(map[uuid.UUID]*models.CertificateFile)}
}

func (s *memFileStore) CreateOrUpdate(file *models.CertificateFile) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *file
	s.files[file.CertificateID] = &cp
	return nil
}

func (s *memFileStore) GetByCertificateID(certificateID uuid.UUID) (*models.CertificateFile, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	file, ok := s.files[certificateID]
	if !ok {
		return nil, fmt.Errorf("certificate file not found: %s", certificateID)
	}
	cp := *file
	return &cp, nil
}

// memStorage es una implementación en memoria de AssetStorage
type memStorage struct {
	mu      sync.Mutex
	objects map[string][]byte
}

func newMemStorage() *memStorage {
	return &memStorage{objects: make(map[string][]byte)}
}

func (s *memStorage) UploadFile(ctx context.Context, key string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[key] = append([]byte(nil), data...)
	return key, nil
}

func (s *memStorage) DownloadFile(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object not found: %s", key)
	}
	return append([]byte(nil), data...), nil
}

// memCache es una implementación en memoria de VerificationCache
type memCache struct {
	mu      sync.Mutex
	entries map[string]string
	sets    int
	hits    int
}

func newMemCache() *memCache {
	return &memCache{entries: make(map[string]string)}
}

func (c *memCache) Get(key string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	value, ok := c.entries[key]
	if !ok {
		return "", fmt.Errorf("cache miss: %s", key)
	}
	c.hits++
	return value, nil
}

func (c *memCache) SetWithTTL(key string, value interface{}, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		c.entries[key] = string(v)
	case string:
		c.entries[key] = v
	default:
		return fmt.Errorf("unsupported cache value type: %T", value)
	}
	c.sets++
	return nil
}

func (c *memCache) Delete(key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// newTestTemplate crea una plantilla con todos los campos visibles en
// sus posiciones por defecto
func newTestTemplate() *models.Template {
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
		Name:        "Plantilla base",
		FieldConfig: cfg,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
}

// newTestService arma un CertificateService sobre stores en memoria
func newTestService(certStore *memCertStore, templateStore *memTemplateStore, fileStore *memFileStore, cache *memCache) *CertificateService {
	binder := NewRecordBinder("Instituto de Pruebas", testLogger())
	renderer := NewRenderer(testLogger())

	var verificationCache VerificationCache
	if cache != nil {
		verificationCache = cache
	}

	return NewCertificateService(
		certStore, templateStore, fileStore,
		binder, renderer,
		nil, verificationCache, nil,
		15*time.Minute, testLogger(),
	)
}
