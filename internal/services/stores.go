package services

import (
	"context"
	"time"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/google/uuid"
)

// TemplateStore define la persistencia de plantillas que consume el
// motor. La implementación de producción es database.TemplateRepository.
type TemplateStore interface {
	Create(template *models.Template) error
	GetByID(id uuid.UUID) (*models.Template, error)
	GetActive() (*models.Template, error)
	List() ([]models.Template, error)
	Update(template *models.Template) error
	Activate(id uuid.UUID) error
	Delete(id uuid.UUID) error
}

// CertificateStore define la persistencia de certificados. Create debe
// retornar models.ErrVerificationCodeTaken ante una colisión del índice
// único de código.
type CertificateStore interface {
	Create(record *models.CertificateRecord) error
	CodeExists(code string) (bool, error)
	GetByID(id uuid.UUID) (*models.CertificateRecord, error)
	GetByVerificationCode(code string) (*models.CertificateRecord, error)
	FindActiveByDocumentAndEvent(documentID, eventName string) (*models.CertificateRecord, error)
	FindByDocumentID(documentID string, page, pageSize int) ([]models.CertificateRecord, int, error)
	Update(record *models.CertificateRecord) error
	UpdateStatus(id uuid.UUID, status models.CertificateStatus) error
}

// CertificateFileStore define la persistencia del PDF generado
type CertificateFileStore interface {
	CreateOrUpdate(file *models.CertificateFile) error
	GetByCertificateID(certificateID uuid.UUID) (*models.CertificateFile, error)
}

// AssetStorage define el almacenamiento de objetos para fondos de
// plantilla y PDFs. La implementación de producción es
// database.ObjectStorageClient.
type AssetStorage interface {
	UploadFile(ctx context.Context, key string, data []byte) (string, error)
	DownloadFile(ctx context.Context, key string) ([]byte, error)
}

// VerificationCache define la caché de lectura para la consulta pública
// de verificación. La implementación de producción es database.Redis.
type VerificationCache interface {
	Get(key string) (string, error)
	SetWithTTL(key string, value interface{}, ttl time.Duration) error
	Delete(key string) error
}
