package database

import (
	"database/sql"
	"fmt"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CertificateFileRepository maneja la persistencia del PDF generado de
// cada certificado
type CertificateFileRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewCertificateFileRepository crea una nueva instancia del repositorio
func NewCertificateFileRepository(db *DB, logger *logrus.Logger) *CertificateFileRepository {
	return &CertificateFileRepository{
		db:     db,
		logger: logger,
	}
}

// CreateOrUpdate guarda el archivo de un certificado (UPSERT para
// evitar duplicados en re-emisiones)
func (r *CertificateFileRepository) CreateOrUpdate(file *models.CertificateFile) error {
	query := `
		INSERT INTO certificate_files (
			id, certificate_id, pdf_data, pdf_size, pdf_url, generated_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
		ON CONFLICT (certificate_id) DO UPDATE SET
			pdf_data = EXCLUDED.pdf_data,
			pdf_size = EXCLUDED.pdf_size,
			pdf_url = EXCLUDED.pdf_url,
			updated_at = EXCLUDED.updated_at
	`

	_, err := r.db.ExecWithTimeout(query,
		file.ID, file.CertificateID, file.PDFData, file.PDFSize,
		file.PDFURL, file.GeneratedAt, file.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("error saving certificate file: %w", err)
	}

	return nil
}

// GetByCertificateID obtiene el archivo de un certificado
func (r *CertificateFileRepository) GetByCertificateID(certificateID uuid.UUID) (*models.CertificateFile, error) {
	query := `
		SELECT id, certificate_id, pdf_data, pdf_size, pdf_url, generated_at, updated_at
		FROM certificate_files
		WHERE certificate_id = $1
	`

	var file models.CertificateFile
	err := r.db.QueryRowWithTimeout(query, certificateID).Scan(
		&file.ID, &file.CertificateID, &file.PDFData, &file.PDFSize,
		&file.PDFURL, &file.GeneratedAt, &file.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, fmt.Errorf("certificate file not found: %s", certificateID)
		}
		return nil, fmt.Errorf("error querying certificate file: %w", err)
	}

	return &file, nil
}
