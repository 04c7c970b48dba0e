package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CertificateRepository maneja las operaciones de base de datos para
// CertificateRecord
type CertificateRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewCertificateRepository crea una nueva instancia del repositorio
func NewCertificateRepository(db *DB, logger *logrus.Logger) *CertificateRepository {
	return &CertificateRepository{
		db:     db,
		logger: logger,
	}
}

const certificateColumns = `
	id, document_id_type, document_id, full_name, recipient_email, role, event_name,
	event_description, period_start, period_end, academic_hours,
	issue_date, template_id, verification_code, status, created_at, updated_at
`

// Create inserta un nuevo certificado. Una violación del índice único
// sobre verification_code se traduce a ErrVerificationCodeTaken para
// que el emisor reintente con otro código.
func (r *CertificateRepository) Create(record *models.CertificateRecord) error {
	query := `
		INSERT INTO certificates (
			id, document_id_type, document_id, full_name, recipient_email, role, event_name,
			event_description, period_start, period_end, academic_hours,
			issue_date, template_id, verification_code, status, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17
		)
	`

	_, err := r.db.ExecWithTimeout(query,
		record.ID, record.DocumentIDType, record.DocumentID, record.FullName,
		record.RecipientEmail, record.Role, record.EventName, record.EventDescription,
		record.PeriodStart, record.PeriodEnd, record.AcademicHours,
		record.IssueDate, record.TemplateID, record.VerificationCode,
		record.Status, record.CreatedAt, record.UpdatedAt,
	)

	if err != nil {
		if IsUniqueViolation(err) {
			return models.ErrVerificationCodeTaken
		}
		return fmt.Errorf("error inserting certificate: %w", err)
	}

	return nil
}

// CodeExists verifica si un código de verificación ya fue emitido
func (r *CertificateRepository) CodeExists(code string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM certificates WHERE verification_code = $1)`

	var exists bool
	if err := r.db.QueryRowWithTimeout(query, code).Scan(&exists); err != nil {
		return false, fmt.Errorf("error checking verification code: %w", err)
	}

	return exists, nil
}

// GetByID obtiene un certificado por ID
func (r *CertificateRepository) GetByID(id uuid.UUID) (*models.CertificateRecord, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE id = $1`
	return r.scanOne(r.db.QueryRowWithTimeout(query, id))
}

// GetByVerificationCode obtiene un certificado por su código público
func (r *CertificateRepository) GetByVerificationCode(code string) (*models.CertificateRecord, error) {
	query := `SELECT ` + certificateColumns + ` FROM certificates WHERE verification_code = $1`
	return r.scanOne(r.db.QueryRowWithTimeout(query, code))
}

// FindActiveByDocumentAndEvent busca un certificado no revocado para el
// mismo documento y evento. Se usa para detectar emisiones duplicadas.
func (r *CertificateRepository) FindActiveByDocumentAndEvent(documentID, eventName string) (*models.CertificateRecord, error) {
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE document_id = $1 AND event_name = $2 AND status != $3
		ORDER BY created_at DESC
		LIMIT 1
	`
	return r.scanOne(r.db.QueryRowWithTimeout(query, documentID, eventName, models.CertificateStatusRevoked))
}

// FindByDocumentID obtiene los certificados de un documento con paginación
func (r *CertificateRepository) FindByDocumentID(documentID string, page, pageSize int) ([]models.CertificateRecord, int, error) {
	countQuery := `SELECT COUNT(*) FROM certificates WHERE document_id = $1`
	var total int
	if err := r.db.QueryRowWithTimeout(countQuery, documentID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("error counting certificates: %w", err)
	}

	offset := (page - 1) * pageSize
	query := `
		SELECT ` + certificateColumns + `
		FROM certificates
		WHERE document_id = $1
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`

	rows, err := r.db.QueryWithTimeout(query, documentID, pageSize, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("error querying certificates: %w", err)
	}
	defer rows.Close()

	var records []models.CertificateRecord
	for rows.Next() {
		var record models.CertificateRecord
		if err := scanCertificate(rows, &record); err != nil {
			return nil, 0, fmt.Errorf("error scanning certificate: %w", err)
		}
		records = append(records, record)
	}

	return records, total, nil
}

// Update actualiza los campos descriptivos de un certificado. Solo se
// usa en la re-emisión explícita (update-in-place); el código de
// verificación nunca cambia.
func (r *CertificateRepository) Update(record *models.CertificateRecord) error {
	query := `
		UPDATE certificates
		SET document_id_type = $1, document_id = $2, full_name = $3,
			recipient_email = $4, role = $5, event_name = $6,
			event_description = $7, period_start = $8, period_end = $9,
			academic_hours = $10, issue_date = $11, template_id = $12,
			updated_at = $13
		WHERE id = $14
	`

	result, err := r.db.ExecWithTimeout(query,
		record.DocumentIDType, record.DocumentID, record.FullName,
		record.RecipientEmail, record.Role, record.EventName,
		record.EventDescription, record.PeriodStart, record.PeriodEnd,
		record.AcademicHours, record.IssueDate, record.TemplateID,
		time.Now(), record.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating certificate: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrCertificateNotFound
	}

	return nil
}

// UpdateStatus actualiza el estado de un certificado
func (r *CertificateRepository) UpdateStatus(id uuid.UUID, status models.CertificateStatus) error {
	query := `
		UPDATE certificates
		SET status = $1, updated_at = $2
		WHERE id = $3
	`

	result, err := r.db.ExecWithTimeout(query, status, time.Now(), id)
	if err != nil {
		return fmt.Errorf("error updating certificate status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrCertificateNotFound
	}

	return nil
}

// scanOne escanea una fila única de certificado
func (r *CertificateRepository) scanOne(row *sql.Row) (*models.CertificateRecord, error) {
	var record models.CertificateRecord
	err := row.Scan(
		&record.ID, &record.DocumentIDType, &record.DocumentID, &record.FullName,
		&record.RecipientEmail, &record.Role, &record.EventName,
		&record.EventDescription, &record.PeriodStart, &record.PeriodEnd,
		&record.AcademicHours, &record.IssueDate, &record.TemplateID,
		&record.VerificationCode, &record.Status, &record.CreatedAt, &record.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrCertificateNotFound
		}
		return nil, fmt.Errorf("error querying certificate: %w", err)
	}
	return &record, nil
}

// scanCertificate escanea un certificado desde un conjunto de filas
func scanCertificate(rows *sql.Rows, record *models.CertificateRecord) error {
	return rows.Scan(
		&record.ID, &record.DocumentIDType, &record.DocumentID, &record.FullName,
		&record.RecipientEmail, &record.Role, &record.EventName,
		&record.EventDescription, &record.PeriodStart, &record.PeriodEnd,
		&record.AcademicHours, &record.IssueDate, &record.TemplateID,
		&record.VerificationCode, &record.Status, &record.CreatedAt, &record.UpdatedAt,
	)
}
