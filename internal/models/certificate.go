package models

import (
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
)

// DocumentIDType representa el tipo de documento de identidad
type DocumentIDType string

const (
	DocumentIDTypeDNI      DocumentIDType = "DNI"
	DocumentIDTypeCE       DocumentIDType = "CE"
	DocumentIDTypePassport DocumentIDType = "PASSPORT"
)

// CertificateStatus representa el estado del certificado
type CertificateStatus string

const (
	CertificateStatusDraft   CertificateStatus = "draft"
	CertificateStatusIssued  CertificateStatus = "issued"
	CertificateStatusRevoked CertificateStatus = "revoked"
)

var (
	dniPattern    = regexp.MustCompile(`^[0-9]{8}$`)
	alnumPattern  = regexp.MustCompile(`^[A-Za-z0-9]{6,12}$`)
	emailPattern  = regexp.MustCompile(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)
	dateLayout    = "2006-01-02"
	validDocTypes = map[DocumentIDType]bool{DocumentIDTypeDNI: true, DocumentIDTypeCE: true, DocumentIDTypePassport: true}
)

// CertificateRecord representa un certificado emitido o en borrador
type CertificateRecord struct {
	ID               uuid.UUID         `json:"id" db:"id"`
	DocumentIDType   DocumentIDType    `json:"document_id_type" db:"document_id_type"`
	DocumentID       *string           `json:"document_id,omitempty" db:"document_id"`
	FullName         string            `json:"full_name" db:"full_name"`
	RecipientEmail   *string           `json:"recipient_email,omitempty" db:"recipient_email"`
	Role             string            `json:"role" db:"role"`
	EventName        string            `json:"event_name" db:"event_name"`
	EventDescription string            `json:"event_description" db:"event_description"`
	PeriodStart      *time.Time        `json:"period_start,omitempty" db:"period_start"`
	PeriodEnd        *time.Time        `json:"period_end,omitempty" db:"period_end"`
	AcademicHours    int               `json:"academic_hours" db:"academic_hours"`
	IssueDate        time.Time         `json:"issue_date" db:"issue_date"`
	TemplateID       uuid.UUID         `json:"template_id" db:"template_id"`
	VerificationCode string            `json:"verification_code" db:"verification_code"`
	Status           CertificateStatus `json:"status" db:"status"`
	CreatedAt        time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at" db:"updated_at"`
}

// CreateCertificateRequest representa el request de emisión individual
type CreateCertificateRequest struct {
	DocumentIDType   DocumentIDType `json:"document_id_type" binding:"required,oneof=DNI CE PASSPORT"`
	DocumentID       *string        `json:"document_id,omitempty"`
	FullName         string         `json:"full_name" binding:"required"`
	RecipientEmail   *string        `json:"recipient_email,omitempty" binding:"omitempty,email"`
	Role             string         `json:"role" binding:"required"`
	EventName        string         `json:"event_name" binding:"required"`
	EventDescription string         `json:"event_description,omitempty"`
	PeriodStart      string         `json:"period_start,omitempty"`
	PeriodEnd        string         `json:"period_end,omitempty"`
	AcademicHours    int            `json:"academic_hours" binding:"required,gt=0"`
	TemplateID       *uuid.UUID     `json:"template_id,omitempty"`
	// Reissue permite actualizar un certificado activo existente del
	// mismo documento y evento, conservando su código de verificación
	Reissue bool `json:"reissue,omitempty"`
}

// CertificateResponse representa la respuesta al emitir un certificado
type CertificateResponse struct {
	ID               uuid.UUID         `json:"id"`
	VerificationCode string            `json:"verification_code"`
	Status           CertificateStatus `json:"status"`
	FullName         string            `json:"full_name"`
	EventName        string            `json:"event_name"`
	IssueDate        time.Time         `json:"issue_date"`
	Links            CertificateLinks  `json:"links"`
}

// CertificateLinks representa los enlaces relacionados
type CertificateLinks struct {
	Self   string `json:"self"`
	File   string `json:"file"`
	Verify string `json:"verify"`
}

// VerificationResponse representa la vista pública mínima de un
// certificado consultado por su código
type VerificationResponse struct {
	VerificationCode string            `json:"verification_code"`
	Status           CertificateStatus `json:"status"`
	FullName         string            `json:"full_name"`
	Role             string            `json:"role"`
	EventName        string            `json:"event_name"`
	PeriodStart      *time.Time        `json:"period_start,omitempty"`
	PeriodEnd        *time.Time        `json:"period_end,omitempty"`
	AcademicHours    int               `json:"academic_hours"`
	IssueDate        time.Time         `json:"issue_date"`
}

// CertificateListResponse representa la respuesta al listar certificados
type CertificateListResponse struct {
	Items    []CertificateRecord `json:"items"`
	Page     int                 `json:"page"`
	PageSize int                 `json:"page_size"`
	Total    int                 `json:"total"`
}

// CertificateFile representa el PDF generado de un certificado
type CertificateFile struct {
	ID            uuid.UUID `json:"id" db:"id"`
	CertificateID uuid.UUID `json:"certificate_id" db:"certificate_id"`
	PDFData       []byte    `json:"pdf_data" db:"pdf_data"`
	PDFSize       int64     `json:"pdf_size" db:"pdf_size"`
	PDFURL        *string   `json:"pdf_url,omitempty" db:"pdf_url"`
	GeneratedAt   time.Time `json:"generated_at" db:"generated_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// IsValidDocumentIDType verifica si el tipo de documento es soportado
func IsValidDocumentIDType(t DocumentIDType) bool {
	return validDocTypes[t]
}

// ValidateDocumentID valida el formato del número de documento según su
// tipo: DNI exactamente 8 dígitos, CE/PASSPORT 6 a 12 alfanuméricos.
func ValidateDocumentID(docType DocumentIDType, documentID string) bool {
	switch docType {
	case DocumentIDTypeDNI:
		return dniPattern.MatchString(documentID)
	case DocumentIDTypeCE, DocumentIDTypePassport:
		return alnumPattern.MatchString(documentID)
	default:
		return false
	}
}

// IsValidEmail valida el formato de una dirección de correo
func IsValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

// ParseDate interpreta una fecha en formato YYYY-MM-DD
func ParseDate(value string) (time.Time, bool) {
	t, err := time.Parse(dateLayout, strings.TrimSpace(value))
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// Validate valida el request de emisión individual y retorna la lista
// de campos inválidos
func (r *CreateCertificateRequest) Validate() error {
	var bad []string

	if !IsValidDocumentIDType(r.DocumentIDType) {
		bad = append(bad, "document_id_type")
	} else if r.DocumentID != nil && !ValidateDocumentID(r.DocumentIDType, *r.DocumentID) {
		bad = append(bad, "document_id")
	}
	if strings.TrimSpace(r.FullName) == "" {
		bad = append(bad, "full_name")
	}
	if r.RecipientEmail != nil && !IsValidEmail(*r.RecipientEmail) {
		bad = append(bad, "recipient_email")
	}
	if strings.TrimSpace(r.Role) == "" {
		bad = append(bad, "role")
	}
	if strings.TrimSpace(r.EventName) == "" {
		bad = append(bad, "event_name")
	}
	if r.AcademicHours <= 0 {
		bad = append(bad, "academic_hours")
	}

	var start, end time.Time
	var hasStart, hasEnd bool
	if strings.TrimSpace(r.PeriodStart) != "" {
		if start, hasStart = ParseDate(r.PeriodStart); !hasStart {
			bad = append(bad, "period_start")
		}
	}
	if strings.TrimSpace(r.PeriodEnd) != "" {
		if end, hasEnd = ParseDate(r.PeriodEnd); !hasEnd {
			bad = append(bad, "period_end")
		}
	}
	if hasStart && hasEnd && end.Before(start) {
		bad = append(bad, "period_end")
	}

	if len(bad) > 0 {
		return &ValidationError{Fields: bad}
	}
	return nil
}
