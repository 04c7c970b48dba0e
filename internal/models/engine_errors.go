package models

import (
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// Errores centinela del motor de certificados
var (
	// ErrTemplateNotFound indica que la plantilla no existe
	ErrTemplateNotFound = errors.New("template not found")
	// ErrCertificateNotFound indica que el certificado no existe
	ErrCertificateNotFound = errors.New("certificate not found")
	// ErrNoActiveTemplate indica que no hay plantilla activa configurada
	ErrNoActiveTemplate = errors.New("no active template configured")
	// ErrActiveTemplateDelete indica un intento de borrar la plantilla activa
	ErrActiveTemplateDelete = errors.New("active template cannot be deleted")
	// ErrVerificationCodeTaken indica una colisión del código en el store
	ErrVerificationCodeTaken = errors.New("verification code already exists")
	// ErrCodeCollisionExhausted indica que se agotaron los reintentos de
	// generación de código único. Es fatal y se propaga al caller.
	ErrCodeCollisionExhausted = errors.New("verification code collision retries exhausted")
)

// ValidationError representa campos con formato inválido. En lote tiene
// alcance de fila; en emisión individual, de request.
type ValidationError struct {
	Fields []string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("validation failed (%s): %s", e.Reason, strings.Join(e.Fields, ", "))
	}
	return "validation failed: " + strings.Join(e.Fields, ", ")
}

// DuplicateCertificateError indica que ya existe un certificado activo
// para el mismo documento y evento
type DuplicateCertificateError struct {
	DocumentID string
	EventName  string
	ExistingID uuid.UUID
}

func (e *DuplicateCertificateError) Error() string {
	return fmt.Sprintf("duplicate active certificate for document %s and event %q", e.DocumentID, e.EventName)
}

// MissingColumnsError indica columnas requeridas ausentes en el archivo
// de importación. El lote falla completo sin procesar filas.
type MissingColumnsError struct {
	Columns []string
}

func (e *MissingColumnsError) Error() string {
	return "missing columns: " + strings.Join(e.Columns, ", ")
}

// AssetUnavailableError indica que el fondo de la plantilla no pudo
// resolverse. El render continúa con fondo en blanco; no es fatal.
type AssetUnavailableError struct {
	Ref string
	Err error
}

func (e *AssetUnavailableError) Error() string {
	return fmt.Sprintf("background asset %q unavailable: %v", e.Ref, e.Err)
}

func (e *AssetUnavailableError) Unwrap() error {
	return e.Err
}
