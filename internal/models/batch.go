package models

import (
	"time"

	"github.com/google/uuid"
)

// RowValidation representa el resultado de validación de una fila
type RowValidation string

const (
	RowValid   RowValidation = "valid"
	RowInvalid RowValidation = "invalid"
)

// BatchRow representa una fila del archivo importado durante el
// procesamiento. El lote es estado efímero: no se persiste.
type BatchRow struct {
	LineNumber int               `json:"line_number"`
	RawFields  map[string]string `json:"raw_fields"`
	Validation RowValidation     `json:"validation"`
	Errors     []string          `json:"errors,omitempty"`
}

// BatchSummary representa el resumen retornado al finalizar un lote
type BatchSummary struct {
	TotalRows      int      `json:"total_rows"`
	ValidCount     int      `json:"valid_count"`
	GeneratedCount int      `json:"generated_count"`
	ErrorCount     int      `json:"error_count"`
	Errors         []string `json:"errors,omitempty"`
}

// BatchJob representa una corrida de importación masiva
type BatchJob struct {
	ID               uuid.UUID    `json:"id"`
	OriginalFileName string       `json:"original_file_name"`
	TemplateID       uuid.UUID    `json:"template_id"`
	UploadedAt       time.Time    `json:"uploaded_at"`
	Rows             []BatchRow   `json:"rows,omitempty"`
	Summary          BatchSummary `json:"summary"`
}
