package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/edutec-labs/certgen-service/internal/config"
	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// requiredColumns son las columnas obligatorias del archivo de
// importación, tras normalizar los encabezados
var requiredColumns = []string{
	"document_type",
	"document_id",
	"full_name",
	"role",
	"event_name",
	"event_description",
	"period_start",
	"period_end",
	"academic_hours",
}

// BatchService procesa archivos CSV/TSV de importación masiva. El lote
// es síncrono y efímero: el resumen se retorna en la misma llamada y no
// queda estado persistido del lote en sí.
type BatchService struct {
	certService *CertificateService
	cfg         *config.BatchConfig
	logger      *logrus.Logger
}

// NewBatchService crea una nueva instancia del servicio
func NewBatchService(certService *CertificateService, cfg *config.BatchConfig, logger *logrus.Logger) *BatchService {
	return &BatchService{
		certService: certService,
		cfg:         cfg,
		logger:      logger,
	}
}

// Process parsea y procesa un archivo de importación completo. Columnas
// requeridas ausentes abortan el lote sin procesar ninguna fila. Cada
// fila se valida de forma independiente: las inválidas se reportan y
// las válidas se emiten en paralelo con concurrencia acotada.
func (s *BatchService) Process(ctx context.Context, data []byte, filename, contentType string, templateID *uuid.UUID) (*models.BatchJob, error) {
	reader := csv.NewReader(bytes.NewReader(data))
	reader.Comma = detectDelimiter(filename, contentType)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing import file: %w", err)
	}
	if len(records) == 0 {
		return nil, &models.ValidationError{Fields: []string{"file"}, Reason: "empty file"}
	}

	header := normalizeHeader(records[0])
	if err := checkRequiredColumns(header); err != nil {
		return nil, err
	}

	dataRows := records[1:]
	if s.cfg.MaxRows > 0 && len(dataRows) > s.cfg.MaxRows {
		return nil, &models.ValidationError{
			Fields: []string{"file"},
			Reason: fmt.Sprintf("too many rows (max %d)", s.cfg.MaxRows),
		}
	}

	job := &models.BatchJob{
		ID:               uuid.New(),
		OriginalFileName: filename,
		UploadedAt:       time.Now(),
		Rows:             make([]models.BatchRow, len(dataRows)),
	}
	if templateID != nil {
		job.TemplateID = *templateID
	}

	// Validación fila por fila. La numeración es la del archivo: la
	// primera fila de datos es la 2 por el encabezado.
	for i, record := range dataRows {
		lineNumber := i + 2
		row := models.BatchRow{
			LineNumber: lineNumber,
			RawFields:  mapRow(header, record),
			Validation: models.RowValid,
		}

		if badFields := validateRow(row.RawFields); len(badFields) > 0 {
			row.Validation = models.RowInvalid
			row.Errors = []string{fmt.Sprintf("Row %d: %s", lineNumber, strings.Join(badFields, ", "))}
		}

		job.Rows[i] = row
	}

	s.issueValidRows(ctx, job, templateID)

	summary := summarize(job)
	job.Summary = summary

	s.logger.WithFields(logrus.Fields{
		"batch_id":  job.ID,
		"file":      filename,
		"total":     summary.TotalRows,
		"valid":     summary.ValidCount,
		"generated": summary.GeneratedCount,
		"errors":    summary.ErrorCount,
	}).Info("Batch import completed")

	return job, nil
}

// issueValidRows emite las filas válidas en paralelo. Las filas
// conservan la capitalización del archivo origen. Un error de emisión
// marca solo su fila; la cancelación del contexto detiene la
// planificación de filas restantes.
func (s *BatchService) issueValidRows(ctx context.Context, job *models.BatchJob, templateID *uuid.UUID) {
	workers := s.cfg.Workers
	if workers < 1 {
		workers = 1
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range job.Rows {
		if job.Rows[i].Validation != models.RowValid {
			continue
		}
		if gctx.Err() != nil {
			break
		}

		row := &job.Rows[i]
		g.Go(func() error {
			req := rowToRequest(row.RawFields, templateID)
			if _, err := s.certService.IssueFromRow(gctx, req); err != nil {
				mu.Lock()
				row.Errors = append(row.Errors, fmt.Sprintf("Row %d: %s", row.LineNumber, err.Error()))
				mu.Unlock()
			}
			return nil
		})
	}

	// Los errores por fila se reportan en el resumen, nunca como error
	// del grupo
	_ = g.Wait()
}

// validateRow valida una fila y retorna los nombres de campos inválidos
// ordenados
func validateRow(fields map[string]string) []string {
	var bad []string

	docType := models.DocumentIDType(strings.ToUpper(strings.TrimSpace(fields["document_type"])))
	docID := strings.TrimSpace(fields["document_id"])
	if !models.IsValidDocumentIDType(docType) {
		bad = append(bad, "document_type")
	} else if docID != "" && !models.ValidateDocumentID(docType, docID) {
		bad = append(bad, "document_id")
	}

	if strings.TrimSpace(fields["full_name"]) == "" {
		bad = append(bad, "full_name")
	}
	if email := strings.TrimSpace(fields["email"]); email != "" && !models.IsValidEmail(email) {
		bad = append(bad, "email")
	}
	if strings.TrimSpace(fields["role"]) == "" {
		bad = append(bad, "role")
	}
	if strings.TrimSpace(fields["event_name"]) == "" {
		bad = append(bad, "event_name")
	}

	hours, err := strconv.Atoi(strings.TrimSpace(fields["academic_hours"]))
	if err != nil || hours <= 0 {
		bad = append(bad, "academic_hours")
	}

	var start, end time.Time
	var hasStart, hasEnd bool
	if v := strings.TrimSpace(fields["period_start"]); v != "" {
		if start, hasStart = models.ParseDate(v); !hasStart {
			bad = append(bad, "period_start")
		}
	}
	if v := strings.TrimSpace(fields["period_end"]); v != "" {
		if end, hasEnd = models.ParseDate(v); !hasEnd {
			bad = append(bad, "period_end")
		}
	}
	if hasStart && hasEnd && end.Before(start) {
		bad = append(bad, "period_end")
	}

	return bad
}

// rowToRequest convierte una fila ya validada al request de emisión
func rowToRequest(fields map[string]string, templateID *uuid.UUID) *models.CreateCertificateRequest {
	req := &models.CreateCertificateRequest{
		DocumentIDType:   models.DocumentIDType(strings.ToUpper(strings.TrimSpace(fields["document_type"]))),
		FullName:         strings.TrimSpace(fields["full_name"]),
		Role:             strings.TrimSpace(fields["role"]),
		EventName:        strings.TrimSpace(fields["event_name"]),
		EventDescription: strings.TrimSpace(fields["event_description"]),
		PeriodStart:      strings.TrimSpace(fields["period_start"]),
		PeriodEnd:        strings.TrimSpace(fields["period_end"]),
		TemplateID:       templateID,
	}

	if docID := strings.TrimSpace(fields["document_id"]); docID != "" {
		req.DocumentID = &docID
	}
	// La columna email es opcional en el archivo de importación
	if email := strings.TrimSpace(fields["email"]); email != "" {
		req.RecipientEmail = &email
	}
	if hours, err := strconv.Atoi(strings.TrimSpace(fields["academic_hours"])); err == nil {
		req.AcademicHours = hours
	}

	return req
}

// summarize arma el resumen del lote con los errores en orden de fila
func summarize(job *models.BatchJob) models.BatchSummary {
	summary := models.BatchSummary{TotalRows: len(job.Rows)}

	for _, row := range job.Rows {
		if row.Validation == models.RowValid {
			summary.ValidCount++
			if len(row.Errors) == 0 {
				summary.GeneratedCount++
			}
		}
		summary.Errors = append(summary.Errors, row.Errors...)
	}

	summary.ErrorCount = len(summary.Errors)
	return summary
}

// normalizeHeader normaliza los encabezados: recorte, minúsculas y
// espacios internos a guiones bajos
func normalizeHeader(header []string) []string {
	normalized := make([]string, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(h))
		h = strings.Join(strings.Fields(h), "_")
		normalized[i] = h
	}
	return normalized
}

// checkRequiredColumns verifica la presencia de todas las columnas
// requeridas
func checkRequiredColumns(header []string) error {
	present := make(map[string]bool, len(header))
	for _, h := range header {
		present[h] = true
	}

	var missing []string
	for _, col := range requiredColumns {
		if !present[col] {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		sort.Strings(missing)
		return &models.MissingColumnsError{Columns: missing}
	}

	return nil
}

// mapRow mapea una fila cruda por nombre de columna. Celdas de más se
// descartan; celdas faltantes quedan como cadena vacía.
func mapRow(header, record []string) map[string]string {
	fields := make(map[string]string, len(header))
	for i, h := range header {
		if h == "" {
			continue
		}
		if i < len(record) {
			fields[h] = record[i]
		} else {
			fields[h] = ""
		}
	}
	return fields
}

// detectDelimiter elige el separador según extensión o content type
func detectDelimiter(filename, contentType string) rune {
	if strings.HasSuffix(strings.ToLower(filename), ".tsv") {
		return '\t'
	}
	if strings.Contains(strings.ToLower(contentType), "tab-separated-values") {
		return '\t'
	}
	return ','
}
