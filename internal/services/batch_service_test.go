package services

import (
	"context"
	"strings"
	"testing"

	"github.com/edutec-labs/certgen-service/internal/config"
	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBatchFixture(t *testing.T) (*BatchService, *memCertStore) {
	t.Helper()

	certStore := newMemCertStore()
	templateStore := newMemTemplateStore()
	require.NoError(t, templateStore.Create(newTestTemplate()))

	certService := newTestService(certStore, templateStore, newMemFileStore(), nil)
	batchService := NewBatchService(certService, &config.BatchConfig{Workers: 4, MaxRows: 100}, testLogger())
	return batchService, certStore
}

const batchHeader = "document_type,document_id,full_name,role,event_name,event_description,period_start,period_end,academic_hours"

func batchRow(docID, name string) string {
	return "DNI," + docID + "," + name + ",Asistente,Congreso 2025,Talleres de innovación,2025-03-01,2025-03-03,16"
}

func TestBatchProcess(t *testing.T) {
	service, certStore := newBatchFixture(t)

	lines := []string{batchHeader}
	for i := 0; i < 10; i++ {
		docID := "1000000" + string(rune('0'+i))
		name := "Persona " + string(rune('A'+i))
		lines = append(lines, batchRow(docID, name))
	}
	// Dos filas inválidas: las líneas 5 y 9 del archivo contando el
	// encabezado como línea 1
	lines[4] = "DNI,123,Persona D,Asistente,Congreso 2025,Talleres,2025-03-01,2025-03-03,16"
	lines[8] = "DNI,10000007,Persona H,,Congreso 2025,Talleres,2025-03-01,2025-03-03,cero"

	data := []byte(strings.Join(lines, "\n"))

	job, err := service.Process(context.Background(), data, "lote.csv", "text/csv", nil)
	require.NoError(t, err)

	summary := job.Summary
	assert.Equal(t, 10, summary.TotalRows)
	assert.Equal(t, 8, summary.ValidCount)
	assert.Equal(t, 8, summary.GeneratedCount)
	assert.Equal(t, 2, summary.ErrorCount)

	require.Len(t, summary.Errors, 2)
	assert.Equal(t, "Row 5: document_id", summary.Errors[0])
	assert.Equal(t, "Row 9: role, academic_hours", summary.Errors[1])

	assert.Len(t, certStore.records, 8)
}

func TestBatchMissingColumnsFailsFast(t *testing.T) {
	service, certStore := newBatchFixture(t)

	data := []byte("document_type,full_name,role\nDNI,Persona A,Asistente\n")

	_, err := service.Process(context.Background(), data, "lote.csv", "text/csv", nil)
	require.Error(t, err)

	var missingErr *models.MissingColumnsError
	require.ErrorAs(t, err, &missingErr)
	assert.Contains(t, missingErr.Columns, "document_id")
	assert.Contains(t, missingErr.Columns, "academic_hours")

	// Fail-fast: ninguna fila se procesa
	assert.Empty(t, certStore.records)
}

func TestBatchHeaderNormalization(t *testing.T) {
	service, _ := newBatchFixture(t)

	header := " Document Type ,document_id,Full Name,ROLE,Event Name,Event Description,Period Start,Period End,Academic Hours"
	data := []byte(header + "\n" + batchRow("12345678", "Persona A") + "\n")

	job, err := service.Process(context.Background(), data, "lote.csv", "text/csv", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, job.Summary.GeneratedCount)
}

func TestBatchPreservesSourceCasing(t *testing.T) {
	service, certStore := newBatchFixture(t)

	data := []byte(batchHeader + "\nDNI,12345678,maría pérez,asistente,Congreso 2025,Talleres,2025-03-01,2025-03-03,16\n")

	job, err := service.Process(context.Background(), data, "lote.csv", "text/csv", nil)
	require.NoError(t, err)
	require.Equal(t, 1, job.Summary.GeneratedCount)

	for _, record := range certStore.records {
		assert.Equal(t, "maría pérez", record.FullName)
		assert.Equal(t, "asistente", record.Role)
	}
}

func TestBatchTSVDelimiter(t *testing.T) {
	service, _ := newBatchFixture(t)

	header := strings.ReplaceAll(batchHeader, ",", "\t")
	row := strings.ReplaceAll(batchRow("12345678", "Persona A"), ",", "\t")
	data := []byte(header + "\n" + row + "\n")

	job, err := service.Process(context.Background(), data, "lote.tsv", "", nil)
	require.NoError(t, err)
	assert.Equal(t, 1, job.Summary.GeneratedCount)

	// También por content type, sin depender de la extensión. El mismo
	// documento y evento ya fue emitido, así que la fila falla por
	// duplicado pero el lote termina con normalidad.
	job, err = service.Process(context.Background(), data, "lote.txt", "text/tab-separated-values", nil)
	require.NoError(t, err)
	assert.Equal(t, 0, job.Summary.GeneratedCount)
	require.Len(t, job.Summary.Errors, 1)
	assert.Contains(t, job.Summary.Errors[0], "Row 2:")
	assert.Contains(t, job.Summary.Errors[0], "duplicate")
}

func TestBatchRowCountLimit(t *testing.T) {
	certStore := newMemCertStore()
	templateStore := newMemTemplateStore()
	require.NoError(t, templateStore.Create(newTestTemplate()))
	certService := newTestService(certStore, templateStore, newMemFileStore(), nil)
	service := NewBatchService(certService, &config.BatchConfig{Workers: 2, MaxRows: 2}, testLogger())

	lines := []string{batchHeader}
	for i := 0; i < 3; i++ {
		lines = append(lines, batchRow("1000000"+string(rune('0'+i)), "Persona"))
	}
	data := []byte(strings.Join(lines, "\n"))

	_, err := service.Process(context.Background(), data, "lote.csv", "text/csv", nil)
	require.Error(t, err)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Empty(t, certStore.records)
}

func TestBatchEmptyFile(t *testing.T) {
	service, _ := newBatchFixture(t)

	_, err := service.Process(context.Background(), []byte(""), "lote.csv", "text/csv", nil)
	require.Error(t, err)
}

func TestBatchRowErrorsDoNotStopOthers(t *testing.T) {
	certStore := newMemCertStore()
	templateStore := newMemTemplateStore()
	require.NoError(t, templateStore.Create(newTestTemplate()))
	certService := newTestService(certStore, templateStore, newMemFileStore(), nil)
	// Un solo worker para que el orden de emisión sea determinista
	service := NewBatchService(certService, &config.BatchConfig{Workers: 1, MaxRows: 100}, testLogger())

	// Dos filas con el mismo documento y evento: la segunda emisión
	// falla por duplicado pero la tercera fila independiente se emite
	data := []byte(strings.Join([]string{
		batchHeader,
		batchRow("12345678", "Persona A"),
		batchRow("12345678", "Persona A"),
		batchRow("87654321", "Persona B"),
	}, "\n"))

	job, err := service.Process(context.Background(), data, "lote.csv", "text/csv", nil)
	require.NoError(t, err)

	summary := job.Summary
	assert.Equal(t, 3, summary.TotalRows)
	assert.Equal(t, 3, summary.ValidCount)
	assert.Equal(t, 2, summary.GeneratedCount)
	assert.Equal(t, 1, summary.ErrorCount)
	assert.Len(t, certStore.records, 2)
}
