package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/sirupsen/logrus"
)

// Placeholders legibles para previsualizaciones con datos incompletos.
// Nunca se reemplaza un valor ausente por cadena vacía.
const (
	placeholderInstitute   = "[NOMBRE DE LA INSTITUCIÓN]"
	placeholderRecipient   = "[NOMBRE DEL PARTICIPANTE]"
	placeholderRole        = "[CARGO]"
	placeholderEvent       = "[NOMBRE DEL EVENTO]"
	placeholderDescription = "[DESCRIPCIÓN DEL EVENTO]"
	placeholderPeriod      = "[PERIODO]"
	placeholderIssueDate   = "[FECHA DE EMISIÓN]"
	placeholderCode        = "[CÓDIGO DE VERIFICACIÓN]"
)

// Literales fijos del certificado
const (
	literalTitle      = "CERTIFICADO"
	literalSalutation = "Otorgado a:"
)

var spanishMonths = [...]string{
	"enero", "febrero", "marzo", "abril", "mayo", "junio",
	"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
}

// BindOptions controla el comportamiento del binder por ruta de entrada.
// La emisión individual pasa a mayúsculas los campos de texto libre; la
// importación masiva conserva la capitalización del archivo origen.
type BindOptions struct {
	UppercaseFreeText bool
}

// RecordBinder resuelve los valores renderizables de cada campo del
// esquema a partir de un registro de certificado
type RecordBinder struct {
	instituteName string
	logger        *logrus.Logger
}

// NewRecordBinder crea una nueva instancia del binder
func NewRecordBinder(instituteName string, logger *logrus.Logger) *RecordBinder {
	return &RecordBinder{
		instituteName: instituteName,
		logger:        logger,
	}
}

// Bind produce el mapa de valores por clave del esquema. Todo campo del
// esquema recibe un valor; los campos ocultos en la plantilla reciben
// cadena vacía. Un campo visible cuya clave no pertenece al esquema es
// un error de validación.
func (b *RecordBinder) Bind(record *models.CertificateRecord, template *models.Template, opts BindOptions) (map[models.FieldKey]string, error) {
	if err := models.ValidateFieldConfig(template.FieldConfig); err != nil {
		return nil, err
	}

	fullName := record.FullName
	role := record.Role
	eventName := record.EventName
	description := record.EventDescription
	if opts.UppercaseFreeText {
		fullName = strings.ToUpper(fullName)
		role = strings.ToUpper(role)
		eventName = strings.ToUpper(eventName)
		description = strings.ToUpper(description)
	}

	values := map[models.FieldKey]string{
		models.FieldInstituteName:    orPlaceholder(b.instituteName, placeholderInstitute),
		models.FieldTitle:            literalTitle,
		models.FieldSalutation:       literalSalutation,
		models.FieldRecipientName:    orPlaceholder(fullName, placeholderRecipient),
		models.FieldDescription:      orPlaceholder(description, placeholderDescription),
		models.FieldRole:             orPlaceholder(role, placeholderRole),
		models.FieldEventDetail:      orPlaceholder(eventName, placeholderEvent),
		models.FieldPeriod:           orPlaceholder(formatPeriod(record.PeriodStart, record.PeriodEnd, record.AcademicHours), placeholderPeriod),
		models.FieldIssueDate:        bindIssueDate(record.IssueDate),
		models.FieldVerificationCode: orPlaceholder(record.VerificationCode, placeholderCode),
	}

	// Los campos ocultos o sin configuración quedan en cadena vacía
	for _, key := range models.TextFieldKeys() {
		cfg, ok := template.ConfigFor(key)
		if !ok || !cfg.Visible {
			values[key] = ""
		}
	}

	return values, nil
}

// bindIssueDate formatea la fecha de emisión o su placeholder
func bindIssueDate(issueDate time.Time) string {
	if issueDate.IsZero() {
		return placeholderIssueDate
	}
	return FormatLongDate(issueDate)
}

// FormatLongDate formatea una fecha en forma larga localizada
// ("10 de marzo de 2025")
func FormatLongDate(t time.Time) string {
	return fmt.Sprintf("%d de %s de %d", t.Day(), spanishMonths[t.Month()-1], t.Year())
}

// formatPeriod combina fechas de inicio/fin y horas académicas en una
// sola oración
func formatPeriod(start, end *time.Time, academicHours int) string {
	var sentence string
	switch {
	case start != nil && end != nil:
		sentence = fmt.Sprintf("Del %s al %s", FormatLongDate(*start), FormatLongDate(*end))
	case start != nil:
		sentence = fmt.Sprintf("El %s", FormatLongDate(*start))
	case end != nil:
		sentence = fmt.Sprintf("El %s", FormatLongDate(*end))
	}

	if academicHours > 0 {
		if sentence == "" {
			return fmt.Sprintf("Con un total de %d horas académicas", academicHours)
		}
		sentence += fmt.Sprintf(", con un total de %d horas académicas", academicHours)
	}

	return sentence
}

// orPlaceholder retorna el valor o su placeholder si está vacío
func orPlaceholder(value, placeholder string) string {
	if strings.TrimSpace(value) == "" {
		return placeholder
	}
	return value
}
