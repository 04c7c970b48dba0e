package services

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/jung-kurt/gofpdf"
	"github.com/sirupsen/logrus"
)

// Dimensiones lógicas de la página (A4 apaisado, en mm). Todas las
// coordenadas de FieldConfig son absolutas dentro de este espacio.
const (
	pageWidth  = 297.0
	pageHeight = 210.0

	// Ancho máximo por defecto para campos multilínea
	defaultWrapWidth = 180.0
)

// Fecha fija de creación del PDF para que el render sea determinista:
// el mismo par (plantilla, valores) produce bytes idénticos.
var fixedCreationDate = time.Date(2000, time.January, 1, 0, 0, 0, 0, time.UTC)

// Renderer compone la página final del certificado: fondo, bloques de
// firma, marcador de verificación y campos de texto.
type Renderer struct {
	logger *logrus.Logger
}

// NewRenderer crea una nueva instancia del renderizador
func NewRenderer(logger *logrus.Logger) *Renderer {
	return &Renderer{
		logger: logger,
	}
}

// Render genera el PDF del certificado. El orden de dibujo es fijo:
// fondo, bloques de firma, marcador de verificación, campos de texto en
// el orden declarado del esquema. Un campo de texto oculto o sin
// configuración se omite por completo. Las coordenadas no se validan
// contra los límites de la página: un campo fuera de rango se dibuja
// fuera del lienzo sin error.
func (r *Renderer) Render(template *models.Template, background []byte, values map[models.FieldKey]string) ([]byte, error) {
	pdf := gofpdf.New("L", "mm", "A4", "")
	pdf.SetCreationDate(fixedCreationDate)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	// 1. Fondo
	if len(background) > 0 {
		r.drawBackground(pdf, background)
	}

	// 2. Bloques de firma
	r.drawSignatureBlock(pdf, template, models.FieldSignatureLeft)
	r.drawSignatureBlock(pdf, template, models.FieldSignatureRight)

	// 3. Marcador de verificación (solo si está configurado visible)
	r.drawMarker(pdf, tr, template, values[models.FieldVerificationCode])

	// 4. Campos de texto en orden del esquema
	for _, def := range models.FieldSchema {
		if def.Kind != models.FieldKindText {
			continue
		}
		cfg, ok := template.ConfigFor(def.Key)
		if !ok || !cfg.Visible {
			continue
		}
		r.drawTextField(pdf, tr, def, cfg, values[def.Key])
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("error generating PDF: %w", err)
	}

	return buf.Bytes(), nil
}

// drawBackground dibuja la imagen de fondo cubriendo toda la página
func (r *Renderer) drawBackground(pdf *gofpdf.Fpdf, background []byte) {
	imageType := detectImageType(background)
	if imageType == "" {
		r.logger.Warn("Unsupported background image format, rendering blank background")
		return
	}

	opts := gofpdf.ImageOptions{ImageType: imageType, ReadDpi: false}
	pdf.RegisterImageOptionsReader("template-background", opts, bytes.NewReader(background))
	if pdf.Err() {
		r.logger.WithField("error", pdf.Error()).Warn("Could not register background image, rendering blank background")
		pdf.ClearError()
		return
	}
	pdf.ImageOptions("template-background", 0, 0, pageWidth, pageHeight, false, opts, 0, "")
}

// drawSignatureBlock dibuja la línea de firma de un bloque. Sin
// configuración en la plantilla se usan posición y tamaño por defecto
// del esquema; con configuración no visible el bloque se omite.
func (r *Renderer) drawSignatureBlock(pdf *gofpdf.Fpdf, template *models.Template, key models.FieldKey) {
	def, _ := models.FieldDefFor(key)
	x, y, w, h := def.DefaultX, def.DefaultY, def.DefaultWidth, def.DefaultHeight

	if cfg, ok := template.ConfigFor(key); ok {
		if !cfg.Visible {
			return
		}
		x, y = cfg.X, cfg.Y
		if cfg.Width > 0 {
			w = cfg.Width
		}
		if cfg.Height > 0 {
			h = cfg.Height
		}
	}

	pdf.SetDrawColor(51, 51, 51)
	pdf.SetLineWidth(0.4)
	pdf.Line(x, y+h, x+w, y+h)
}

// drawMarker dibuja el marcador de verificación con el código debajo
func (r *Renderer) drawMarker(pdf *gofpdf.Fpdf, tr func(string) string, template *models.Template, code string) {
	cfg, ok := template.ConfigFor(models.FieldQRMarker)
	if !ok || !cfg.Visible {
		return
	}

	def, _ := models.FieldDefFor(models.FieldQRMarker)
	w, h := cfg.Width, cfg.Height
	if w <= 0 {
		w = def.DefaultWidth
	}
	if h <= 0 {
		h = def.DefaultHeight
	}

	pdf.SetDrawColor(51, 51, 51)
	pdf.SetLineWidth(0.3)
	pdf.Rect(cfg.X, cfg.Y, w, h, "D")

	if code != "" {
		pdf.SetFont("Courier", "", 7)
		pdf.SetTextColor(51, 51, 51)
		pdf.SetXY(cfg.X-10, cfg.Y+h+1)
		pdf.CellFormat(w+20, 4, tr(code), "", 0, "C", false, 0, "")
	}
}

// drawTextField dibuja un campo de texto resolviendo su estilo contra
// los valores por defecto del esquema
func (r *Renderer) drawTextField(pdf *gofpdf.Fpdf, tr func(string) string, def models.FieldDef, cfg models.FieldConfig, value string) {
	style := resolveStyle(def, cfg)

	red, green, blue := parseHexColor(style.Color)
	pdf.SetTextColor(red, green, blue)
	pdf.SetFont(coreFontFamily(style.FontFamily), fontStyleString(style), style.FontSize)

	lineHeight := style.FontSize * 0.5

	if def.Key == models.FieldDescription {
		// Campo multilínea: ancho máximo fijo, las líneas envueltas se
		// apilan hacia abajo desde la y configurada
		width := cfg.Width
		if width <= 0 {
			width = def.DefaultWidth
		}
		if width <= 0 {
			width = defaultWrapWidth
		}
		pdf.SetXY(cfg.X, cfg.Y)
		pdf.MultiCell(width, lineHeight, tr(value), "", "L", false)
		return
	}

	pdf.SetXY(cfg.X, cfg.Y)
	pdf.CellFormat(0, lineHeight, tr(value), "", 0, "L", false, 0, "")
}

// resolveStyle combina la configuración de plantilla con los defaults
// del esquema
func resolveStyle(def models.FieldDef, cfg models.FieldConfig) models.FieldStyle {
	style := def.DefaultStyle
	if cfg.FontSize > 0 {
		style.FontSize = cfg.FontSize
	}
	if cfg.Color != "" {
		style.Color = cfg.Color
	}
	if cfg.FontFamily != "" {
		style.FontFamily = cfg.FontFamily
	}
	if cfg.FontWeight != "" {
		style.FontWeight = cfg.FontWeight
	}
	if cfg.FontStyle != "" {
		style.FontStyle = cfg.FontStyle
	}
	if style.FontSize <= 0 {
		style.FontSize = 12
	}
	return style
}

// coreFontFamily mapea la familia configurada a una fuente core de PDF
func coreFontFamily(family string) string {
	switch strings.ToLower(family) {
	case "times", "serif":
		return "Times"
	case "courier", "monospace":
		return "Courier"
	default:
		return "Arial"
	}
}

// fontStyleString arma el modificador de estilo de gofpdf
func fontStyleString(style models.FieldStyle) string {
	var s string
	if strings.EqualFold(style.FontWeight, "bold") {
		s += "B"
	}
	if strings.EqualFold(style.FontStyle, "italic") {
		s += "I"
	}
	return s
}

// parseHexColor interpreta un color "#RRGGBB"; negro ante formato inválido
func parseHexColor(color string) (int, int, int) {
	color = strings.TrimPrefix(strings.TrimSpace(color), "#")
	if len(color) != 6 {
		return 0, 0, 0
	}

	var red, green, blue int
	if _, err := fmt.Sscanf(color, "%02x%02x%02x", &red, &green, &blue); err != nil {
		return 0, 0, 0
	}
	return red, green, blue
}

// detectImageType infiere el tipo de imagen soportado por gofpdf
func detectImageType(data []byte) string {
	switch http.DetectContentType(data) {
	case "image/png":
		return "PNG"
	case "image/jpeg":
		return "JPG"
	case "image/gif":
		return "GIF"
	default:
		return ""
	}
}
