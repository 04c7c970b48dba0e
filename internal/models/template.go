package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// FieldConfig representa la configuración persistida de un campo dentro
// de una plantilla. Para campos de texto aplican los atributos
// tipográficos; para firmas y marcadores aplican Width/Height.
type FieldConfig struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	FontSize   float64 `json:"font_size,omitempty"`
	Color      string  `json:"color,omitempty"`
	FontFamily string  `json:"font_family,omitempty"`
	FontWeight string  `json:"font_weight,omitempty"`
	FontStyle  string  `json:"font_style,omitempty"`
	Width      float64 `json:"width,omitempty"`
	Height     float64 `json:"height,omitempty"`
	Visible    bool    `json:"visible"`
}

// FieldConfigMap mapea claves del esquema a su configuración. Se
// persiste como JSONB.
type FieldConfigMap map[FieldKey]FieldConfig

// Value implementa driver.Valuer para la columna JSONB
func (m FieldConfigMap) Value() (driver.Value, error) {
	if m == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(m)
}

// Scan implementa sql.Scanner para la columna JSONB
func (m *FieldConfigMap) Scan(src interface{}) error {
	if src == nil {
		*m = FieldConfigMap{}
		return nil
	}
	data, ok := src.([]byte)
	if !ok {
		return fmt.Errorf("unsupported type for field config: %T", src)
	}
	return json.Unmarshal(data, m)
}

// Template representa una plantilla de certificado: un fondo más la
// configuración de posición/estilo por campo.
type Template struct {
	ID                 uuid.UUID      `json:"id" db:"id"`
	Name               string         `json:"name" db:"name"`
	BackgroundAssetRef *string        `json:"background_asset_ref,omitempty" db:"background_asset_ref"`
	FieldConfig        FieldConfigMap `json:"field_config" db:"field_config"`
	IsActive           bool           `json:"is_active" db:"is_active"`
	CreatedAt          time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at" db:"updated_at"`
}

// ConfigFor retorna la configuración de un campo y si está definida
func (t *Template) ConfigFor(key FieldKey) (FieldConfig, bool) {
	cfg, ok := t.FieldConfig[key]
	return cfg, ok
}

// CreateTemplateRequest representa el request para crear una plantilla
type CreateTemplateRequest struct {
	Name               string         `json:"name" binding:"required"`
	BackgroundAssetRef *string        `json:"background_asset_ref,omitempty"`
	FieldConfig        FieldConfigMap `json:"field_config" binding:"required"`
}

// UpdateTemplateRequest representa el request para actualizar una plantilla
type UpdateTemplateRequest struct {
	Name               *string        `json:"name,omitempty"`
	BackgroundAssetRef *string        `json:"background_asset_ref,omitempty"`
	FieldConfig        FieldConfigMap `json:"field_config,omitempty"`
}

// TemplateListResponse representa la respuesta al listar plantillas
type TemplateListResponse struct {
	Items []Template `json:"items"`
	Total int        `json:"total"`
}

// ValidateFieldConfig valida un mapa de configuración contra el esquema
// de campos. Claves desconocidas son un error de validación, nunca un
// no-op silencioso.
func ValidateFieldConfig(cfg FieldConfigMap) error {
	var bad []string
	for key := range cfg {
		if !IsValidFieldKey(key) {
			bad = append(bad, string(key))
		}
	}
	if len(bad) > 0 {
		sort.Strings(bad)
		return &ValidationError{Fields: bad, Reason: "unknown field keys"}
	}
	return nil
}
