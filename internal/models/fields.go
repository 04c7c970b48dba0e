package models

// FieldKey identifica un campo posicionable del certificado
type FieldKey string

const (
	FieldInstituteName    FieldKey = "institute_name"
	FieldTitle            FieldKey = "title"
	FieldSalutation       FieldKey = "salutation"
	FieldRecipientName    FieldKey = "recipient_name"
	FieldDescription      FieldKey = "description"
	FieldRole             FieldKey = "role"
	FieldEventDetail      FieldKey = "event_detail"
	FieldPeriod           FieldKey = "period"
	FieldIssueDate        FieldKey = "issue_date"
	FieldVerificationCode FieldKey = "verification_code"
	FieldSignatureLeft    FieldKey = "signature_left"
	FieldSignatureRight   FieldKey = "signature_right"
	FieldQRMarker         FieldKey = "qr_marker"
)

// FieldKind representa el tipo de campo
type FieldKind string

const (
	FieldKindText      FieldKind = "text"
	FieldKindImageSlot FieldKind = "image-slot"
	FieldKindMarker    FieldKind = "marker"
)

// FieldStyle representa el estilo tipográfico por defecto de un campo
type FieldStyle struct {
	FontSize   float64 `json:"font_size"`
	Color      string  `json:"color"`
	FontFamily string  `json:"font_family"`
	FontWeight string  `json:"font_weight"`
	FontStyle  string  `json:"font_style"`
}

// FieldDef representa una entrada del esquema de campos. El esquema es
// fijo a nivel de código y lo comparten el editor y el renderizador; no
// se persiste.
type FieldDef struct {
	Key           FieldKey
	Kind          FieldKind
	DefaultX      float64
	DefaultY      float64
	DefaultWidth  float64
	DefaultHeight float64
	DefaultStyle  FieldStyle
}

// FieldSchema es el vocabulario cerrado de campos del certificado.
// El orden de declaración de los campos de texto define el orden de
// apilado en el render.
var FieldSchema = []FieldDef{
	{
		Key: FieldInstituteName, Kind: FieldKindText,
		DefaultX: 148.5, DefaultY: 30,
		DefaultStyle: FieldStyle{FontSize: 16, Color: "#1F3A5F", FontFamily: "Times", FontWeight: "bold", FontStyle: "normal"},
	},
	{
		Key: FieldTitle, Kind: FieldKindText,
		DefaultX: 148.5, DefaultY: 55,
		DefaultStyle: FieldStyle{FontSize: 34, Color: "#1F3A5F", FontFamily: "Times", FontWeight: "bold", FontStyle: "normal"},
	},
	{
		Key: FieldSalutation, Kind: FieldKindText,
		DefaultX: 148.5, DefaultY: 75,
		DefaultStyle: FieldStyle{FontSize: 12, Color: "#333333", FontFamily: "Arial", FontWeight: "normal", FontStyle: "normal"},
	},
	{
		Key: FieldRecipientName, Kind: FieldKindText,
		DefaultX: 148.5, DefaultY: 90,
		DefaultStyle: FieldStyle{FontSize: 26, Color: "#000000", FontFamily: "Times", FontWeight: "bold", FontStyle: "italic"},
	},
	{
		Key: FieldDescription, Kind: FieldKindText,
		DefaultX: 58.5, DefaultY: 105, DefaultWidth: 180,
		DefaultStyle: FieldStyle{FontSize: 12, Color: "#333333", FontFamily: "Arial", FontWeight: "normal", FontStyle: "normal"},
	},
	{
		Key: FieldRole, Kind: FieldKindText,
		DefaultX: 148.5, DefaultY: 125,
		DefaultStyle: FieldStyle{FontSize: 13, Color: "#333333", FontFamily: "Arial", FontWeight: "bold", FontStyle: "normal"},
	},
	{
		Key: FieldEventDetail, Kind: FieldKindText,
		DefaultX: 148.5, DefaultY: 135,
		DefaultStyle: FieldStyle{FontSize: 14, Color: "#1F3A5F", FontWeight: "bold", FontFamily: "Arial", FontStyle: "normal"},
	},
	{
		Key: FieldPeriod, Kind: FieldKindText,
		DefaultX: 148.5, DefaultY: 147,
		DefaultStyle: FieldStyle{FontSize: 11, Color: "#333333", FontFamily: "Arial", FontWeight: "normal", FontStyle: "normal"},
	},
	{
		Key: FieldIssueDate, Kind: FieldKindText,
		DefaultX: 148.5, DefaultY: 158,
		DefaultStyle: FieldStyle{FontSize: 11, Color: "#333333", FontFamily: "Arial", FontWeight: "normal", FontStyle: "italic"},
	},
	{
		Key: FieldVerificationCode, Kind: FieldKindText,
		DefaultX: 40, DefaultY: 196,
		DefaultStyle: FieldStyle{FontSize: 9, Color: "#666666", FontFamily: "Courier", FontWeight: "normal", FontStyle: "normal"},
	},
	{
		Key: FieldSignatureLeft, Kind: FieldKindImageSlot,
		DefaultX: 55, DefaultY: 165, DefaultWidth: 60, DefaultHeight: 18,
	},
	{
		Key: FieldSignatureRight, Kind: FieldKindImageSlot,
		DefaultX: 182, DefaultY: 165, DefaultWidth: 60, DefaultHeight: 18,
	},
	{
		Key: FieldQRMarker, Kind: FieldKindMarker,
		DefaultX: 260, DefaultY: 170, DefaultWidth: 25, DefaultHeight: 25,
	},
}

// FieldDefFor busca la definición de un campo por su clave
func FieldDefFor(key FieldKey) (FieldDef, bool) {
	for _, def := range FieldSchema {
		if def.Key == key {
			return def, true
		}
	}
	return FieldDef{}, false
}

// IsValidFieldKey verifica si la clave pertenece al esquema
func IsValidFieldKey(key FieldKey) bool {
	_, ok := FieldDefFor(key)
	return ok
}

// TextFieldKeys retorna las claves de campos de texto en orden de apilado
func TextFieldKeys() []FieldKey {
	var keys []FieldKey
	for _, def := range FieldSchema {
		if def.Kind == FieldKindText {
			keys = append(keys, def.Key)
		}
	}
	return keys
}
