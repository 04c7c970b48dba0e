package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateFieldConfig(t *testing.T) {
	t.Run("claves conocidas", func(t *testing.T) {
		cfg := FieldConfigMap{
			FieldRecipientName: {X: 148.5, Y: 90, Visible: true},
			FieldQRMarker:      {X: 260, Y: 170, Width: 25, Height: 25, Visible: true},
		}
		require.NoError(t, ValidateFieldConfig(cfg))
	})

	t.Run("clave desconocida", func(t *testing.T) {
		cfg := FieldConfigMap{
			FieldRecipientName:   {X: 148.5, Y: 90, Visible: true},
			FieldKey("watermark"): {X: 0, Y: 0, Visible: true},
		}

		err := ValidateFieldConfig(cfg)
		require.Error(t, err)

		var vErr *ValidationError
		require.ErrorAs(t, err, &vErr)
		assert.Contains(t, vErr.Fields, "watermark")
		assert.Equal(t, "unknown field keys", vErr.Reason)
	})

	t.Run("claves desconocidas en orden estable", func(t *testing.T) {
		cfg := FieldConfigMap{
			FieldKey("watermark"): {X: 0, Y: 0, Visible: true},
			FieldKey("border"):    {X: 0, Y: 0, Visible: true},
			FieldKey("footer"):    {X: 0, Y: 0, Visible: true},
		}

		// El orden de iteración del mapa no debe filtrarse al detalle
		// del error
		for i := 0; i < 10; i++ {
			err := ValidateFieldConfig(cfg)
			require.Error(t, err)

			var vErr *ValidationError
			require.ErrorAs(t, err, &vErr)
			assert.Equal(t, []string{"border", "footer", "watermark"}, vErr.Fields)
		}
	})

	t.Run("mapa vacio", func(t *testing.T) {
		require.NoError(t, ValidateFieldConfig(FieldConfigMap{}))
	})
}

func TestFieldConfigMapScanRoundTrip(t *testing.T) {
	original := FieldConfigMap{
		FieldTitle: {X: 148.5, Y: 55, FontSize: 34, Color: "#1F3A5F", Visible: true},
	}

	value, err := original.Value()
	require.NoError(t, err)

	var decoded FieldConfigMap
	require.NoError(t, decoded.Scan(value))
	assert.Equal(t, original, decoded)

	var empty FieldConfigMap
	require.NoError(t, empty.Scan(nil))
	assert.Empty(t, empty)
}

func TestFieldSchema(t *testing.T) {
	assert.Len(t, FieldSchema, 13)

	// Todos los campos de texto llevan estilo por defecto completo
	for _, def := range FieldSchema {
		if def.Kind != FieldKindText {
			continue
		}
		assert.Greater(t, def.DefaultStyle.FontSize, 0.0, string(def.Key))
		assert.NotEmpty(t, def.DefaultStyle.Color, string(def.Key))
	}

	// El orden de apilado de texto arranca con los encabezados
	keys := TextFieldKeys()
	require.GreaterOrEqual(t, len(keys), 3)
	assert.Equal(t, FieldInstituteName, keys[0])
	assert.Equal(t, FieldTitle, keys[1])

	assert.True(t, IsValidFieldKey(FieldVerificationCode))
	assert.False(t, IsValidFieldKey(FieldKey("logo")))

	def, ok := FieldDefFor(FieldQRMarker)
	require.True(t, ok)
	assert.Equal(t, FieldKindMarker, def.Kind)
}
