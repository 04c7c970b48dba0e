package services

import (
	"context"
	"testing"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createRequest(name string) *models.CreateTemplateRequest {
	return &models.CreateTemplateRequest{
		Name: name,
		FieldConfig: models.FieldConfigMap{
			models.FieldRecipientName: {X: 148.5, Y: 90, Visible: true},
			models.FieldQRMarker:      {X: 260, Y: 170, Width: 25, Height: 25, Visible: true},
		},
	}
}

func TestTemplateCreate(t *testing.T) {
	store := newMemTemplateStore()
	service := NewTemplateService(store, nil, testLogger())

	template, err := service.Create(createRequest("Plantilla 2025"))
	require.NoError(t, err)

	assert.Equal(t, "Plantilla 2025", template.Name)
	assert.False(t, template.IsActive, "new templates must start inactive")

	fetched, err := service.GetByID(template.ID)
	require.NoError(t, err)
	assert.Equal(t, template.ID, fetched.ID)
}

func TestTemplateCreateRejectsUnknownKeys(t *testing.T) {
	service := NewTemplateService(newMemTemplateStore(), nil, testLogger())

	req := createRequest("Plantilla rota")
	req.FieldConfig[models.FieldKey("logo")] = models.FieldConfig{Visible: true}

	_, err := service.Create(req)
	require.Error(t, err)

	var vErr *models.ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Contains(t, vErr.Fields, "logo")
}

func TestTemplateActivateIsExclusive(t *testing.T) {
	store := newMemTemplateStore()
	service := NewTemplateService(store, nil, testLogger())

	first, err := service.Create(createRequest("Primera"))
	require.NoError(t, err)
	second, err := service.Create(createRequest("Segunda"))
	require.NoError(t, err)

	_, err = service.Activate(first.ID)
	require.NoError(t, err)

	active, err := service.GetActive()
	require.NoError(t, err)
	assert.Equal(t, first.ID, active.ID)

	// Activar otra desactiva la anterior
	_, err = service.Activate(second.ID)
	require.NoError(t, err)

	active, err = service.GetActive()
	require.NoError(t, err)
	assert.Equal(t, second.ID, active.ID)

	previous, err := service.GetByID(first.ID)
	require.NoError(t, err)
	assert.False(t, previous.IsActive)
}

func TestTemplateGetActiveWithoutAny(t *testing.T) {
	service := NewTemplateService(newMemTemplateStore(), nil, testLogger())

	_, err := service.GetActive()
	require.ErrorIs(t, err, models.ErrNoActiveTemplate)
}

func TestTemplateDeleteActiveIsRejected(t *testing.T) {
	store := newMemTemplateStore()
	service := NewTemplateService(store, nil, testLogger())

	template, err := service.Create(createRequest("Única"))
	require.NoError(t, err)
	_, err = service.Activate(template.ID)
	require.NoError(t, err)

	require.ErrorIs(t, service.Delete(template.ID), models.ErrActiveTemplateDelete)

	// Inactiva sí se puede borrar
	other, err := service.Create(createRequest("Descartable"))
	require.NoError(t, err)
	require.NoError(t, service.Delete(other.ID))

	_, err = service.GetByID(other.ID)
	require.ErrorIs(t, err, models.ErrTemplateNotFound)
}

func TestTemplateUpdate(t *testing.T) {
	store := newMemTemplateStore()
	service := NewTemplateService(store, nil, testLogger())

	template, err := service.Create(createRequest("Original"))
	require.NoError(t, err)

	newName := "Renombrada"
	updated, err := service.Update(template.ID, &models.UpdateTemplateRequest{Name: &newName})
	require.NoError(t, err)
	assert.Equal(t, "Renombrada", updated.Name)
	assert.Equal(t, template.FieldConfig, updated.FieldConfig)

	badCfg := models.FieldConfigMap{models.FieldKey("banner"): {Visible: true}}
	_, err = service.Update(template.ID, &models.UpdateTemplateRequest{FieldConfig: badCfg})
	require.Error(t, err)

	_, err = service.Update(uuid.New(), &models.UpdateTemplateRequest{Name: &newName})
	require.ErrorIs(t, err, models.ErrTemplateNotFound)
}

func TestTemplateUploadBackground(t *testing.T) {
	store := newMemTemplateStore()
	storage := newMemStorage()
	service := NewTemplateService(store, storage, testLogger())

	template, err := service.Create(createRequest("Con fondo"))
	require.NoError(t, err)

	updated, err := service.UploadBackground(context.Background(), template.ID, []byte("fake-png-bytes"), "fondo.png")
	require.NoError(t, err)
	require.NotNil(t, updated.BackgroundAssetRef)

	stored, err := storage.DownloadFile(context.Background(), *updated.BackgroundAssetRef)
	require.NoError(t, err)
	assert.Equal(t, []byte("fake-png-bytes"), stored)
}

func TestTemplateUploadBackgroundWithoutStorage(t *testing.T) {
	store := newMemTemplateStore()
	service := NewTemplateService(store, nil, testLogger())

	template, err := service.Create(createRequest("Sin storage"))
	require.NoError(t, err)

	_, err = service.UploadBackground(context.Background(), template.ID, []byte("data"), "fondo.png")
	require.Error(t, err)
}
