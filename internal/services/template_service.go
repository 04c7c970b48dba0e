package services

import (
	"context"
	"fmt"
	"time"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TemplateService maneja la lógica de negocio de las plantillas de
// certificado
type TemplateService struct {
	templateRepo TemplateStore
	storage      AssetStorage // opcional
	logger       *logrus.Logger
}

// NewTemplateService crea una nueva instancia del servicio
func NewTemplateService(templateRepo TemplateStore, storage AssetStorage, logger *logrus.Logger) *TemplateService {
	return &TemplateService{
		templateRepo: templateRepo,
		storage:      storage,
		logger:       logger,
	}
}

// Create crea una nueva plantilla. La configuración de campos se valida
// contra el esquema; la plantilla nace inactiva.
func (s *TemplateService) Create(req *models.CreateTemplateRequest) (*models.Template, error) {
	if err := models.ValidateFieldConfig(req.FieldConfig); err != nil {
		return nil, err
	}

	now := time.Now()
	template := &models.Template{
		ID:                 uuid.New(),
		Name:               req.Name,
		BackgroundAssetRef: req.BackgroundAssetRef,
		FieldConfig:        req.FieldConfig,
		IsActive:           false,
		CreatedAt:          now,
		UpdatedAt:          now,
	}

	if err := s.templateRepo.Create(template); err != nil {
		return nil, fmt.Errorf("error creating template: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"template_id": template.ID,
		"name":        template.Name,
	}).Info("Template created successfully")

	return template, nil
}

// GetByID obtiene una plantilla por ID
func (s *TemplateService) GetByID(id uuid.UUID) (*models.Template, error) {
	return s.templateRepo.GetByID(id)
}

// GetActive obtiene la plantilla activa
func (s *TemplateService) GetActive() (*models.Template, error) {
	return s.templateRepo.GetActive()
}

// List lista todas las plantillas
func (s *TemplateService) List() (*models.TemplateListResponse, error) {
	templates, err := s.templateRepo.List()
	if err != nil {
		return nil, err
	}
	return &models.TemplateListResponse{
		Items: templates,
		Total: len(templates),
	}, nil
}

// Update actualiza una plantilla. Los campos omitidos del request
// conservan su valor actual.
func (s *TemplateService) Update(id uuid.UUID, req *models.UpdateTemplateRequest) (*models.Template, error) {
	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil {
		template.Name = *req.Name
	}
	if req.BackgroundAssetRef != nil {
		template.BackgroundAssetRef = req.BackgroundAssetRef
	}
	if req.FieldConfig != nil {
		if err := models.ValidateFieldConfig(req.FieldConfig); err != nil {
			return nil, err
		}
		template.FieldConfig = req.FieldConfig
	}
	template.UpdatedAt = time.Now()

	if err := s.templateRepo.Update(template); err != nil {
		return nil, fmt.Errorf("error updating template: %w", err)
	}

	return template, nil
}

// Activate marca una plantilla como activa desactivando cualquier otra.
// A lo sumo una plantilla está activa en todo momento.
func (s *TemplateService) Activate(id uuid.UUID) (*models.Template, error) {
	if err := s.templateRepo.Activate(id); err != nil {
		return nil, err
	}

	s.logger.WithField("template_id", id).Info("Template activated")

	return s.templateRepo.GetByID(id)
}

// Delete elimina una plantilla. La plantilla activa no puede borrarse;
// debe activarse otra primero.
func (s *TemplateService) Delete(id uuid.UUID) error {
	if err := s.templateRepo.Delete(id); err != nil {
		return err
	}

	s.logger.WithField("template_id", id).Info("Template deleted")

	return nil
}

// UploadBackground sube la imagen de fondo de una plantilla al
// almacenamiento de objetos y asocia su clave
func (s *TemplateService) UploadBackground(ctx context.Context, id uuid.UUID, data []byte, filename string) (*models.Template, error) {
	if s.storage == nil {
		return nil, fmt.Errorf("object storage is not configured")
	}

	template, err := s.templateRepo.GetByID(id)
	if err != nil {
		return nil, err
	}

	key := fmt.Sprintf("backgrounds/%s/%s", id, filename)
	ref, err := s.storage.UploadFile(ctx, key, data)
	if err != nil {
		return nil, fmt.Errorf("error uploading background asset: %w", err)
	}

	template.BackgroundAssetRef = &ref
	template.UpdatedAt = time.Now()
	if err := s.templateRepo.Update(template); err != nil {
		return nil, fmt.Errorf("error updating template background: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"template_id": id,
		"asset_ref":   ref,
	}).Info("Template background uploaded")

	return template, nil
}
