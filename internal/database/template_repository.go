package database

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/edutec-labs/certgen-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// TemplateRepository maneja las operaciones de base de datos para Template
type TemplateRepository struct {
	db     *DB
	logger *logrus.Logger
}

// NewTemplateRepository crea una nueva instancia del repositorio
func NewTemplateRepository(db *DB, logger *logrus.Logger) *TemplateRepository {
	return &TemplateRepository{
		db:     db,
		logger: logger,
	}
}

// Create crea una nueva plantilla
func (r *TemplateRepository) Create(template *models.Template) error {
	query := `
		INSERT INTO templates (
			id, name, background_asset_ref, field_config, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7
		)
	`

	_, err := r.db.ExecWithTimeout(query,
		template.ID, template.Name, template.BackgroundAssetRef,
		template.FieldConfig, template.IsActive,
		template.CreatedAt, template.UpdatedAt,
	)

	if err != nil {
		return fmt.Errorf("error inserting template: %w", err)
	}

	return nil
}

// GetByID obtiene una plantilla por ID
func (r *TemplateRepository) GetByID(id uuid.UUID) (*models.Template, error) {
	query := `
		SELECT id, name, background_asset_ref, field_config, is_active, created_at, updated_at
		FROM templates
		WHERE id = $1
	`

	var template models.Template
	err := r.db.QueryRowWithTimeout(query, id).Scan(
		&template.ID, &template.Name, &template.BackgroundAssetRef,
		&template.FieldConfig, &template.IsActive,
		&template.CreatedAt, &template.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrTemplateNotFound
		}
		return nil, fmt.Errorf("error querying template: %w", err)
	}

	return &template, nil
}

// GetActive obtiene la plantilla activa. Existe a lo sumo una.
func (r *TemplateRepository) GetActive() (*models.Template, error) {
	query := `
		SELECT id, name, background_asset_ref, field_config, is_active, created_at, updated_at
		FROM templates
		WHERE is_active = true
	`

	var template models.Template
	err := r.db.QueryRowWithTimeout(query).Scan(
		&template.ID, &template.Name, &template.BackgroundAssetRef,
		&template.FieldConfig, &template.IsActive,
		&template.CreatedAt, &template.UpdatedAt,
	)

	if err != nil {
		if err == sql.ErrNoRows {
			return nil, models.ErrNoActiveTemplate
		}
		return nil, fmt.Errorf("error querying active template: %w", err)
	}

	return &template, nil
}

// List obtiene todas las plantillas
func (r *TemplateRepository) List() ([]models.Template, error) {
	query := `
		SELECT id, name, background_asset_ref, field_config, is_active, created_at, updated_at
		FROM templates
		ORDER BY created_at DESC
	`

	rows, err := r.db.QueryWithTimeout(query)
	if err != nil {
		return nil, fmt.Errorf("error querying templates: %w", err)
	}
	defer rows.Close()

	var templates []models.Template
	for rows.Next() {
		var template models.Template
		err := rows.Scan(
			&template.ID, &template.Name, &template.BackgroundAssetRef,
			&template.FieldConfig, &template.IsActive,
			&template.CreatedAt, &template.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("error scanning template: %w", err)
		}
		templates = append(templates, template)
	}

	return templates, nil
}

// Update actualiza una plantilla existente
func (r *TemplateRepository) Update(template *models.Template) error {
	query := `
		UPDATE templates
		SET name = $1, background_asset_ref = $2, field_config = $3, updated_at = $4
		WHERE id = $5
	`

	result, err := r.db.ExecWithTimeout(query,
		template.Name, template.BackgroundAssetRef, template.FieldConfig,
		time.Now(), template.ID,
	)
	if err != nil {
		return fmt.Errorf("error updating template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return models.ErrTemplateNotFound
	}

	return nil
}

// Activate marca una plantilla como activa desactivando las demás.
// Ambas actualizaciones corren en una sola transacción para que
// exactamente una plantilla termine activa bajo activaciones
// concurrentes.
func (r *TemplateRepository) Activate(id uuid.UUID) error {
	return r.db.WithTransaction(func(tx *sql.Tx) error {
		now := time.Now()

		if _, err := tx.Exec(`UPDATE templates SET is_active = false, updated_at = $1 WHERE is_active = true`, now); err != nil {
			return fmt.Errorf("error deactivating templates: %w", err)
		}

		result, err := tx.Exec(`UPDATE templates SET is_active = true, updated_at = $1 WHERE id = $2`, now, id)
		if err != nil {
			return fmt.Errorf("error activating template: %w", err)
		}

		rowsAffected, err := result.RowsAffected()
		if err != nil {
			return fmt.Errorf("error getting rows affected: %w", err)
		}

		if rowsAffected == 0 {
			return models.ErrTemplateNotFound
		}

		return nil
	})
}

// Delete elimina una plantilla. La plantilla activa no puede eliminarse.
func (r *TemplateRepository) Delete(id uuid.UUID) error {
	result, err := r.db.ExecWithTimeout(`DELETE FROM templates WHERE id = $1 AND is_active = false`, id)
	if err != nil {
		return fmt.Errorf("error deleting template: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("error getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		// Distinguir inexistente de activa
		if _, err := r.GetByID(id); err == nil {
			return models.ErrActiveTemplateDelete
		}
		return models.ErrTemplateNotFound
	}

	return nil
}
