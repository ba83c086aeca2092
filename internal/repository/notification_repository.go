package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/campushq/campus-admin-api/internal/models"
)

// NotificationRepository persists notification templates.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

const templateColumns = `id, institution_id, key, subject, body, active, created_at, updated_at`

// FindByKey returns an institution's template by key.
func (r *NotificationRepository) FindByKey(ctx context.Context, institutionID, key string) (*models.NotificationTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification_templates WHERE institution_id = $1 AND key = $2 LIMIT 1`, templateColumns)
	var tpl models.NotificationTemplate
	if err := r.db.GetContext(ctx, &tpl, query, institutionID, key); err != nil {
		return nil, err
	}
	return &tpl, nil
}

// List returns all templates for an institution ordered by key.
func (r *NotificationRepository) List(ctx context.Context, institutionID string) ([]models.NotificationTemplate, error) {
	query := fmt.Sprintf(`SELECT %s FROM notification_templates WHERE institution_id = $1 ORDER BY key ASC`, templateColumns)
	var templates []models.NotificationTemplate
	if err := r.db.SelectContext(ctx, &templates, query, institutionID); err != nil {
		return nil, fmt.Errorf("list notification templates: %w", err)
	}
	return templates, nil
}

// Upsert inserts or replaces a template keyed by institution and key.
func (r *NotificationRepository) Upsert(ctx context.Context, tpl *models.NotificationTemplate) error {
	if tpl.ID == "" {
		tpl.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if tpl.CreatedAt.IsZero() {
		tpl.CreatedAt = now
	}
	tpl.UpdatedAt = now
	const query = `INSERT INTO notification_templates (id, institution_id, key, subject, body, active, created_at, updated_at)
VALUES (:id, :institution_id, :key, :subject, :body, :active, :created_at, :updated_at)
ON CONFLICT (institution_id, key)
DO UPDATE SET subject = EXCLUDED.subject, body = EXCLUDED.body, active = EXCLUDED.active, updated_at = EXCLUDED.updated_at`
	if _, err := r.db.NamedExecContext(ctx, query, tpl); err != nil {
		return fmt.Errorf("upsert notification template: %w", err)
	}
	return nil
}

// Delete removes a template.
func (r *NotificationRepository) Delete(ctx context.Context, institutionID, key string) error {
	const query = `DELETE FROM notification_templates WHERE institution_id = $1 AND key = $2`
	if _, err := r.db.ExecContext(ctx, query, institutionID, key); err != nil {
		return fmt.Errorf("delete notification template: %w", err)
	}
	return nil
}
