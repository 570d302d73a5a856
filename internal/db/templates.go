package db

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/model"
)

// FindTemplateByName loads a template. Missing names yield model.ErrNotFound.
func (db *DB) FindTemplateByName(ctx context.Context, name string) (*model.NotificationTemplate, error) {
	query := `
		SELECT id, name, description, channel_details, is_active,
			created_by, updated_by, created_at, updated_at
		FROM notification_templates
		WHERE name = $1
	`

	var (
		p         model.TemplateParams
		details   []byte
		updatedBy *string
		created   time.Time
		updated   time.Time
	)
	err := db.pool.QueryRow(ctx, query, name).Scan(
		&p.ID,
		&p.Name,
		&p.Description,
		&details,
		&p.IsActive,
		&p.CreatedBy,
		&updatedBy,
		&created,
		&updated,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, fmt.Errorf("template %q: %w", name, model.ErrNotFound)
	}
	if err != nil {
		db.logger.Error("failed to get template",
			zap.Error(err),
			zap.String("name", name),
		)
		return nil, fmt.Errorf("query template: %w", err)
	}

	if err := json.Unmarshal(details, &p.ChannelDetails); err != nil {
		return nil, fmt.Errorf("decode channel details of %q: %w", name, err)
	}
	if updatedBy != nil {
		p.UpdatedBy = *updatedBy
	}
	p.CreatedAt, p.UpdatedAt = created, updated

	return model.NewNotificationTemplate(p)
}

// SaveTemplate inserts tmpl or replaces the template with the same name.
func (db *DB) SaveTemplate(ctx context.Context, tmpl *model.NotificationTemplate) error {
	details, err := json.Marshal(tmpl.ChannelDetails())
	if err != nil {
		return fmt.Errorf("encode channel details: %w", err)
	}

	var updatedBy *string
	if tmpl.UpdatedBy() != "" {
		v := tmpl.UpdatedBy()
		updatedBy = &v
	}

	query := `
		INSERT INTO notification_templates (
			id, name, description, channel_details, is_active,
			created_by, updated_by, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (name) DO UPDATE SET
			description = EXCLUDED.description,
			channel_details = EXCLUDED.channel_details,
			is_active = EXCLUDED.is_active,
			updated_by = EXCLUDED.updated_by,
			updated_at = EXCLUDED.updated_at
	`

	_, err = db.pool.Exec(ctx, query,
		tmpl.ID(),
		tmpl.Name(),
		tmpl.Description(),
		details,
		tmpl.IsActive(),
		tmpl.CreatedBy(),
		updatedBy,
		tmpl.CreatedAt(),
		tmpl.UpdatedAt(),
	)
	if err != nil {
		return fmt.Errorf("upsert template %q: %w", tmpl.Name(), err)
	}

	db.logger.Info("template saved", zap.String("name", tmpl.Name()))
	return nil
}

// DeleteTemplates removes all templates.
func (db *DB) DeleteTemplates(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM notification_templates`)
	if err != nil {
		return 0, fmt.Errorf("delete templates: %w", err)
	}
	return tag.RowsAffected(), nil
}
