package db

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/model"
)

// CreateNotificationLog inserts a delivered-notification record.
func (db *DB) CreateNotificationLog(ctx context.Context, log *model.NotificationLog) error {
	query := `
		INSERT INTO notifications (
			id, notification_name, subject, content, user_id, channel, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := db.pool.Exec(ctx, query,
		log.ID,
		log.NotificationName,
		log.Subject,
		log.Content,
		log.UserID,
		string(log.Channel),
		log.CreatedAt,
		log.UpdatedAt,
	)
	if err != nil {
		db.logger.Error("failed to create notification log",
			zap.Error(err),
			zap.String("id", log.ID.String()),
		)
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

// CountNotifications counts logs for a user on a channel.
func (db *DB) CountNotifications(ctx context.Context, channel model.Channel, userID string) (int64, error) {
	var n int64
	err := db.pool.QueryRow(ctx,
		`SELECT COUNT(*) FROM notifications WHERE channel = $1 AND user_id = $2`,
		string(channel), userID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

// FindNotifications returns one page of logs, newest first.
func (db *DB) FindNotifications(ctx context.Context, channel model.Channel, userID string, offset, limit int) ([]*model.NotificationLog, error) {
	query := `
		SELECT id, notification_name, subject, content, user_id, channel, created_at, updated_at
		FROM notifications
		WHERE channel = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`

	rows, err := db.pool.Query(ctx, query, string(channel), userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("query notifications: %w", err)
	}

	logs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*model.NotificationLog, error) {
		var (
			l  model.NotificationLog
			ch string
		)
		err := row.Scan(&l.ID, &l.NotificationName, &l.Subject, &l.Content, &l.UserID, &ch, &l.CreatedAt, &l.UpdatedAt)
		l.Channel = model.Channel(ch)
		return &l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan notifications: %w", err)
	}
	return logs, nil
}
