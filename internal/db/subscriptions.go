package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/model"
)

// FindBySubscriber returns every subscription of one subscriber in creation
// order.
func (db *DB) FindBySubscriber(ctx context.Context, subscriberID string, subscriberType model.SubscriberType) ([]*model.ChannelSubscription, error) {
	query := `
		SELECT id, subscriber_id, subscriber_type, channel, is_active, created_at, updated_at
		FROM channel_subscriptions
		WHERE subscriber_id = $1 AND subscriber_type = $2
		ORDER BY created_at, id
	`

	rows, err := db.pool.Query(ctx, query, subscriberID, string(subscriberType))
	if err != nil {
		return nil, fmt.Errorf("query subscriptions: %w", err)
	}

	subs, err := pgx.CollectRows(rows, scanSubscription)
	if err != nil {
		return nil, fmt.Errorf("scan subscriptions: %w", err)
	}
	return subs, nil
}

func scanSubscription(row pgx.CollectableRow) (*model.ChannelSubscription, error) {
	var (
		id, subscriberID, subscriberType, channel string
		active                                    bool
		created, updated                          time.Time
	)
	if err := row.Scan(&id, &subscriberID, &subscriberType, &channel, &active, &created, &updated); err != nil {
		return nil, err
	}
	return model.NewChannelSubscription(model.SubscriptionParams{
		ID:             id,
		SubscriberID:   subscriberID,
		SubscriberType: model.SubscriberType(subscriberType),
		Channel:        model.Channel(channel),
		IsActive:       model.Bool(active),
		CreatedAt:      created,
		UpdatedAt:      updated,
	})
}

// SaveSubscription inserts sub, or updates the active flag of the existing
// row for the same subscriber and channel.
func (db *DB) SaveSubscription(ctx context.Context, sub *model.ChannelSubscription) error {
	query := `
		INSERT INTO channel_subscriptions (
			id, subscriber_id, subscriber_type, channel, is_active, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (subscriber_id, subscriber_type, channel)
		DO UPDATE SET is_active = EXCLUDED.is_active, updated_at = EXCLUDED.updated_at
	`

	_, err := db.pool.Exec(ctx, query,
		sub.ID(),
		sub.SubscriberID(),
		string(sub.SubscriberType()),
		string(sub.Channel()),
		sub.IsActive(),
		sub.CreatedAt(),
		sub.UpdatedAt(),
	)
	if err != nil {
		db.logger.Error("failed to save subscription",
			zap.Error(err),
			zap.String("subscriber_id", sub.SubscriberID()),
			zap.String("channel", sub.Channel().String()),
		)
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

// DeleteSubscriptions removes all subscriptions.
func (db *DB) DeleteSubscriptions(ctx context.Context) (int64, error) {
	tag, err := db.pool.Exec(ctx, `DELETE FROM channel_subscriptions`)
	if err != nil {
		return 0, fmt.Errorf("delete subscriptions: %w", err)
	}
	return tag.RowsAffected(), nil
}
