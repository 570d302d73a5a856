// Package store defines the persistence contract shared by the Postgres
// and MongoDB backends.
package store

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/lalithlochan/courier/internal/model"
)

// Subscriptions reads and writes channel subscriptions. Save upserts on
// (subscriber id, subscriber type, channel).
type Subscriptions interface {
	FindBySubscriber(ctx context.Context, subscriberID string, subscriberType model.SubscriberType) ([]*model.ChannelSubscription, error)
	SaveSubscription(ctx context.Context, sub *model.ChannelSubscription) error
	DeleteSubscriptions(ctx context.Context) (int64, error)
}

// Templates reads and writes templates. FindTemplateByName returns an error
// wrapping model.ErrNotFound when no template has that name. Save upserts on
// name.
type Templates interface {
	FindTemplateByName(ctx context.Context, name string) (*model.NotificationTemplate, error)
	SaveTemplate(ctx context.Context, tmpl *model.NotificationTemplate) error
	DeleteTemplates(ctx context.Context) (int64, error)
}

// LogReader is the query side of the notification log.
type LogReader interface {
	CountNotifications(ctx context.Context, channel model.Channel, userID string) (int64, error)
	// FindNotifications returns logs newest first.
	FindNotifications(ctx context.Context, channel model.Channel, userID string, offset, limit int) ([]*model.NotificationLog, error)
}

// Logs is the notification log.
type Logs interface {
	LogReader
	CreateNotificationLog(ctx context.Context, log *model.NotificationLog) error
}

// Store is a complete backend.
type Store interface {
	Subscriptions
	Templates
	Logs
	Health(ctx context.Context) error
	Close()
}

// ListNotifications validates the page arguments and loads one page of
// logs for a user on a channel. Count and page are read concurrently.
func ListNotifications(ctx context.Context, r LogReader, channel model.Channel, userID string, page, limit int) (*model.Page, error) {
	if err := model.ValidatePage(userID, page, limit); err != nil {
		return nil, err
	}
	if !channel.Valid() {
		return nil, model.Invalid("Invalid channel type: %s", channel)
	}

	var (
		total int64
		items []*model.NotificationLog
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := r.CountNotifications(gctx, channel, userID)
		if err != nil {
			return fmt.Errorf("count notifications: %w", err)
		}
		total = n
		return nil
	})
	g.Go(func() error {
		logs, err := r.FindNotifications(gctx, channel, userID, (page-1)*limit, limit)
		if err != nil {
			return fmt.Errorf("find notifications: %w", err)
		}
		items = logs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if items == nil {
		items = []*model.NotificationLog{}
	}
	return &model.Page{
		Items:      items,
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: model.TotalPages(total, limit),
	}, nil
}
