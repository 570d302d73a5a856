// Package docstore is the MongoDB backend, storing the same records as the
// Postgres backend in three collections.
package docstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/model"
)

const (
	collSubscriptions = "channel_subscriptions"
	collTemplates     = "notification_templates"
	collNotifications = "notifications"
)

type Config struct {
	URI      string
	Database string
}

// Store is a MongoDB-backed store.
type Store struct {
	client        *mongo.Client
	subscriptions *mongo.Collection
	templates     *mongo.Collection
	notifications *mongo.Collection
	logger        *zap.Logger
}

// New connects, pings and makes sure the indexes exist.
func New(ctx context.Context, cfg Config, logger *zap.Logger) (*Store, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("connect mongo: %w", err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo: %w", err)
	}

	db := client.Database(cfg.Database)
	s := &Store{
		client:        client,
		subscriptions: db.Collection(collSubscriptions),
		templates:     db.Collection(collTemplates),
		notifications: db.Collection(collNotifications),
		logger:        logger,
	}
	if err := s.ensureIndexes(ctx); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, err
	}

	logger.Info("mongo connection established", zap.String("database", cfg.Database))
	return s, nil
}

func (s *Store) ensureIndexes(ctx context.Context) error {
	indexes := []struct {
		coll  *mongo.Collection
		model mongo.IndexModel
	}{
		{s.subscriptions, mongo.IndexModel{
			Keys:    bson.D{{Key: "subscriberId", Value: 1}, {Key: "subscriberType", Value: 1}, {Key: "channel", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.templates, mongo.IndexModel{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		}},
		{s.notifications, mongo.IndexModel{
			Keys: bson.D{{Key: "notificationChannel", Value: 1}, {Key: "userId", Value: 1}, {Key: "createdAt", Value: -1}},
		}},
	}
	for _, idx := range indexes {
		if _, err := idx.coll.Indexes().CreateOne(ctx, idx.model); err != nil {
			return fmt.Errorf("create index on %s: %w", idx.coll.Name(), err)
		}
	}
	return nil
}

// Health pings the primary.
func (s *Store) Health(ctx context.Context) error {
	return s.client.Ping(ctx, readpref.Primary())
}

// Close disconnects the client.
func (s *Store) Close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	s.logger.Info("closing mongo connection")
	if err := s.client.Disconnect(ctx); err != nil {
		s.logger.Warn("mongo disconnect failed", zap.Error(err))
	}
}

func (s *Store) FindBySubscriber(ctx context.Context, subscriberID string, subscriberType model.SubscriberType) ([]*model.ChannelSubscription, error) {
	filter := bson.M{"subscriberId": subscriberID, "subscriberType": string(subscriberType)}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})

	cur, err := s.subscriptions.Find(ctx, filter, opts)
	if err != nil {
		return nil, fmt.Errorf("find subscriptions: %w", err)
	}
	var docs []subscriptionDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode subscriptions: %w", err)
	}

	out := make([]*model.ChannelSubscription, 0, len(docs))
	for _, d := range docs {
		sub, err := d.toModel()
		if err != nil {
			return nil, fmt.Errorf("subscription %s: %w", d.ID, err)
		}
		out = append(out, sub)
	}
	return out, nil
}

func (s *Store) SaveSubscription(ctx context.Context, sub *model.ChannelSubscription) error {
	doc := subscriptionToDoc(sub)
	filter := bson.M{
		"subscriberId":   doc.SubscriberID,
		"subscriberType": doc.SubscriberType,
		"channel":        doc.Channel,
	}
	update := bson.M{
		"$set": bson.M{"isActive": doc.IsActive, "updatedAt": doc.UpdatedAt},
		"$setOnInsert": bson.M{
			"_id":            doc.ID,
			"subscriberId":   doc.SubscriberID,
			"subscriberType": doc.SubscriberType,
			"channel":        doc.Channel,
			"createdAt":      doc.CreatedAt,
		},
	}
	if _, err := s.subscriptions.UpdateOne(ctx, filter, update, options.Update().SetUpsert(true)); err != nil {
		return fmt.Errorf("upsert subscription: %w", err)
	}
	return nil
}

func (s *Store) DeleteSubscriptions(ctx context.Context) (int64, error) {
	res, err := s.subscriptions.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete subscriptions: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) FindTemplateByName(ctx context.Context, name string) (*model.NotificationTemplate, error) {
	var doc templateDoc
	err := s.templates.FindOne(ctx, bson.M{"name": name}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, fmt.Errorf("template %q: %w", name, model.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("find template: %w", err)
	}
	return doc.toModel()
}

func (s *Store) SaveTemplate(ctx context.Context, tmpl *model.NotificationTemplate) error {
	doc := templateToDoc(tmpl)
	update := bson.M{
		"$set": bson.M{
			"description":    doc.Description,
			"channelDetails": doc.ChannelDetails,
			"isActive":       doc.IsActive,
			"updatedBy":      doc.UpdatedBy,
			"updatedAt":      doc.UpdatedAt,
		},
		"$setOnInsert": bson.M{
			"_id":       doc.ID,
			"createdBy": doc.CreatedBy,
			"createdAt": doc.CreatedAt,
		},
	}
	_, err := s.templates.UpdateOne(ctx, bson.M{"name": doc.Name}, update, options.Update().SetUpsert(true))
	if err != nil {
		return fmt.Errorf("upsert template %q: %w", doc.Name, err)
	}
	s.logger.Info("template saved", zap.String("name", doc.Name))
	return nil
}

func (s *Store) DeleteTemplates(ctx context.Context) (int64, error) {
	res, err := s.templates.DeleteMany(ctx, bson.M{})
	if err != nil {
		return 0, fmt.Errorf("delete templates: %w", err)
	}
	return res.DeletedCount, nil
}

func (s *Store) CreateNotificationLog(ctx context.Context, log *model.NotificationLog) error {
	if _, err := s.notifications.InsertOne(ctx, notificationToDoc(log)); err != nil {
		return fmt.Errorf("insert notification log: %w", err)
	}
	return nil
}

func logFilter(channel model.Channel, userID string) bson.M {
	return bson.M{"notificationChannel": string(channel), "userId": userID}
}

func (s *Store) CountNotifications(ctx context.Context, channel model.Channel, userID string) (int64, error) {
	n, err := s.notifications.CountDocuments(ctx, logFilter(channel, userID))
	if err != nil {
		return 0, fmt.Errorf("count notifications: %w", err)
	}
	return n, nil
}

func (s *Store) FindNotifications(ctx context.Context, channel model.Channel, userID string, offset, limit int) ([]*model.NotificationLog, error) {
	opts := options.Find().
		SetSort(bson.D{{Key: "createdAt", Value: -1}}).
		SetSkip(int64(offset)).
		SetLimit(int64(limit))

	cur, err := s.notifications.Find(ctx, logFilter(channel, userID), opts)
	if err != nil {
		return nil, fmt.Errorf("find notifications: %w", err)
	}
	var docs []notificationDoc
	if err := cur.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("decode notifications: %w", err)
	}

	out := make([]*model.NotificationLog, 0, len(docs))
	for _, d := range docs {
		out = append(out, d.toModel())
	}
	return out, nil
}
