package docstore

import (
	"time"

	"github.com/google/uuid"

	"github.com/lalithlochan/courier/internal/model"
)

type subscriptionDoc struct {
	ID             string    `bson:"_id"`
	SubscriberID   string    `bson:"subscriberId"`
	SubscriberType string    `bson:"subscriberType"`
	Channel        string    `bson:"channel"`
	IsActive       bool      `bson:"isActive"`
	CreatedAt      time.Time `bson:"createdAt"`
	UpdatedAt      time.Time `bson:"updatedAt"`
}

func subscriptionToDoc(s *model.ChannelSubscription) subscriptionDoc {
	return subscriptionDoc{
		ID:             s.ID(),
		SubscriberID:   s.SubscriberID(),
		SubscriberType: string(s.SubscriberType()),
		Channel:        string(s.Channel()),
		IsActive:       s.IsActive(),
		CreatedAt:      s.CreatedAt(),
		UpdatedAt:      s.UpdatedAt(),
	}
}

func (d subscriptionDoc) toModel() (*model.ChannelSubscription, error) {
	return model.NewChannelSubscription(model.SubscriptionParams{
		ID:             d.ID,
		SubscriberID:   d.SubscriberID,
		SubscriberType: model.SubscriberType(d.SubscriberType),
		Channel:        model.Channel(d.Channel),
		IsActive:       model.Bool(d.IsActive),
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	})
}

type templateDoc struct {
	ID             string                         `bson:"_id"`
	Name           string                         `bson:"name"`
	Description    string                         `bson:"description"`
	ChannelDetails map[string]model.ChannelDetail `bson:"channelDetails"`
	IsActive       bool                           `bson:"isActive"`
	CreatedBy      string                         `bson:"createdBy"`
	UpdatedBy      string                         `bson:"updatedBy,omitempty"`
	CreatedAt      time.Time                      `bson:"createdAt"`
	UpdatedAt      time.Time                      `bson:"updatedAt"`
}

func templateToDoc(t *model.NotificationTemplate) templateDoc {
	details := make(map[string]model.ChannelDetail)
	for ch, d := range t.ChannelDetails() {
		details[string(ch)] = d
	}
	return templateDoc{
		ID:             t.ID(),
		Name:           t.Name(),
		Description:    t.Description(),
		ChannelDetails: details,
		IsActive:       t.IsActive(),
		CreatedBy:      t.CreatedBy(),
		UpdatedBy:      t.UpdatedBy(),
		CreatedAt:      t.CreatedAt(),
		UpdatedAt:      t.UpdatedAt(),
	}
}

func (d templateDoc) toModel() (*model.NotificationTemplate, error) {
	details := make(model.ChannelDetails, len(d.ChannelDetails))
	for ch, cd := range d.ChannelDetails {
		details[model.Channel(ch)] = cd
	}
	return model.NewNotificationTemplate(model.TemplateParams{
		ID:             d.ID,
		Name:           d.Name,
		Description:    d.Description,
		ChannelDetails: details,
		IsActive:       d.IsActive,
		CreatedBy:      d.CreatedBy,
		UpdatedBy:      d.UpdatedBy,
		CreatedAt:      d.CreatedAt,
		UpdatedAt:      d.UpdatedAt,
	})
}

type notificationDoc struct {
	ID                  string    `bson:"_id"`
	NotificationName    string    `bson:"notificationName"`
	Subject             string    `bson:"subject"`
	Content             string    `bson:"content"`
	UserID              string    `bson:"userId"`
	NotificationChannel string    `bson:"notificationChannel"`
	CreatedAt           time.Time `bson:"createdAt"`
	UpdatedAt           time.Time `bson:"updatedAt"`
}

func notificationToDoc(l *model.NotificationLog) notificationDoc {
	return notificationDoc{
		ID:                  l.ID.String(),
		NotificationName:    l.NotificationName,
		Subject:             l.Subject,
		Content:             l.Content,
		UserID:              l.UserID,
		NotificationChannel: string(l.Channel),
		CreatedAt:           l.CreatedAt,
		UpdatedAt:           l.UpdatedAt,
	}
}

func (d notificationDoc) toModel() *model.NotificationLog {
	id, err := uuid.Parse(d.ID)
	if err != nil {
		id = uuid.NewSHA1(uuid.NameSpaceOID, []byte(d.ID))
	}
	return &model.NotificationLog{
		ID:               id,
		NotificationName: d.NotificationName,
		Subject:          d.Subject,
		Content:          d.Content,
		UserID:           d.UserID,
		Channel:          model.Channel(d.NotificationChannel),
		CreatedAt:        d.CreatedAt,
		UpdatedAt:        d.UpdatedAt,
	}
}
