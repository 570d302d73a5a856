package docstore

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"

	"github.com/lalithlochan/courier/internal/model"
)

func TestTemplateDocRoundTripsThroughBSON(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	tmpl, err := model.NewNotificationTemplate(model.TemplateParams{
		Name: "happy-birthday",
		ChannelDetails: model.ChannelDetails{
			model.ChannelEmail: {Active: true, Subject: "Happy Birthday, {{firstName}}!", Body: "Dear {{fullName}}"},
			model.ChannelUI:    {Active: true, Body: "Happy birthday {{firstName}}"},
		},
		IsActive:  true,
		CreatedBy: "system",
		CreatedAt: created,
		UpdatedAt: created,
	})
	require.NoError(t, err)

	raw, err := bson.Marshal(templateToDoc(tmpl))
	require.NoError(t, err)

	var doc templateDoc
	require.NoError(t, bson.Unmarshal(raw, &doc))
	got, err := doc.toModel()
	require.NoError(t, err)

	assert.Equal(t, tmpl.Name(), got.Name())
	assert.Equal(t, tmpl.ChannelDetails(), got.ChannelDetails())
	assert.Equal(t, []model.Channel{model.ChannelEmail, model.ChannelUI}, got.OrderedChannels())
	assert.True(t, created.Equal(got.CreatedAt()))
}

func TestSubscriptionDocKeepsInactiveFlag(t *testing.T) {
	sub, err := model.NewChannelSubscription(model.SubscriptionParams{
		SubscriberID:   "user-006",
		SubscriberType: model.SubscriberUser,
		Channel:        model.ChannelEmail,
		IsActive:       model.Bool(false),
	})
	require.NoError(t, err)

	got, err := subscriptionToDoc(sub).toModel()

	require.NoError(t, err)
	assert.False(t, got.IsActive())
	assert.Equal(t, sub.ID(), got.ID())
}

func TestNotificationDocID(t *testing.T) {
	id := uuid.New()
	l := &model.NotificationLog{ID: id, NotificationName: "n", Content: "c", UserID: "u", Channel: model.ChannelUI}

	assert.Equal(t, id, notificationToDoc(l).toModel().ID)

	legacy := notificationDoc{ID: "65f0c0ffee", NotificationChannel: "ui"}
	first, second := legacy.toModel().ID, legacy.toModel().ID
	assert.Equal(t, first, second)
	assert.NotEqual(t, uuid.Nil, first)
}
