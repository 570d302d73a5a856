package model

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChannelSubscription(t *testing.T) {
	tests := []struct {
		name    string
		params  SubscriptionParams
		wantErr string
	}{
		{
			name:   "valid defaults to active",
			params: SubscriptionParams{SubscriberID: " user-001 ", SubscriberType: SubscriberUser, Channel: ChannelEmail},
		},
		{
			name:    "empty subscriber id",
			params:  SubscriptionParams{SubscriberID: "   ", SubscriberType: SubscriberUser, Channel: ChannelEmail},
			wantErr: "Subscriber ID is required",
		},
		{
			name:    "missing type",
			params:  SubscriptionParams{SubscriberID: "u", Channel: ChannelEmail},
			wantErr: "Subscriber type is required",
		},
		{
			name:    "unknown type",
			params:  SubscriptionParams{SubscriberID: "u", SubscriberType: "robot", Channel: ChannelEmail},
			wantErr: "Invalid subscriber type: robot",
		},
		{
			name:    "unknown channel",
			params:  SubscriptionParams{SubscriberID: "u", SubscriberType: SubscriberUser, Channel: "fax"},
			wantErr: "Invalid channel type: fax",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sub, err := NewChannelSubscription(tt.params)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrValidation))
				assert.Equal(t, tt.wantErr, err.Error())
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-001", sub.SubscriberID())
			assert.True(t, sub.IsActive())
			assert.NotEmpty(t, sub.ID())
		})
	}
}

func TestNewChannelSubscription_Inactive(t *testing.T) {
	sub, err := NewChannelSubscription(SubscriptionParams{
		SubscriberID:   "company-001",
		SubscriberType: SubscriberCompany,
		Channel:        ChannelSMS,
		IsActive:       Bool(false),
	})
	require.NoError(t, err)
	assert.False(t, sub.IsActive())
}

func TestNewNotificationTemplate(t *testing.T) {
	_, err := NewNotificationTemplate(TemplateParams{Name: "  ", ChannelDetails: ChannelDetails{ChannelEmail: {Active: true}}})
	assert.EqualError(t, err, "Template name is required")

	_, err = NewNotificationTemplate(TemplateParams{Name: "x"})
	assert.EqualError(t, err, "At least one channel must be configured")

	details := ChannelDetails{
		"push":            {Active: true},
		ChannelUI:         {Active: true, Body: "hi"},
		ChannelEmail:      {Active: true, Subject: "s", Body: "b"},
		ChannelMobilePush: {Active: false},
	}
	tmpl, err := NewNotificationTemplate(TemplateParams{Name: " happy-birthday ", ChannelDetails: details})
	require.NoError(t, err)
	assert.Equal(t, "happy-birthday", tmpl.Name())
	assert.Equal(t, []Channel{ChannelEmail, ChannelUI, ChannelMobilePush, "push"}, tmpl.OrderedChannels())

	// the template keeps its own copy
	details[ChannelSMS] = ChannelDetail{Active: true}
	_, ok := tmpl.Detail(ChannelSMS)
	assert.False(t, ok)
}

func TestNewNotificationLog(t *testing.T) {
	_, err := NewNotificationLog(LogParams{NotificationName: "n", Content: "", UserID: "u", Channel: ChannelUI})
	assert.EqualError(t, err, "Content is required")

	_, err = NewNotificationLog(LogParams{NotificationName: "n", Content: "c", Channel: ChannelUI})
	assert.EqualError(t, err, "User ID is required")

	log, err := NewNotificationLog(LogParams{NotificationName: "n", Content: "c", UserID: "u", Channel: ChannelUI})
	require.NoError(t, err)
	assert.Empty(t, log.Subject)
	assert.False(t, log.CreatedAt.IsZero())
}

func TestValidatePage(t *testing.T) {
	assert.NoError(t, ValidatePage("u", 1, 10))
	assert.EqualError(t, ValidatePage("", 1, 10), "User ID is required")
	assert.EqualError(t, ValidatePage("u", 0, 10), "Page must be greater than 0")
	assert.EqualError(t, ValidatePage("u", 1, 101), "Limit must be between 1 and 100")
	assert.Equal(t, 3, TotalPages(21, 10))
	assert.Equal(t, 0, TotalPages(0, 10))
}

func TestRecipientContextMerge(t *testing.T) {
	base := RecipientContext{"fullName": "John Doe", "companyName": "TechCorp"}
	merged := base.Merge(map[string]string{"companyName": "Override", "leaveBalance": "12"})
	assert.Equal(t, "Override", merged["companyName"])
	assert.Equal(t, "12", merged["leaveBalance"])
	assert.Equal(t, "TechCorp", base["companyName"])
}
