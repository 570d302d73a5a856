package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChannelSubscription records whether a subscriber opted in to a channel.
// At most one exists per (subscriber id, subscriber type, channel); the
// store enforces that with a unique index.
type ChannelSubscription struct {
	id             string
	subscriberID   string
	subscriberType SubscriberType
	channel        Channel
	isActive       bool
	createdAt      time.Time
	updatedAt      time.Time
}

// SubscriptionParams is the input to NewChannelSubscription. IsActive
// defaults to true when nil.
type SubscriptionParams struct {
	ID             string
	SubscriberID   string
	SubscriberType SubscriberType
	Channel        Channel
	IsActive       *bool
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewChannelSubscription validates p and builds a subscription.
func NewChannelSubscription(p SubscriptionParams) (*ChannelSubscription, error) {
	subscriberID := strings.TrimSpace(p.SubscriberID)
	if subscriberID == "" {
		return nil, Invalid("Subscriber ID is required")
	}
	if p.SubscriberType == "" {
		return nil, Invalid("Subscriber type is required")
	}
	if p.Channel == "" {
		return nil, Invalid("Channel is required")
	}
	if !p.SubscriberType.Valid() {
		return nil, Invalid("Invalid subscriber type: %s", p.SubscriberType)
	}
	if !p.Channel.Valid() {
		return nil, Invalid("Invalid channel type: %s", p.Channel)
	}

	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}

	id := p.ID
	if id == "" {
		id = uuid.NewString()
	}

	now := time.Now().UTC()
	created, updated := p.CreatedAt, p.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = created
	}

	return &ChannelSubscription{
		id:             id,
		subscriberID:   subscriberID,
		subscriberType: p.SubscriberType,
		channel:        p.Channel,
		isActive:       active,
		createdAt:      created,
		updatedAt:      updated,
	}, nil
}

func (s *ChannelSubscription) ID() string                     { return s.id }
func (s *ChannelSubscription) SubscriberID() string           { return s.subscriberID }
func (s *ChannelSubscription) SubscriberType() SubscriberType { return s.subscriberType }
func (s *ChannelSubscription) Channel() Channel               { return s.channel }
func (s *ChannelSubscription) IsActive() bool                 { return s.isActive }
func (s *ChannelSubscription) CreatedAt() time.Time           { return s.createdAt }
func (s *ChannelSubscription) UpdatedAt() time.Time           { return s.updatedAt }

// subscriptionJSON is the read-only view served by the diagnostics API.
type subscriptionJSON struct {
	ID             string         `json:"id"`
	SubscriberID   string         `json:"subscriberId"`
	SubscriberType SubscriberType `json:"subscriberType"`
	Channel        Channel        `json:"channel"`
	IsActive       bool           `json:"isActive"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

// MarshalJSON exposes the subscription without making its fields writable.
func (s *ChannelSubscription) MarshalJSON() ([]byte, error) {
	return marshal(subscriptionJSON{
		ID:             s.id,
		SubscriberID:   s.subscriberID,
		SubscriberType: s.subscriberType,
		Channel:        s.channel,
		IsActive:       s.isActive,
		CreatedAt:      s.createdAt,
		UpdatedAt:      s.updatedAt,
	})
}

// Bool returns a pointer to b, for optional parameters.
func Bool(b bool) *bool { return &b }
