package model

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ChannelDetail configures one channel of a template. Subject and Body may
// contain {{placeholder}} tokens.
type ChannelDetail struct {
	Active  bool   `json:"active" bson:"active"`
	Subject string `json:"subject,omitempty" bson:"subject,omitempty"`
	Body    string `json:"body,omitempty" bson:"body,omitempty"`
}

// ChannelDetails maps channel to its configuration. Keys are kept as raw
// channels so that a stored template naming an unknown channel still loads.
type ChannelDetails map[Channel]ChannelDetail

// NotificationTemplate is a named, multi-channel message definition.
type NotificationTemplate struct {
	id             string
	name           string
	description    string
	channelDetails ChannelDetails
	isActive       bool
	createdBy      string
	updatedBy      string
	createdAt      time.Time
	updatedAt      time.Time
}

// TemplateParams is the input to NewNotificationTemplate.
type TemplateParams struct {
	ID             string
	Name           string
	Description    string
	ChannelDetails ChannelDetails
	IsActive       bool
	CreatedBy      string
	UpdatedBy      string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// NewNotificationTemplate validates p and builds a template.
func NewNotificationTemplate(p TemplateParams) (*NotificationTemplate, error) {
	name := strings.TrimSpace(p.Name)
	if name == "" {
		return nil, Invalid("Template name is required")
	}
	if len(p.ChannelDetails) == 0 {
		return nil, Invalid("At least one channel must be configured")
	}

	details := make(ChannelDetails, len(p.ChannelDetails))
	for ch, d := range p.ChannelDetails {
		details[ch] = d
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
		updated = now
	}

	return &NotificationTemplate{
		id:             id,
		name:           name,
		description:    strings.TrimSpace(p.Description),
		channelDetails: details,
		isActive:       p.IsActive,
		createdBy:      p.CreatedBy,
		updatedBy:      p.UpdatedBy,
		createdAt:      created,
		updatedAt:      updated,
	}, nil
}

func (t *NotificationTemplate) ID() string           { return t.id }
func (t *NotificationTemplate) Name() string         { return t.name }
func (t *NotificationTemplate) Description() string  { return t.description }
func (t *NotificationTemplate) IsActive() bool       { return t.isActive }
func (t *NotificationTemplate) CreatedBy() string    { return t.createdBy }
func (t *NotificationTemplate) UpdatedBy() string    { return t.updatedBy }
func (t *NotificationTemplate) CreatedAt() time.Time { return t.createdAt }
func (t *NotificationTemplate) UpdatedAt() time.Time { return t.updatedAt }

// Detail returns the configuration of one channel.
func (t *NotificationTemplate) Detail(ch Channel) (ChannelDetail, bool) {
	d, ok := t.channelDetails[ch]
	return d, ok
}

// ChannelDetails returns a copy of the per-channel configuration.
func (t *NotificationTemplate) ChannelDetails() ChannelDetails {
	out := make(ChannelDetails, len(t.channelDetails))
	for ch, d := range t.channelDetails {
		out[ch] = d
	}
	return out
}

// OrderedChannels lists the configured channels deterministically.
func (t *NotificationTemplate) OrderedChannels() []Channel {
	out := make([]Channel, 0, len(t.channelDetails))
	for ch := range t.channelDetails {
		out = append(out, ch)
	}
	SortChannels(out)
	return out
}

type templateJSON struct {
	ID             string         `json:"id"`
	Name           string         `json:"name"`
	Description    string         `json:"description"`
	ChannelDetails ChannelDetails `json:"channelDetails"`
	IsActive       bool           `json:"isActive"`
	CreatedBy      string         `json:"createdBy"`
	UpdatedBy      string         `json:"updatedBy,omitempty"`
	CreatedAt      time.Time      `json:"createdAt"`
	UpdatedAt      time.Time      `json:"updatedAt"`
}

func (t *NotificationTemplate) MarshalJSON() ([]byte, error) {
	return marshal(templateJSON{
		ID:             t.id,
		Name:           t.name,
		Description:    t.description,
		ChannelDetails: t.channelDetails,
		IsActive:       t.isActive,
		CreatedBy:      t.createdBy,
		UpdatedBy:      t.updatedBy,
		CreatedAt:      t.createdAt,
		UpdatedAt:      t.updatedAt,
	})
}

func marshal(v any) ([]byte, error) { return json.Marshal(v) }
