package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/model"
	"github.com/lalithlochan/courier/internal/subscription"
)

type key struct {
	id      string
	typ     model.SubscriberType
	channel model.Channel
}

// memStore upserts like the real backends do.
type memStore struct {
	subs      map[key]*model.ChannelSubscription
	order     []key
	templates map[string]*model.NotificationTemplate
}

func newMemStore() *memStore {
	return &memStore{
		subs:      make(map[key]*model.ChannelSubscription),
		templates: make(map[string]*model.NotificationTemplate),
	}
}

func (m *memStore) FindBySubscriber(_ context.Context, id string, typ model.SubscriberType) ([]*model.ChannelSubscription, error) {
	var out []*model.ChannelSubscription
	for _, k := range m.order {
		if k.id == id && k.typ == typ {
			out = append(out, m.subs[k])
		}
	}
	return out, nil
}

func (m *memStore) SaveSubscription(_ context.Context, s *model.ChannelSubscription) error {
	k := key{s.SubscriberID(), s.SubscriberType(), s.Channel()}
	if _, ok := m.subs[k]; !ok {
		m.order = append(m.order, k)
	}
	m.subs[k] = s
	return nil
}

func (m *memStore) DeleteSubscriptions(context.Context) (int64, error) {
	n := int64(len(m.subs))
	m.subs = make(map[key]*model.ChannelSubscription)
	m.order = nil
	return n, nil
}

func (m *memStore) FindTemplateByName(_ context.Context, name string) (*model.NotificationTemplate, error) {
	t, ok := m.templates[name]
	if !ok {
		return nil, model.ErrNotFound
	}
	return t, nil
}

func (m *memStore) SaveTemplate(_ context.Context, t *model.NotificationTemplate) error {
	m.templates[t.Name()] = t
	return nil
}

func (m *memStore) DeleteTemplates(context.Context) (int64, error) {
	n := int64(len(m.templates))
	m.templates = make(map[string]*model.NotificationTemplate)
	return n, nil
}

func TestSeedData_IsValid(t *testing.T) {
	subs, err := buildSubscriptions()
	require.NoError(t, err)
	assert.Len(t, subs, len(subscriptionSeeds))

	tmpls, err := buildTemplates()
	require.NoError(t, err)
	assert.Len(t, tmpls, 3)
	for _, tmpl := range tmpls {
		assert.True(t, tmpl.IsActive())
		assert.Equal(t, seedCreator, tmpl.CreatedBy())
	}
}

func TestSeed_IsRepeatable(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()

	require.NoError(t, seedSubscriptions(ctx, st, zap.NewNop()))
	require.NoError(t, seedSubscriptions(ctx, st, zap.NewNop()))
	require.NoError(t, seedTemplates(ctx, st, zap.NewNop()))
	require.NoError(t, seedTemplates(ctx, st, zap.NewNop()))

	assert.Len(t, st.subs, len(subscriptionSeeds))
	assert.Len(t, st.templates, len(templateSeeds))

	require.NoError(t, clearSubscriptions(ctx, st, zap.NewNop()))
	require.NoError(t, clearTemplates(ctx, st, zap.NewNop()))
	assert.Empty(t, st.subs)
	assert.Empty(t, st.templates)
}

func TestSeed_ResolvesDemoRecipients(t *testing.T) {
	ctx := context.Background()
	st := newMemStore()
	require.NoError(t, seedSubscriptions(ctx, st, zap.NewNop()))

	m := subscription.NewMatcher(st, zap.NewNop())

	tests := []struct {
		name      string
		userID    string
		companyID string
		want      []model.Channel
	}{
		{"user with company", "user-001", "company-001", []model.Channel{model.ChannelEmail, model.ChannelUI}},
		{"inactive sms is dropped", "user-002", "company-002", []model.Channel{model.ChannelEmail}},
		{"inactive company", "user-003", "company-003", nil},
		{"user only", "user-005", "", []model.Channel{model.ChannelEmail, model.ChannelUI}},
		{"user with only inactive records", "user-006", "", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			groups, err := m.ResolveEligibleChannels(ctx, tt.userID, tt.companyID)
			require.NoError(t, err)
			assert.Equal(t, tt.want, subscription.ActiveChannels(groups))
		})
	}
}

func TestNewApp_Commands(t *testing.T) {
	app := newApp()
	var names []string
	for _, c := range app.Commands {
		names = append(names, c.Name)
	}
	assert.Equal(t, []string{"subscriptions", "templates", "clear"}, names)
}
