// Package subscription decides which channels a recipient can be reached on.
package subscription

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lalithlochan/courier/internal/model"
)

// ErrValidation is returned when neither subscriber id is given.
var ErrValidation = model.ErrValidation

// Resolver returns every subscription record, active or not, for one
// subscriber.
type Resolver interface {
	FindBySubscriber(ctx context.Context, subscriberID string, subscriberType model.SubscriberType) ([]*model.ChannelSubscription, error)
}

// ChannelGroup is the set of subscription records backing one channel.
type ChannelGroup struct {
	Channel       model.Channel                `json:"channel"`
	Subscriptions []*model.ChannelSubscription `json:"subscriptions"`
}

// HasActive reports whether any record in the group is active.
func (g ChannelGroup) HasActive() bool {
	for _, s := range g.Subscriptions {
		if s.IsActive() {
			return true
		}
	}
	return false
}

// Matcher resolves eligible channels for a user and/or a company.
type Matcher struct {
	resolver Resolver
	logger   *zap.Logger
}

// NewMatcher creates a matcher reading from resolver.
func NewMatcher(resolver Resolver, logger *zap.Logger) *Matcher {
	return &Matcher{resolver: resolver, logger: logger}
}

// ResolveEligibleChannels groups subscriptions by channel.
//
// With a single id every channel that subscriber has a record for is
// returned, inactive ones included. With both ids only channels active for
// the user AND the company survive, and only their active records are kept.
func (m *Matcher) ResolveEligibleChannels(ctx context.Context, userID, companyID string) ([]ChannelGroup, error) {
	if userID == "" && companyID == "" {
		return nil, model.Invalid("Either userId or companyId must be provided")
	}

	var userSubs, companySubs []*model.ChannelSubscription

	g, gctx := errgroup.WithContext(ctx)
	if userID != "" {
		g.Go(func() error {
			subs, err := m.resolver.FindBySubscriber(gctx, userID, model.SubscriberUser)
			if err != nil {
				return fmt.Errorf("find user subscriptions: %w", err)
			}
			userSubs = subs
			return nil
		})
	}
	if companyID != "" {
		g.Go(func() error {
			subs, err := m.resolver.FindBySubscriber(gctx, companyID, model.SubscriberCompany)
			if err != nil {
				return fmt.Errorf("find company subscriptions: %w", err)
			}
			companySubs = subs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var selected []*model.ChannelSubscription
	switch {
	case userID != "" && companyID != "":
		common := intersect(activeChannels(userSubs), activeChannels(companySubs))
		selected = append(keepActive(userSubs, common), keepActive(companySubs, common)...)
	case userID != "":
		selected = userSubs
	default:
		selected = companySubs
	}

	groups := groupByChannel(selected)

	m.logger.Debug("resolved channel groups",
		zap.String("user_id", userID),
		zap.String("company_id", companyID),
		zap.Int("groups", len(groups)),
	)

	return groups, nil
}

// ActiveChannels lists, in group order, the channels with an active record.
func ActiveChannels(groups []ChannelGroup) []model.Channel {
	var out []model.Channel
	for _, g := range groups {
		if g.HasActive() {
			out = append(out, g.Channel)
		}
	}
	return out
}

func activeChannels(subs []*model.ChannelSubscription) map[model.Channel]bool {
	set := make(map[model.Channel]bool)
	for _, s := range subs {
		if s.IsActive() {
			set[s.Channel()] = true
		}
	}
	return set
}

func intersect(a, b map[model.Channel]bool) map[model.Channel]bool {
	out := make(map[model.Channel]bool)
	for ch := range a {
		if b[ch] {
			out[ch] = true
		}
	}
	return out
}

func keepActive(subs []*model.ChannelSubscription, channels map[model.Channel]bool) []*model.ChannelSubscription {
	var out []*model.ChannelSubscription
	for _, s := range subs {
		if s.IsActive() && channels[s.Channel()] {
			out = append(out, s)
		}
	}
	return out
}

func groupByChannel(subs []*model.ChannelSubscription) []ChannelGroup {
	index := make(map[model.Channel]int)
	var groups []ChannelGroup
	for _, s := range subs {
		i, ok := index[s.Channel()]
		if !ok {
			i = len(groups)
			index[s.Channel()] = i
			groups = append(groups, ChannelGroup{Channel: s.Channel()})
		}
		groups[i].Subscriptions = append(groups[i].Subscriptions, s)
	}
	return groups
}
