package model

import (
	"sort"
	"strings"
)

// Channel is a notification delivery channel. The string values are part of
// the wire contract with workers and stored templates.
type Channel string

const (
	ChannelEmail      Channel = "email"
	ChannelSMS        Channel = "sms"
	ChannelWhatsApp   Channel = "whatsapp"
	ChannelUI         Channel = "ui"
	ChannelMobilePush Channel = "mobile_push"
)

var channels = []Channel{
	ChannelEmail,
	ChannelSMS,
	ChannelWhatsApp,
	ChannelUI,
	ChannelMobilePush,
}

// Channels returns every known channel in declaration order.
func Channels() []Channel {
	out := make([]Channel, len(channels))
	copy(out, channels)
	return out
}

// Valid reports whether c is one of the declared channels.
func (c Channel) Valid() bool {
	for _, known := range channels {
		if c == known {
			return true
		}
	}
	return false
}

func (c Channel) String() string { return string(c) }

// ParseChannel converts a raw value into a Channel.
func ParseChannel(raw string) (Channel, error) {
	c := Channel(strings.TrimSpace(raw))
	if !c.Valid() {
		return "", Invalid("Invalid channel type: %s", raw)
	}
	return c, nil
}

// rank orders known channels by declaration and pushes unknown ones last.
func (c Channel) rank() int {
	for i, known := range channels {
		if c == known {
			return i
		}
	}
	return len(channels)
}

// SortChannels sorts in place: known channels in declaration order, unknown
// values after them in lexical order.
func SortChannels(cs []Channel) {
	sort.SliceStable(cs, func(i, j int) bool {
		ri, rj := cs[i].rank(), cs[j].rank()
		if ri != rj {
			return ri < rj
		}
		return cs[i] < cs[j]
	})
}

// SubscriberType identifies what kind of principal owns a subscription.
type SubscriberType string

const (
	SubscriberUser       SubscriberType = "user"
	SubscriberEmployee   SubscriberType = "employee"
	SubscriberCompany    SubscriberType = "company"
	SubscriberDepartment SubscriberType = "department"
	SubscriberTeam       SubscriberType = "team"
)

// Valid reports whether t is a declared subscriber type.
func (t SubscriberType) Valid() bool {
	switch t {
	case SubscriberUser, SubscriberEmployee, SubscriberCompany, SubscriberDepartment, SubscriberTeam:
		return true
	}
	return false
}

func (t SubscriberType) String() string { return string(t) }

// ParseSubscriberType converts a raw value into a SubscriberType.
func ParseSubscriberType(raw string) (SubscriberType, error) {
	t := SubscriberType(strings.TrimSpace(raw))
	if !t.Valid() {
		return "", Invalid("Invalid subscriber type: %s", raw)
	}
	return t, nil
}
