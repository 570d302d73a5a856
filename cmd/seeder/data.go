package main

import (
	"github.com/lalithlochan/courier/internal/model"
)

// seedCreator is recorded as the author of seeded templates.
const seedCreator = "seeder"

type subscriptionSeed struct {
	subscriberID   string
	subscriberType model.SubscriberType
	channel        model.Channel
	active         bool
}

var subscriptionSeeds = []subscriptionSeed{
	{"user-001", model.SubscriberUser, model.ChannelEmail, true},
	{"user-001", model.SubscriberUser, model.ChannelUI, true},
	{"user-002", model.SubscriberUser, model.ChannelEmail, true},
	{"user-002", model.SubscriberUser, model.ChannelSMS, false},
	{"user-003", model.SubscriberUser, model.ChannelEmail, true},
	{"user-003", model.SubscriberUser, model.ChannelMobilePush, true},
	{"user-004", model.SubscriberUser, model.ChannelWhatsApp, true},
	{"user-005", model.SubscriberUser, model.ChannelEmail, true},
	{"user-005", model.SubscriberUser, model.ChannelUI, true},
	{"user-006", model.SubscriberUser, model.ChannelEmail, false},

	{"company-001", model.SubscriberCompany, model.ChannelEmail, true},
	{"company-001", model.SubscriberCompany, model.ChannelUI, true},
	{"company-002", model.SubscriberCompany, model.ChannelEmail, true},
	{"company-002", model.SubscriberCompany, model.ChannelSMS, true},
	{"company-003", model.SubscriberCompany, model.ChannelEmail, false},
}

type templateSeed struct {
	name        string
	description string
	details     model.ChannelDetails
}

var templateSeeds = []templateSeed{
	{
		name:        "leave-balance-reminder",
		description: "To remind user he has to take his leave",
		details: model.ChannelDetails{
			model.ChannelUI: {
				Active: true,
				Body:   "<p>Dear {{fullName}},</p><p>You have {{leaveBalance}} days of leave remaining. Please plan your leave accordingly.</p><p>Best regards,<br>HR Team</p>",
			},
		},
	},
	{
		name:        "monthly-payslip",
		description: "To inform the user his payslip is available",
		details: model.ChannelDetails{
			model.ChannelEmail: {
				Active:  true,
				Subject: "Your Monthly Payslip is Available",
				Body:    "<p>Dear {{fullName}},</p><p>Your monthly payslip for this month is now available for download.</p><p>Please log in to your employee portal to access it.</p><p>Best regards,<br>HR Department</p>",
			},
		},
	},
	{
		name:        "happy-birthday",
		description: "To inform the user the company wishes him a happy birthday",
		details: model.ChannelDetails{
			model.ChannelEmail: {
				Active:  true,
				Subject: "Happy Birthday from All of Us!",
				Body:    "<p>Dear {{fullName}},</p><p>Wishing you a very happy birthday filled with joy, laughter, and wonderful moments!</p><p>May this special day bring you happiness and success in the year ahead.</p><p>Best wishes from your colleagues at {{companyName}}</p>",
			},
			model.ChannelUI: {
				Active: true,
				Body:   "<p>🎉 Happy Birthday {{fullName}}! 🎂</p><p>Wishing you a fantastic day filled with joy and celebration!</p>",
			},
		},
	},
}

func buildSubscriptions() ([]*model.ChannelSubscription, error) {
	out := make([]*model.ChannelSubscription, 0, len(subscriptionSeeds))
	for _, s := range subscriptionSeeds {
		sub, err := model.NewChannelSubscription(model.SubscriptionParams{
			SubscriberID:   s.subscriberID,
			SubscriberType: s.subscriberType,
			Channel:        s.channel,
			IsActive:       model.Bool(s.active),
		})
		if err != nil {
			return nil, err
		}
		out = append(out, sub)
	}
	return out, nil
}

func buildTemplates() ([]*model.NotificationTemplate, error) {
	out := make([]*model.NotificationTemplate, 0, len(templateSeeds))
	for _, s := range templateSeeds {
		tmpl, err := model.NewNotificationTemplate(model.TemplateParams{
			Name:           s.name,
			Description:    s.description,
			ChannelDetails: s.details,
			IsActive:       true,
			CreatedBy:      seedCreator,
			UpdatedBy:      seedCreator,
		})
		if err != nil {
			return nil, err
		}
		out = append(out, tmpl)
	}
	return out, nil
}
