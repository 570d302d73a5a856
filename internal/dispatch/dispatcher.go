// Package dispatch turns a notification request into one delivery job per
// channel the recipient can currently be reached on.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/jobs"
	"github.com/lalithlochan/courier/internal/metrics"
	"github.com/lalithlochan/courier/internal/model"
	"github.com/lalithlochan/courier/internal/render"
	"github.com/lalithlochan/courier/internal/subscription"
)

// ChannelMatcher resolves the channel groups of a recipient.
type ChannelMatcher interface {
	ResolveEligibleChannels(ctx context.Context, userID, companyID string) ([]subscription.ChannelGroup, error)
}

// TemplateStore finds templates by name. A missing template is reported
// with an error wrapping model.ErrNotFound.
type TemplateStore interface {
	FindTemplateByName(ctx context.Context, name string) (*model.NotificationTemplate, error)
}

// ProfileSource returns the placeholder values for a user. It must not fail
// for unknown users.
type ProfileSource interface {
	RecipientContext(ctx context.Context, userID string) (model.RecipientContext, error)
}

// Request asks for a named notification to be sent to a user, a company,
// or a user within a company.
type Request struct {
	UserID           string
	CompanyID        string
	NotificationName string
	// TemplateData overrides profile values when rendering.
	TemplateData map[string]string
}

// Dispatcher runs the dispatch pipeline.
type Dispatcher struct {
	matcher   ChannelMatcher
	templates TemplateStore
	profiles  ProfileSource
	sinks     map[model.Channel]jobs.Sink
	options   jobs.Options
	logger    *zap.Logger
}

// New creates a dispatcher. sinks holds the transport for each channel that
// has a worker.
func New(matcher ChannelMatcher, templates TemplateStore, profiles ProfileSource, sinks map[model.Channel]jobs.Sink, logger *zap.Logger) *Dispatcher {
	registry := make(map[model.Channel]jobs.Sink, len(sinks))
	for ch, s := range sinks {
		registry[ch] = s
	}
	return &Dispatcher{
		matcher:   matcher,
		templates: templates,
		profiles:  profiles,
		sinks:     registry,
		options:   jobs.DefaultOptions(),
		logger:    logger,
	}
}

// jobKind maps a channel to the worker job it is delivered by. Channels
// without a worker report false.
func jobKind(ch model.Channel) (jobs.Kind, bool) {
	switch ch {
	case model.ChannelEmail:
		return jobs.KindSendEmail, true
	case model.ChannelUI:
		return jobs.KindSendUI, true
	case model.ChannelSMS, model.ChannelWhatsApp, model.ChannelMobilePush:
		return "", false
	default:
		return "", false
	}
}

// Dispatch resolves channels, renders the template for each and enqueues one
// job per deliverable channel.
//
// The returned error is non-nil only when neither id is given; it then
// matches model.ErrValidation. Every other failure is reported inside the
// Outcome.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (out *Outcome, err error) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panicked",
				zap.Any("panic", r),
				zap.String("notification", req.NotificationName),
			)
			out, err = failed(fmt.Sprintf("Unexpected error: %v", r)), nil
			metrics.RecordDispatch("failure")
		}
	}()

	out, err = d.run(ctx, req)
	switch {
	case err != nil:
		metrics.RecordDispatch("invalid")
	case out.Success:
		metrics.RecordDispatch("success")
	default:
		metrics.RecordDispatch("failure")
	}
	return out, err
}

func (d *Dispatcher) run(ctx context.Context, req Request) (*Outcome, error) {
	groups, err := d.matcher.ResolveEligibleChannels(ctx, req.UserID, req.CompanyID)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			return nil, err
		}
		return d.unexpected(err), nil
	}

	eligible := make(map[model.Channel]bool)
	for _, ch := range subscription.ActiveChannels(groups) {
		eligible[ch] = true
	}
	if len(eligible) == 0 {
		return failed("No active channel subscriptions found for user"), nil
	}

	tmpl, err := d.templates.FindTemplateByName(ctx, req.NotificationName)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return failed(fmt.Sprintf("Notification template '%s' not found", req.NotificationName)), nil
		}
		return d.unexpected(err), nil
	}

	var toNotify []model.Channel
	for _, ch := range tmpl.OrderedChannels() {
		detail, _ := tmpl.Detail(ch)
		if detail.Active && eligible[ch] {
			toNotify = append(toNotify, ch)
		}
	}
	if len(toNotify) == 0 {
		return failed("No matching active channels found between template and user subscriptions"), nil
	}

	profile, err := d.profiles.RecipientContext(ctx, req.UserID)
	if err != nil {
		return d.unexpected(err), nil
	}
	values := profile.Merge(req.TemplateData)

	return d.fanOut(ctx, req, tmpl, toNotify, values), nil
}

type enqueueResult struct {
	channel model.Channel
	msgID   string
	err     error
}

func (d *Dispatcher) fanOut(ctx context.Context, req Request, tmpl *model.NotificationTemplate, channels []model.Channel, values model.RecipientContext) *Outcome {
	out := newOutcome()

	var (
		wg      sync.WaitGroup
		results = make([]*enqueueResult, 0, len(channels))
	)
	for _, ch := range channels {
		detail, _ := tmpl.Detail(ch)
		rendered := render.Render(detail, values)

		kind, ok := jobKind(ch)
		sink := d.sinks[ch]
		if !ok || sink == nil {
			out.addError(ch.String(), fmt.Sprintf("Unsupported notification channel: %s", ch))
			out.NotifiedChannels = append(out.NotifiedChannels, ch.String())
			continue
		}

		job, err := jobs.NewJob(ch, kind, jobs.Payload{
			NotificationName: tmpl.Name(),
			Subject:          rendered.Subject,
			Content:          rendered.Content,
			UserID:           req.UserID,
		}, d.options)
		if err != nil {
			metrics.RecordJobEnqueue(ch.String(), metrics.EnqueueInvalid)
			out.addError(ch.String(), fmt.Sprintf("Failed to create job: %s", err))
			continue
		}

		res := &enqueueResult{channel: ch}
		results = append(results, res)
		out.NotifiedChannels = append(out.NotifiedChannels, ch.String())

		wg.Add(1)
		go func() {
			defer wg.Done()
			res.msgID, res.err = enqueue(ctx, sink, job)
		}()
	}
	wg.Wait()

	for _, res := range results {
		if res.err != nil {
			metrics.RecordJobEnqueue(res.channel.String(), metrics.EnqueueRejected)
			d.logger.Warn("job enqueue rejected",
				zap.String("channel", res.channel.String()),
				zap.String("notification", tmpl.Name()),
				zap.Error(res.err),
			)
			continue
		}
		metrics.RecordJobEnqueue(res.channel.String(), metrics.EnqueueOK)
		d.logger.Debug("job enqueued",
			zap.String("channel", res.channel.String()),
			zap.String("message_id", res.msgID),
		)
		out.TotalJobsCreated++
	}
	out.Success = out.TotalJobsCreated > 0

	d.logger.Info("dispatch completed",
		zap.String("notification", tmpl.Name()),
		zap.String("user_id", req.UserID),
		zap.String("company_id", req.CompanyID),
		zap.Strings("notified_channels", out.NotifiedChannels),
		zap.Int("jobs_created", out.TotalJobsCreated),
		zap.Int("errors", len(out.Errors)),
	)

	return out
}

// enqueue turns a panicking sink into an error so it cannot take down the
// sibling channels.
func enqueue(ctx context.Context, sink jobs.Sink, job *jobs.Job) (id string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sink panicked: %v", r)
		}
	}()
	return sink.Enqueue(ctx, job)
}

func (d *Dispatcher) unexpected(err error) *Outcome {
	d.logger.Error("dispatch failed", zap.Error(err))
	return failed(fmt.Sprintf("Unexpected error: %s", err))
}
