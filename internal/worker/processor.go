package worker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/jobs"
	"github.com/lalithlochan/courier/internal/model"
	"github.com/lalithlochan/courier/internal/profile"
)

// Processor handles one decoded job. A returned error makes the job
// eligible for retry.
type Processor interface {
	Process(ctx context.Context, env *jobs.Envelope) error
}

// LogStore persists notification logs.
type LogStore interface {
	CreateNotificationLog(ctx context.Context, log *model.NotificationLog) error
}

// Directory resolves user profiles for addressing.
type Directory interface {
	User(ctx context.Context, id string) (profile.User, error)
}

// Router picks the processor registered for a job kind.
type Router struct {
	processors map[jobs.Kind]Processor
	logger     *zap.Logger
}

func NewRouter(logger *zap.Logger) *Router {
	return &Router{processors: make(map[jobs.Kind]Processor), logger: logger}
}

// Handle registers p for kind.
func (r *Router) Handle(kind jobs.Kind, p Processor) *Router {
	r.processors[kind] = p
	return r
}

func (r *Router) Process(ctx context.Context, env *jobs.Envelope) error {
	p, ok := r.processors[env.Kind]
	if !ok {
		return fmt.Errorf("no processor for job kind: %s", env.Kind)
	}
	r.logger.Debug("routing job",
		zap.String("kind", string(env.Kind)),
		zap.String("job_id", env.ID),
	)
	return p.Process(ctx, env)
}

// EmailProcessor delivers send-email jobs and records them.
type EmailProcessor struct {
	deliverer Deliverer
	users     Directory
	logs      LogStore
	logger    *zap.Logger
}

func NewEmailProcessor(deliverer Deliverer, users Directory, logs LogStore, logger *zap.Logger) *EmailProcessor {
	return &EmailProcessor{deliverer: deliverer, users: users, logs: logs, logger: logger}
}

func (p *EmailProcessor) Process(ctx context.Context, env *jobs.Envelope) error {
	pl := env.Payload
	p.logger.Info("processing email notification",
		zap.String("job_id", env.ID),
		zap.String("user_id", pl.UserID),
		zap.String("notification", pl.NotificationName),
	)

	user, err := p.users.User(ctx, pl.UserID)
	if err != nil {
		return fmt.Errorf("look up recipient: %w", err)
	}

	if err := p.deliverer.Deliver(ctx, Email{To: user.Email, Subject: pl.Subject, Body: pl.Content}); err != nil {
		return fmt.Errorf("deliver email: %w", err)
	}

	record(ctx, p.logs, p.logger, model.LogParams{
		NotificationName: pl.NotificationName,
		Subject:          pl.Subject,
		Content:          pl.Content,
		UserID:           pl.UserID,
		Channel:          model.ChannelEmail,
	})
	return nil
}

// UIProcessor records send-ui jobs as in-app notifications.
type UIProcessor struct {
	logs   LogStore
	logger *zap.Logger
}

func NewUIProcessor(logs LogStore, logger *zap.Logger) *UIProcessor {
	return &UIProcessor{logs: logs, logger: logger}
}

func (p *UIProcessor) Process(ctx context.Context, env *jobs.Envelope) error {
	pl := env.Payload
	p.logger.Info("processing ui notification",
		zap.String("job_id", env.ID),
		zap.String("user_id", pl.UserID),
		zap.String("notification", pl.NotificationName),
		zap.String("content", pl.Content),
	)

	record(ctx, p.logs, p.logger, model.LogParams{
		NotificationName: pl.NotificationName,
		Subject:          "",
		Content:          pl.Content,
		UserID:           pl.UserID,
		Channel:          model.ChannelUI,
	})
	return nil
}

// record writes the notification log. Failures are logged only: the
// notification itself has already gone out.
func record(ctx context.Context, logs LogStore, logger *zap.Logger, params model.LogParams) {
	entry, err := model.NewNotificationLog(params)
	if err == nil {
		err = logs.CreateNotificationLog(ctx, entry)
	}
	if err != nil {
		logger.Error("failed to create notification log",
			zap.String("user_id", params.UserID),
			zap.String("channel", params.Channel.String()),
			zap.Error(err),
		)
		return
	}
	logger.Info("notification log created",
		zap.String("id", entry.ID.String()),
		zap.String("user_id", params.UserID),
		zap.String("notification", params.NotificationName),
	)
}
