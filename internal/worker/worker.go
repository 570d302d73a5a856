package worker

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lalithlochan/courier/internal/jobs"
	"github.com/lalithlochan/courier/internal/metrics"
	"github.com/lalithlochan/courier/internal/model"
	"github.com/lalithlochan/courier/internal/sqs"
)

// Queue is the channel queue a worker drains.
type Queue interface {
	Receive(ctx context.Context, max int32) ([]sqs.Received, error)
	Delete(ctx context.Context, receiptHandle string) error
	ChangeVisibility(ctx context.Context, receiptHandle string, seconds int32) error
}

type Config struct {
	// ErrorBackoff is how long to wait after a failed receive.
	ErrorBackoff time.Duration
	BatchSize    int32
	Concurrency  int
}

// Worker drains one channel queue.
type Worker struct {
	channel   model.Channel
	queue     Queue
	processor Processor
	config    Config
	logger    *zap.Logger
}

func New(channel model.Channel, queue Queue, processor Processor, cfg Config, logger *zap.Logger) *Worker {
	if cfg.ErrorBackoff == 0 {
		cfg.ErrorBackoff = 5 * time.Second
	}
	if cfg.BatchSize == 0 {
		cfg.BatchSize = 5
	}
	if cfg.Concurrency == 0 {
		cfg.Concurrency = int(cfg.BatchSize)
	}

	return &Worker{
		channel:   channel,
		queue:     queue,
		processor: processor,
		config:    cfg,
		logger:    logger.With(zap.String("channel", channel.String())),
	}
}

// Start polls until ctx is cancelled.
func (w *Worker) Start(ctx context.Context) {
	w.logger.Info("worker started")
	for {
		if ctx.Err() != nil {
			w.logger.Info("worker stopping")
			return
		}

		if err := w.poll(ctx); err != nil {
			if ctx.Err() != nil {
				continue
			}
			w.logger.Error("failed to receive jobs", zap.Error(err))
			select {
			case <-ctx.Done():
			case <-time.After(w.config.ErrorBackoff):
			}
		}
	}
}

// poll receives one batch and handles it.
func (w *Worker) poll(ctx context.Context) error {
	msgs, err := w.queue.Receive(ctx, w.config.BatchSize)
	if err != nil {
		return err
	}
	if len(msgs) == 0 {
		return nil
	}

	metrics.AddMessagesInFlight(w.channel.String(), len(msgs))
	defer metrics.AddMessagesInFlight(w.channel.String(), -len(msgs))

	var g errgroup.Group
	g.SetLimit(w.config.Concurrency)
	for _, msg := range msgs {
		g.Go(func() error {
			w.handle(ctx, msg)
			return nil
		})
	}
	return g.Wait()
}

func (w *Worker) handle(ctx context.Context, msg sqs.Received) {
	env, err := jobs.Decode(msg.Body)
	if err != nil {
		w.logger.Error("dropping undecodable message",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
		metrics.RecordJobProcessed("malformed", w.channel.String())
		w.delete(ctx, msg)
		return
	}

	log := w.logger.With(
		zap.String("job_id", env.ID),
		zap.String("kind", string(env.Kind)),
		zap.Int("attempt", msg.ReceiveCount),
	)

	if err := w.processor.Process(ctx, env); err != nil {
		if msg.ReceiveCount < env.Options.Attempts {
			wait := env.Options.BackoffFor(msg.ReceiveCount)
			log.Warn("job failed, scheduling retry",
				zap.Error(err),
				zap.Duration("backoff", wait),
			)
			metrics.RecordJobProcessed("retry", w.channel.String())
			if err := w.queue.ChangeVisibility(ctx, msg.ReceiptHandle, visibilitySeconds(wait)); err != nil {
				log.Error("failed to delay retry", zap.Error(err))
			}
			return
		}

		log.Error("job failed, retries exhausted", zap.Error(err))
		metrics.RecordJobProcessed("failed", w.channel.String())
		w.delete(ctx, msg)
		return
	}

	if env.EnqueuedAt > 0 {
		metrics.RecordJobLatency(w.channel.String(), time.Since(time.Unix(0, env.EnqueuedAt)))
	}
	metrics.RecordJobProcessed("completed", w.channel.String())
	log.Info("job completed")
	w.delete(ctx, msg)
}

func (w *Worker) delete(ctx context.Context, msg sqs.Received) {
	if err := w.queue.Delete(ctx, msg.ReceiptHandle); err != nil {
		w.logger.Error("failed to delete message",
			zap.String("message_id", msg.MessageID),
			zap.Error(err),
		)
	}
}

// visibilitySeconds rounds up to whole seconds within the SQS limit of 12h.
func visibilitySeconds(d time.Duration) int32 {
	s := math.Ceil(d.Seconds())
	if s > 43200 {
		s = 43200
	}
	return int32(s)
}
