package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/lalithlochan/courier/internal/api"
	"github.com/lalithlochan/courier/internal/config"
	"github.com/lalithlochan/courier/internal/jobs"
	"github.com/lalithlochan/courier/internal/metrics"
	"github.com/lalithlochan/courier/internal/model"
	"github.com/lalithlochan/courier/internal/observ"
	"github.com/lalithlochan/courier/internal/profile"
	"github.com/lalithlochan/courier/internal/sqs"
	"github.com/lalithlochan/courier/internal/store"
	"github.com/lalithlochan/courier/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel, "courier-worker")
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	st, err := store.Open(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer st.Close()

	deliverer, err := newDeliverer(ctx, cfg, logger)
	if err != nil {
		return err
	}

	processor := worker.NewRouter(logger).
		Handle(jobs.KindSendEmail, worker.NewEmailProcessor(deliverer, profile.NewDemoDirectory(), st, logger)).
		Handle(jobs.KindSendUI, worker.NewUIProcessor(st, logger))

	queues := map[model.Channel]string{
		model.ChannelEmail: cfg.SQSEmailQueueURL,
		model.ChannelUI:    cfg.SQSUIQueueURL,
	}

	client, err := sqs.NewClient(ctx, sqs.Config{Region: cfg.SQSRegion, Endpoint: cfg.AWSEndpoint})
	if err != nil {
		return fmt.Errorf("failed to create sqs client: %w", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	started := 0
	for _, ch := range model.Channels() {
		url := queues[ch]
		if url == "" {
			continue
		}
		w := worker.New(ch, sqs.NewConsumer(client, url, logger), processor, worker.Config{
			BatchSize:   cfg.WorkerBatchSize,
			Concurrency: cfg.WorkerConcurrency,
		}, logger)
		g.Go(func() error {
			w.Start(gctx)
			return nil
		})
		started++
	}
	if started == 0 {
		return errors.New("no channel queue configured: set SQS_EMAIL_QUEUE_URL or SQS_UI_QUEUE_URL")
	}

	r := chi.NewRouter()
	r.Get("/health", api.HealthHandler([]api.HealthCheck{{Name: "store", Check: st.Health}}, nil, logger).ServeHTTP)
	r.Handle("/metrics", metrics.Handler())
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WorkerPort),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		logger.Info("worker status server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("status server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	logger.Info("courier worker started", zap.Int("queues", started))
	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("worker stopped gracefully")
	return nil
}

func newDeliverer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (worker.Deliverer, error) {
	if !cfg.SESEnabled {
		logger.Info("SES disabled, emails are logged only")
		return worker.NewLogDeliverer(logger), nil
	}
	client, err := worker.NewSESClient(ctx, worker.SESConfig{
		Region:    cfg.AWSRegion,
		FromEmail: cfg.SESFromEmail,
		Endpoint:  cfg.AWSEndpoint,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create SES client: %w", err)
	}
	return worker.NewSESDeliverer(client, cfg.SESFromEmail, logger), nil
}
