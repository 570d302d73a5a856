package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v2"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/config"
	"github.com/lalithlochan/courier/internal/observ"
	"github.com/lalithlochan/courier/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp().RunContext(ctx, os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// seedStore is the part of the store the seeder writes to.
type seedStore interface {
	store.Subscriptions
	store.Templates
}

func newApp() *cli.App {
	return &cli.App{
		Name:  "courier-seeder",
		Usage: "load demo subscriptions and templates into the configured store",
		Commands: []*cli.Command{
			{
				Name:  "subscriptions",
				Usage: "upsert the demo channel subscriptions",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "delete existing subscriptions first"},
				},
				Action: withStore(func(c *cli.Context, st seedStore, logger *zap.Logger) error {
					if c.Bool("clear") {
						if err := clearSubscriptions(c.Context, st, logger); err != nil {
							return err
						}
					}
					return seedSubscriptions(c.Context, st, logger)
				}),
			},
			{
				Name:  "templates",
				Usage: "upsert the demo notification templates",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "clear", Usage: "delete existing templates first"},
				},
				Action: withStore(func(c *cli.Context, st seedStore, logger *zap.Logger) error {
					if c.Bool("clear") {
						if err := clearTemplates(c.Context, st, logger); err != nil {
							return err
						}
					}
					return seedTemplates(c.Context, st, logger)
				}),
			},
			{
				Name:  "clear",
				Usage: "delete all subscriptions and templates",
				Action: withStore(func(c *cli.Context, st seedStore, logger *zap.Logger) error {
					if err := clearSubscriptions(c.Context, st, logger); err != nil {
						return err
					}
					return clearTemplates(c.Context, st, logger)
				}),
			},
		},
	}
}

func withStore(fn func(*cli.Context, seedStore, *zap.Logger) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.Load()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		logger, err := observ.NewLogger(cfg.Env, cfg.LogLevel, "courier-seeder")
		if err != nil {
			return fmt.Errorf("failed to create logger: %w", err)
		}
		defer func() { _ = logger.Sync() }()

		st, err := store.Open(c.Context, cfg, logger)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer st.Close()

		return fn(c, st, logger)
	}
}

func seedSubscriptions(ctx context.Context, st store.Subscriptions, logger *zap.Logger) error {
	subs, err := buildSubscriptions()
	if err != nil {
		return fmt.Errorf("build subscriptions: %w", err)
	}
	for _, s := range subs {
		if err := st.SaveSubscription(ctx, s); err != nil {
			return fmt.Errorf("save subscription %s/%s: %w", s.SubscriberID(), s.Channel(), err)
		}
		logger.Info("seeded subscription",
			zap.String("subscriber_type", s.SubscriberType().String()),
			zap.String("subscriber_id", s.SubscriberID()),
			zap.String("channel", s.Channel().String()),
			zap.Bool("active", s.IsActive()),
		)
	}
	logger.Info("channel subscriptions seeded", zap.Int("count", len(subs)))
	return nil
}

func seedTemplates(ctx context.Context, st store.Templates, logger *zap.Logger) error {
	tmpls, err := buildTemplates()
	if err != nil {
		return fmt.Errorf("build templates: %w", err)
	}
	for _, t := range tmpls {
		if err := st.SaveTemplate(ctx, t); err != nil {
			return fmt.Errorf("save template %s: %w", t.Name(), err)
		}
		logger.Info("seeded template", zap.String("name", t.Name()), zap.String("description", t.Description()))
	}
	logger.Info("notification templates seeded", zap.Int("count", len(tmpls)))
	return nil
}

func clearSubscriptions(ctx context.Context, st store.Subscriptions, logger *zap.Logger) error {
	n, err := st.DeleteSubscriptions(ctx)
	if err != nil {
		return fmt.Errorf("clear subscriptions: %w", err)
	}
	logger.Info("cleared channel subscriptions", zap.Int64("deleted", n))
	return nil
}

func clearTemplates(ctx context.Context, st store.Templates, logger *zap.Logger) error {
	n, err := st.DeleteTemplates(ctx)
	if err != nil {
		return fmt.Errorf("clear templates: %w", err)
	}
	logger.Info("cleared notification templates", zap.Int64("deleted", n))
	return nil
}
