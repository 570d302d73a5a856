package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/circuitbreaker"
	"github.com/lalithlochan/courier/internal/config"
	"github.com/lalithlochan/courier/internal/jobs"
	"github.com/lalithlochan/courier/internal/metrics"
	"github.com/lalithlochan/courier/internal/model"
	"github.com/lalithlochan/courier/internal/sns"
	"github.com/lalithlochan/courier/internal/sqs"
)

func onBreakerStateChange(name string, _, to circuitbreaker.State) {
	metrics.SetBreakerState(name, int(to))
}

// buildSinks creates one protected sink per channel that has a worker.
// Channels left without a sink are reported as unsupported at dispatch.
func buildSinks(ctx context.Context, cfg *config.Config, logger *zap.Logger) (map[model.Channel]jobs.Sink, []*circuitbreaker.CircuitBreaker, error) {
	sinks := make(map[model.Channel]jobs.Sink)
	var breakers []*circuitbreaker.CircuitBreaker

	protect := func(name string, sink jobs.Sink) jobs.Sink {
		cb := circuitbreaker.New(breakerConfig(cfg, name), logger)
		breakers = append(breakers, cb)
		return circuitbreaker.NewProtectedSink(sink, cb, logger)
	}

	switch cfg.JobTransport {
	case config.TransportSNS:
		if cfg.SNSTopicARN == "" {
			logger.Warn("SNS_TOPIC_ARN not set, no channel can be enqueued")
			return sinks, breakers, nil
		}
		client, err := sns.NewClient(ctx, cfg.AWSRegion, cfg.AWSEndpoint)
		if err != nil {
			return nil, nil, err
		}
		// One topic fans out to the per-channel queues through filter policies.
		sink := protect("sink-sns", sns.NewPublisher(client, cfg.SNSTopicARN, logger))
		sinks[model.ChannelEmail] = sink
		sinks[model.ChannelUI] = sink

	case config.TransportSQS:
		queues := map[model.Channel]string{
			model.ChannelEmail: cfg.SQSEmailQueueURL,
			model.ChannelUI:    cfg.SQSUIQueueURL,
		}

		var client sqs.API
		for _, ch := range model.Channels() {
			url, ok := queues[ch]
			if !ok {
				continue
			}
			if url == "" {
				logger.Warn("no queue configured for channel", zap.String("channel", ch.String()))
				continue
			}
			if client == nil {
				c, err := sqs.NewClient(ctx, sqs.Config{Region: cfg.SQSRegion, Endpoint: cfg.AWSEndpoint})
				if err != nil {
					return nil, nil, err
				}
				client = c
			}
			sinks[ch] = protect("sink-"+ch.String(), sqs.NewProducer(client, url, logger))
		}

	default:
		return nil, nil, fmt.Errorf("unknown job transport: %s", cfg.JobTransport)
	}

	for ch := range sinks {
		logger.Info("job sink ready", zap.String("channel", ch.String()), zap.String("transport", cfg.JobTransport))
	}
	return sinks, breakers, nil
}
