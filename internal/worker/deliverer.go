package worker

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
	"go.uber.org/zap"
)

// Email is a rendered message ready for transport.
type Email struct {
	To      string
	Subject string
	Body    string
}

// Deliverer hands an email to a mail transport.
type Deliverer interface {
	Deliver(ctx context.Context, msg Email) error
}

// LogDeliverer writes emails to the log instead of sending them.
type LogDeliverer struct {
	logger *zap.Logger
}

func NewLogDeliverer(logger *zap.Logger) *LogDeliverer {
	return &LogDeliverer{logger: logger}
}

func (d *LogDeliverer) Deliver(_ context.Context, msg Email) error {
	d.logger.Info("email notification (log delivery)",
		zap.String("to", msg.To),
		zap.String("subject", msg.Subject),
		zap.String("content", msg.Body),
	)
	return nil
}

// SESAPI is the subset of the SES client used here.
type SESAPI interface {
	SendEmail(ctx context.Context, in *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type SESConfig struct {
	Region    string
	FromEmail string
	Endpoint  string
}

// NewSESClient loads AWS config for the region and builds an SES client.
func NewSESClient(ctx context.Context, cfg SESConfig) (*ses.Client, error) {
	awsCfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load default AWS config: %w", err)
	}
	return ses.NewFromConfig(awsCfg, func(o *ses.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// SESDeliverer sends plain-text email through Amazon SES.
type SESDeliverer struct {
	client SESAPI
	from   string
	logger *zap.Logger
}

func NewSESDeliverer(client SESAPI, from string, logger *zap.Logger) *SESDeliverer {
	return &SESDeliverer{client: client, from: from, logger: logger}
}

func (d *SESDeliverer) Deliver(ctx context.Context, msg Email) error {
	if msg.To == "" {
		return fmt.Errorf("email missing recipient")
	}
	if msg.Body == "" {
		return fmt.Errorf("email missing body")
	}

	input := &ses.SendEmailInput{
		Source: aws.String(d.from),
		Destination: &types.Destination{
			ToAddresses: []string{msg.To},
		},
		Message: &types.Message{
			Subject: &types.Content{
				Data:    aws.String(msg.Subject),
				Charset: aws.String("UTF-8"),
			},
			Body: &types.Body{
				Text: &types.Content{
					Data:    aws.String(msg.Body),
					Charset: aws.String("UTF-8"),
				},
			},
		},
	}

	result, err := d.client.SendEmail(ctx, input)
	if err != nil {
		return fmt.Errorf("ses send failed: %w", err)
	}

	d.logger.Info("email sent via SES",
		zap.String("to", msg.To),
		zap.String("message_id", aws.ToString(result.MessageId)),
	)
	return nil
}
