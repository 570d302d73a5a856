package sns

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/jobs"
)

// API is the subset of the SNS client used here.
type API interface {
	Publish(ctx context.Context, in *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// Publisher fans jobs out through one topic. Per-channel queues subscribe
// with a filter policy on the channel attribute.
type Publisher struct {
	client   API
	topicARN string
	logger   *zap.Logger
}

// NewClient builds an SNS client. A non-empty endpoint overrides the service
// endpoint (LocalStack).
func NewClient(ctx context.Context, region, endpoint string) (*sns.Client, error) {
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return sns.NewFromConfig(cfg, func(o *sns.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	}), nil
}

// NewPublisher creates a publisher for topicARN.
func NewPublisher(client API, topicARN string, logger *zap.Logger) *Publisher {
	return &Publisher{client: client, topicARN: topicARN, logger: logger}
}

// Enqueue publishes the job envelope with routing attributes.
func (p *Publisher) Enqueue(ctx context.Context, job *jobs.Job) (string, error) {
	input := &sns.PublishInput{
		TopicArn: aws.String(p.topicARN),
		Message:  aws.String(string(job.Body())),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"channel": {
				DataType:    aws.String("String"),
				StringValue: aws.String(job.Channel().String()),
			},
			"job_kind": {
				DataType:    aws.String("String"),
				StringValue: aws.String(string(job.Kind())),
			},
		},
	}

	result, err := p.client.Publish(ctx, input)
	if err != nil {
		p.logger.Error("failed to publish job",
			zap.Error(err),
			zap.String("job_id", job.ID()),
			zap.String("channel", job.Channel().String()),
		)
		return "", fmt.Errorf("failed to publish to SNS: %w", err)
	}

	return aws.ToString(result.MessageId), nil
}
