package sns

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/jobs"
	"github.com/lalithlochan/courier/internal/model"
)

type fakeAPI struct {
	err       error
	published []*sns.PublishInput
}

func (f *fakeAPI) Publish(_ context.Context, in *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.published = append(f.published, in)
	return &sns.PublishOutput{MessageId: aws.String("sns-1")}, nil
}

func emailJob(t *testing.T) *jobs.Job {
	t.Helper()
	job, err := jobs.NewJob(model.ChannelEmail, jobs.KindSendEmail, jobs.Payload{
		NotificationName: "happy-birthday",
		Subject:          "Happy Birthday, John!",
		Content:          "Have a great day",
		UserID:           "user-001",
	}, jobs.DefaultOptions())
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	return job
}

func TestPublisher_Enqueue(t *testing.T) {
	api := &fakeAPI{}
	p := NewPublisher(api, "arn:aws:sns:us-east-1:000000000000:jobs", zap.NewNop())
	job := emailJob(t)

	id, err := p.Enqueue(context.Background(), job)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if id != "sns-1" {
		t.Errorf("id = %s", id)
	}

	in := api.published[0]
	if aws.ToString(in.Message) != string(job.Body()) {
		t.Error("message should be the job envelope")
	}
	tests := map[string]string{"channel": "email", "job_kind": "send-email"}
	for attr, want := range tests {
		if got := aws.ToString(in.MessageAttributes[attr].StringValue); got != want {
			t.Errorf("%s = %s, want %s", attr, got, want)
		}
	}
}

func TestPublisher_EnqueueError(t *testing.T) {
	api := &fakeAPI{err: errors.New("topic not found")}
	p := NewPublisher(api, "arn", zap.NewNop())

	if _, err := p.Enqueue(context.Background(), emailJob(t)); !errors.Is(err, api.err) {
		t.Fatalf("expected wrapped transport error, got %v", err)
	}
}
