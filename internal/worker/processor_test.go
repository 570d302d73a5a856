package worker

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/jobs"
	"github.com/lalithlochan/courier/internal/model"
	"github.com/lalithlochan/courier/internal/profile"
)

type memLogs struct {
	err  error
	logs []*model.NotificationLog
}

func (m *memLogs) CreateNotificationLog(_ context.Context, l *model.NotificationLog) error {
	if m.err != nil {
		return m.err
	}
	m.logs = append(m.logs, l)
	return nil
}

type captureDeliverer struct {
	err  error
	sent []Email
}

func (c *captureDeliverer) Deliver(_ context.Context, msg Email) error {
	if c.err != nil {
		return c.err
	}
	c.sent = append(c.sent, msg)
	return nil
}

func envelope(kind jobs.Kind, subject string) *jobs.Envelope {
	return &jobs.Envelope{
		ID:   "job-1",
		Kind: kind,
		Payload: jobs.Payload{
			NotificationName: "happy-birthday",
			Subject:          subject,
			Content:          "Happy birthday John",
			UserID:           "user-001",
		},
		Options: jobs.DefaultOptions(),
	}
}

func TestEmailProcessor_DeliversAndLogs(t *testing.T) {
	d := &captureDeliverer{}
	logs := &memLogs{}
	p := NewEmailProcessor(d, profile.NewDemoDirectory(), logs, zap.NewNop())

	if err := p.Process(context.Background(), envelope(jobs.KindSendEmail, "Happy Birthday!")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(d.sent) != 1 || d.sent[0].To != "john.doe@techcorp.com" {
		t.Fatalf("sent = %+v", d.sent)
	}
	if len(logs.logs) != 1 {
		t.Fatalf("logs = %d", len(logs.logs))
	}
	l := logs.logs[0]
	if l.Channel != model.ChannelEmail || l.Subject != "Happy Birthday!" || l.UserID != "user-001" {
		t.Errorf("log = %+v", l)
	}
}

func TestEmailProcessor_DeliveryFailureIsRetryable(t *testing.T) {
	d := &captureDeliverer{err: errors.New("throttled")}
	logs := &memLogs{}
	p := NewEmailProcessor(d, profile.NewDemoDirectory(), logs, zap.NewNop())

	err := p.Process(context.Background(), envelope(jobs.KindSendEmail, "s"))
	if !errors.Is(err, d.err) {
		t.Fatalf("expected delivery error, got %v", err)
	}
	if len(logs.logs) != 0 {
		t.Error("no log should be written when delivery fails")
	}
}

func TestProcessors_LogFailureDoesNotFailJob(t *testing.T) {
	logs := &memLogs{err: errors.New("db down")}
	processors := map[string]Processor{
		"email": NewEmailProcessor(&captureDeliverer{}, profile.NewDemoDirectory(), logs, zap.NewNop()),
		"ui":    NewUIProcessor(logs, zap.NewNop()),
	}
	for name, p := range processors {
		if err := p.Process(context.Background(), envelope(jobs.KindSendEmail, "s")); err != nil {
			t.Errorf("%s: unexpected error %v", name, err)
		}
	}
}

func TestUIProcessor_DropsSubject(t *testing.T) {
	logs := &memLogs{}
	p := NewUIProcessor(logs, zap.NewNop())

	if err := p.Process(context.Background(), envelope(jobs.KindSendUI, "ignored")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(logs.logs) != 1 {
		t.Fatalf("logs = %d", len(logs.logs))
	}
	if logs.logs[0].Subject != "" || logs.logs[0].Channel != model.ChannelUI {
		t.Errorf("log = %+v", logs.logs[0])
	}
}

func TestRouter(t *testing.T) {
	logs := &memLogs{}
	r := NewRouter(zap.NewNop()).Handle(jobs.KindSendUI, NewUIProcessor(logs, zap.NewNop()))

	if err := r.Process(context.Background(), envelope(jobs.KindSendUI, "")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := r.Process(context.Background(), envelope(jobs.KindSendEmail, "")); err == nil {
		t.Fatal("expected error for unregistered kind")
	}
}

type fakeSES struct {
	in *ses.SendEmailInput
}

func (f *fakeSES) SendEmail(_ context.Context, in *ses.SendEmailInput, _ ...func(*ses.Options)) (*ses.SendEmailOutput, error) {
	f.in = in
	return &ses.SendEmailOutput{MessageId: aws.String("ses-1")}, nil
}

func TestSESDeliverer(t *testing.T) {
	api := &fakeSES{}
	d := NewSESDeliverer(api, "noreply@courier.dev", zap.NewNop())

	if err := d.Deliver(context.Background(), Email{}); err == nil {
		t.Fatal("expected error for missing recipient")
	}

	err := d.Deliver(context.Background(), Email{To: "a@b.c", Subject: "Hi", Body: "Body"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if aws.ToString(api.in.Source) != "noreply@courier.dev" {
		t.Errorf("source = %s", aws.ToString(api.in.Source))
	}
	if api.in.Destination.ToAddresses[0] != "a@b.c" {
		t.Errorf("to = %v", api.in.Destination.ToAddresses)
	}
	if aws.ToString(api.in.Message.Body.Text.Data) != "Body" {
		t.Error("body mismatch")
	}
}

func TestLogDeliverer(t *testing.T) {
	if err := NewLogDeliverer(zap.NewNop()).Deliver(context.Background(), Email{To: "x"}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
