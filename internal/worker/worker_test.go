package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/jobs"
	"github.com/lalithlochan/courier/internal/model"
	"github.com/lalithlochan/courier/internal/sqs"
)

type fakeQueue struct {
	mu         sync.Mutex
	batches    [][]sqs.Received
	deleted    []string
	visibility map[string]int32
}

func (q *fakeQueue) Receive(ctx context.Context, _ int32) ([]sqs.Received, error) {
	q.mu.Lock()
	if len(q.batches) > 0 {
		b := q.batches[0]
		q.batches = q.batches[1:]
		q.mu.Unlock()
		return b, nil
	}
	q.mu.Unlock()
	<-ctx.Done()
	return nil, ctx.Err()
}

func (q *fakeQueue) Delete(_ context.Context, handle string) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deleted = append(q.deleted, handle)
	return nil
}

func (q *fakeQueue) ChangeVisibility(_ context.Context, handle string, seconds int32) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.visibility == nil {
		q.visibility = make(map[string]int32)
	}
	q.visibility[handle] = seconds
	return nil
}

type processorFunc func(ctx context.Context, env *jobs.Envelope) error

func (f processorFunc) Process(ctx context.Context, env *jobs.Envelope) error { return f(ctx, env) }

func message(t *testing.T, handle string, receiveCount int) sqs.Received {
	t.Helper()
	job, err := jobs.NewJob(model.ChannelEmail, jobs.KindSendEmail, jobs.Payload{
		NotificationName: "monthly-payslip",
		Subject:          "Payslip",
		Content:          "Your payslip is ready",
		UserID:           "user-001",
	}, jobs.DefaultOptions())
	if err != nil {
		t.Fatalf("build job: %v", err)
	}
	return sqs.Received{MessageID: "m-" + handle, ReceiptHandle: handle, Body: job.Body(), ReceiveCount: receiveCount}
}

func TestWorker_Handle(t *testing.T) {
	failing := processorFunc(func(context.Context, *jobs.Envelope) error { return errors.New("smtp down") })
	ok := processorFunc(func(context.Context, *jobs.Envelope) error { return nil })

	tests := []struct {
		name           string
		processor      Processor
		msg            func(t *testing.T) sqs.Received
		wantDeleted    bool
		wantVisibility int32
	}{
		{
			name:        "success deletes",
			processor:   ok,
			msg:         func(t *testing.T) sqs.Received { return message(t, "h", 1) },
			wantDeleted: true,
		},
		{
			name:           "first failure backs off 2s",
			processor:      failing,
			msg:            func(t *testing.T) sqs.Received { return message(t, "h", 1) },
			wantVisibility: 2,
		},
		{
			name:           "second failure backs off 4s",
			processor:      failing,
			msg:            func(t *testing.T) sqs.Received { return message(t, "h", 2) },
			wantVisibility: 4,
		},
		{
			name:        "last attempt deletes",
			processor:   failing,
			msg:         func(t *testing.T) sqs.Received { return message(t, "h", 3) },
			wantDeleted: true,
		},
		{
			name:      "malformed body deletes",
			processor: ok,
			msg: func(*testing.T) sqs.Received {
				return sqs.Received{ReceiptHandle: "h", Body: []byte("{"), ReceiveCount: 1}
			},
			wantDeleted: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q := &fakeQueue{}
			w := New(model.ChannelEmail, q, tt.processor, Config{}, zap.NewNop())

			w.handle(context.Background(), tt.msg(t))

			if got := len(q.deleted) == 1; got != tt.wantDeleted {
				t.Errorf("deleted = %v, want %v", q.deleted, tt.wantDeleted)
			}
			if got := q.visibility["h"]; got != tt.wantVisibility {
				t.Errorf("visibility = %d, want %d", got, tt.wantVisibility)
			}
		})
	}
}

func TestWorker_StartProcessesUntilCancelled(t *testing.T) {
	q := &fakeQueue{batches: [][]sqs.Received{{message(t, "a", 1), message(t, "b", 1)}}}

	var (
		mu   sync.Mutex
		seen []string
	)
	p := processorFunc(func(_ context.Context, env *jobs.Envelope) error {
		mu.Lock()
		defer mu.Unlock()
		seen = append(seen, env.ID)
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	w := New(model.ChannelEmail, q, p, Config{ErrorBackoff: time.Millisecond}, zap.NewNop())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for {
		q.mu.Lock()
		n := len(q.deleted)
		q.mu.Unlock()
		if n == 2 {
			break
		}
		select {
		case <-deadline:
			t.Fatal("messages were not processed")
		case <-time.After(5 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("worker did not stop")
	}

	if len(seen) != 2 {
		t.Errorf("processed %d jobs", len(seen))
	}
}

func TestVisibilitySeconds(t *testing.T) {
	if got := visibilitySeconds(1500 * time.Millisecond); got != 2 {
		t.Errorf("got %d", got)
	}
	if got := visibilitySeconds(24 * time.Hour); got != 43200 {
		t.Errorf("got %d", got)
	}
}
