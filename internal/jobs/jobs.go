// Package jobs defines the delivery job handed from the dispatcher to the
// channel workers, and the Sink abstraction that transports it.
package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/lalithlochan/courier/internal/model"
)

// Kind names the handler a worker runs for a job.
type Kind string

const (
	KindSendEmail Kind = "send-email"
	KindSendUI    Kind = "send-ui"
)

// Payload is what a worker needs to deliver and log one notification.
type Payload struct {
	NotificationName string `json:"notificationName"`
	Subject          string `json:"subject"`
	Content          string `json:"content"`
	UserID           string `json:"userId"`
}

// BackoffExponential doubles the delay on every attempt.
const BackoffExponential = "exponential"

// BackoffFixed keeps the delay constant.
const BackoffFixed = "fixed"

// Backoff describes the wait between attempts.
type Backoff struct {
	Type  string
	Delay time.Duration
}

// Options is the retry contract carried with each job. On the wire delays
// are integer milliseconds.
type Options struct {
	Delay    time.Duration
	Attempts int
	Backoff  Backoff
}

type optionsJSON struct {
	Delay    int64 `json:"delay"`
	Attempts int   `json:"attempts"`
	Backoff  struct {
		Type  string `json:"type"`
		Delay int64  `json:"delay"`
	} `json:"backoff"`
}

func (o Options) MarshalJSON() ([]byte, error) {
	var w optionsJSON
	w.Delay = o.Delay.Milliseconds()
	w.Attempts = o.Attempts
	w.Backoff.Type = o.Backoff.Type
	w.Backoff.Delay = o.Backoff.Delay.Milliseconds()
	return json.Marshal(w)
}

func (o *Options) UnmarshalJSON(data []byte) error {
	var w optionsJSON
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	o.Delay = time.Duration(w.Delay) * time.Millisecond
	o.Attempts = w.Attempts
	o.Backoff = Backoff{Type: w.Backoff.Type, Delay: time.Duration(w.Backoff.Delay) * time.Millisecond}
	return nil
}

// DefaultOptions is the retry policy used for every dispatched job.
func DefaultOptions() Options {
	return Options{
		Delay:    0,
		Attempts: 3,
		Backoff:  Backoff{Type: BackoffExponential, Delay: 2000 * time.Millisecond},
	}
}

// BackoffFor returns the wait before the retry following the given attempt
// (1-based).
func (o Options) BackoffFor(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	if o.Backoff.Type != BackoffExponential {
		return o.Backoff.Delay
	}
	d := o.Backoff.Delay
	for i := 1; i < attempt; i++ {
		d *= 2
	}
	return d
}

// Envelope is the wire format of a job.
type Envelope struct {
	ID         string        `json:"id"`
	Kind       Kind          `json:"kind"`
	Channel    model.Channel `json:"channel"`
	Payload    Payload       `json:"payload"`
	Options    Options       `json:"options"`
	EnqueuedAt int64         `json:"enqueued_at"`
}

// Job is a validated, serialized envelope ready for a sink.
type Job struct {
	envelope Envelope
	body     []byte
}

var ErrInvalidJob = errors.New("invalid job")

// NewJob validates the payload and options and serializes the envelope.
// Content and user id may be empty: a template channel without a body and a
// company-wide dispatch both still produce a job.
func NewJob(channel model.Channel, kind Kind, payload Payload, opts Options) (*Job, error) {
	switch {
	case kind == "":
		return nil, fmt.Errorf("%w: job kind is required", ErrInvalidJob)
	case strings.TrimSpace(payload.NotificationName) == "":
		return nil, fmt.Errorf("%w: notification name is required", ErrInvalidJob)
	case opts.Attempts < 1:
		return nil, fmt.Errorf("%w: attempts must be at least 1", ErrInvalidJob)
	}

	env := Envelope{
		ID:         uuid.NewString(),
		Kind:       kind,
		Channel:    channel,
		Payload:    payload,
		Options:    opts,
		EnqueuedAt: time.Now().UnixNano(),
	}
	body, err := json.Marshal(env)
	if err != nil {
		return nil, fmt.Errorf("marshal job: %w", err)
	}
	return &Job{envelope: env, body: body}, nil
}

func (j *Job) ID() string             { return j.envelope.ID }
func (j *Job) Kind() Kind             { return j.envelope.Kind }
func (j *Job) Channel() model.Channel { return j.envelope.Channel }
func (j *Job) Payload() Payload       { return j.envelope.Payload }
func (j *Job) Options() Options       { return j.envelope.Options }

// Body is the serialized envelope.
func (j *Job) Body() []byte { return j.body }

// Decode parses a serialized envelope.
func Decode(body []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}
	if env.Kind == "" {
		return nil, fmt.Errorf("%w: missing kind", ErrInvalidJob)
	}
	return &env, nil
}

// Sink accepts jobs for asynchronous delivery and returns a transport id.
type Sink interface {
	Enqueue(ctx context.Context, job *Job) (string, error)
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, job *Job) (string, error)

func (f SinkFunc) Enqueue(ctx context.Context, job *Job) (string, error) { return f(ctx, job) }
