package circuitbreaker

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/jobs"
)

// ProtectedSink wraps a job sink with a breaker. While open, Enqueue fails
// with ErrCircuitOpen without touching the transport.
type ProtectedSink struct {
	sink    jobs.Sink
	breaker *CircuitBreaker
	logger  *zap.Logger
}

// NewProtectedSink wraps sink with breaker.
func NewProtectedSink(sink jobs.Sink, breaker *CircuitBreaker, logger *zap.Logger) *ProtectedSink {
	return &ProtectedSink{sink: sink, breaker: breaker, logger: logger}
}

func (p *ProtectedSink) Enqueue(ctx context.Context, job *jobs.Job) (string, error) {
	if !p.breaker.Allow() {
		p.logger.Warn("circuit breaker rejected enqueue",
			zap.String("breaker", p.breaker.Name()),
			zap.String("job_id", job.ID()),
			zap.String("channel", job.Channel().String()),
		)
		return "", fmt.Errorf("%w: %s", ErrCircuitOpen, p.breaker.Name())
	}

	defer func() {
		if r := recover(); r != nil {
			p.breaker.RecordFailure()
			panic(r)
		}
	}()

	id, err := p.sink.Enqueue(ctx, job)
	if err != nil {
		// A cancelled caller says nothing about the transport.
		if ctx.Err() != nil {
			p.breaker.Release()
			return "", err
		}
		p.breaker.RecordFailure()
		return "", err
	}
	p.breaker.RecordSuccess()
	return id, nil
}

// Breaker returns the underlying breaker.
func (p *ProtectedSink) Breaker() *CircuitBreaker {
	return p.breaker
}
