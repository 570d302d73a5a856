package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// DefaultIdempotencyTTL is how long a replayable dispatch response is kept.
	DefaultIdempotencyTTL = 24 * time.Hour

	// processingTTL bounds how long a crashed request can hold a key.
	processingTTL = 5 * time.Minute

	processingMarker = "processing"
)

// ErrDuplicateRequest means another request with the same key is still in flight.
var ErrDuplicateRequest = errors.New("duplicate request: idempotency key is being processed")

// IdempotencyResult is a cached dispatch response, replayed verbatim.
type IdempotencyResult struct {
	StatusCode int             `json:"status_code"`
	Body       json.RawMessage `json:"body"`
	CreatedAt  int64           `json:"created_at"`
}

// IdempotencyService stores dispatch responses under a client supplied
// Idempotency-Key so retried POSTs do not enqueue jobs twice.
type IdempotencyService struct {
	client *Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewIdempotencyService creates the service. A non-positive ttl falls back
// to DefaultIdempotencyTTL.
func NewIdempotencyService(client *Client, ttl time.Duration, logger *zap.Logger) *IdempotencyService {
	if ttl <= 0 {
		ttl = DefaultIdempotencyTTL
	}
	return &IdempotencyService{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

func (s *IdempotencyService) buildKey(clientID, idempotencyKey string) string {
	return fmt.Sprintf("courier:idempotency:%s:%s", clientID, idempotencyKey)
}

// Check returns (nil, nil) for an unknown key, the cached result for a
// completed one, and ErrDuplicateRequest while the key is reserved.
func (s *IdempotencyService) Check(ctx context.Context, clientID, idempotencyKey string) (*IdempotencyResult, error) {
	val, err := s.client.rdb.Get(ctx, s.buildKey(clientID, idempotencyKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get: %w", err)
	}

	if val == processingMarker {
		return nil, ErrDuplicateRequest
	}

	var result IdempotencyResult
	if err := json.Unmarshal([]byte(val), &result); err != nil {
		s.logger.Error("failed to unmarshal idempotency result", zap.Error(err))
		return nil, fmt.Errorf("invalid cached result: %w", err)
	}

	s.logger.Debug("idempotency cache hit",
		zap.String("client_id", clientID),
		zap.Int("status", result.StatusCode),
	)
	return &result, nil
}

// Store saves a finished response, replacing the reservation.
func (s *IdempotencyService) Store(ctx context.Context, clientID, idempotencyKey string, result *IdempotencyResult) error {
	if result.CreatedAt == 0 {
		result.CreatedAt = time.Now().Unix()
	}

	data, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	if err := s.client.rdb.Set(ctx, s.buildKey(clientID, idempotencyKey), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Reserve takes the key with SET NX. It reports false when the key exists.
func (s *IdempotencyService) Reserve(ctx context.Context, clientID, idempotencyKey string) (bool, error) {
	set, err := s.client.rdb.SetNX(ctx, s.buildKey(clientID, idempotencyKey), processingMarker, processingTTL).Result()
	if err != nil {
		return false, fmt.Errorf("redis setnx: %w", err)
	}
	return set, nil
}

// Release drops a reservation so the request can be retried. A stored
// result is left untouched.
func (s *IdempotencyService) Release(ctx context.Context, clientID, idempotencyKey string) error {
	key := s.buildKey(clientID, idempotencyKey)
	val, err := s.client.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis get: %w", err)
	}
	if val != processingMarker {
		return nil
	}
	if err := s.client.rdb.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis del: %w", err)
	}
	return nil
}

// CheckOrReserve returns the cached result if there is one, or reserves
// the key and returns (nil, nil).
func (s *IdempotencyService) CheckOrReserve(ctx context.Context, clientID, idempotencyKey string) (*IdempotencyResult, error) {
	result, err := s.Check(ctx, clientID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if result != nil {
		return result, nil
	}

	reserved, err := s.Reserve(ctx, clientID, idempotencyKey)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, ErrDuplicateRequest
	}
	return nil, nil
}
