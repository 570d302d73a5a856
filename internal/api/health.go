package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/circuitbreaker"
)

// HealthCheck probes one dependency.
type HealthCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status   string                 `json:"status"`
	Checks   map[string]string      `json:"checks"`
	Breakers []circuitbreaker.Stats `json:"breakers"`
}

const healthTimeout = 2 * time.Second

// HealthHandler reports dependency health. A failed check answers 503; an
// open breaker only marks the gateway degraded.
func HealthHandler(checks []HealthCheck, breakers []*circuitbreaker.CircuitBreaker, logger *zap.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
		defer cancel()

		resp := HealthResponse{
			Status:   "ok",
			Checks:   make(map[string]string, len(checks)),
			Breakers: make([]circuitbreaker.Stats, 0, len(breakers)),
		}
		status := http.StatusOK

		for _, c := range checks {
			if err := c.Check(ctx); err != nil {
				logger.Warn("health check failed", zap.String("check", c.Name), zap.Error(err))
				resp.Checks[c.Name] = err.Error()
				resp.Status = "unavailable"
				status = http.StatusServiceUnavailable
				continue
			}
			resp.Checks[c.Name] = "ok"
		}

		for _, b := range breakers {
			s := b.Stats()
			if s.State != circuitbreaker.StateClosed.String() && resp.Status == "ok" {
				resp.Status = "degraded"
			}
			resp.Breakers = append(resp.Breakers, s)
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_ = json.NewEncoder(w).Encode(resp)
	}
}
