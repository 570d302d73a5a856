package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
)

func TestRecorders(t *testing.T) {
	RecordRequest("GET", "/test", 200, 100*time.Millisecond)
	RecordDispatch("success")
	RecordJobEnqueue("email", EnqueueOK)
	RecordJobEnqueue("ui", EnqueueRejected)
	RecordJobProcessed("delivered", "email")
	RecordJobLatency("ui", 200*time.Millisecond)
	AddMessagesInFlight("email", 1)
	AddMessagesInFlight("email", -1)
	RecordIdempotencyHit()
	RecordRateLimitRejection("client-1")
	SetBreakerState("sink-email", 1)
}

func TestHandler(t *testing.T) {
	RecordDispatch("failure")

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	Handler().ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("expected status 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "courier_dispatches_total") {
		t.Error("expected courier_dispatches_total in output")
	}
}

func TestMiddleware(t *testing.T) {
	innerCalled := false
	r := chi.NewRouter()
	r.Use(Middleware)
	r.Post("/v1/templates/{name}", func(w http.ResponseWriter, r *http.Request) {
		innerCalled = true
		w.WriteHeader(http.StatusCreated)
	})

	req := httptest.NewRequest("POST", "/v1/templates/x", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if !innerCalled {
		t.Error("inner handler should have been called")
	}
	if rec.Code != http.StatusCreated {
		t.Errorf("expected status 201, got %d", rec.Code)
	}
}

func TestResponseWriter_DefaultStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	rw.Write([]byte("test"))

	if rw.status != http.StatusOK {
		t.Errorf("expected default status 200, got %d", rw.status)
	}
}

func TestResponseWriter_ExplicitStatus(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := &responseWriter{ResponseWriter: rec, status: http.StatusOK}

	rw.WriteHeader(http.StatusNotFound)

	if rw.status != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", rw.status)
	}
}
