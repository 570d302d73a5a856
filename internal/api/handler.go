package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/lalithlochan/courier/internal/dispatch"
	"github.com/lalithlochan/courier/internal/metrics"
	"github.com/lalithlochan/courier/internal/model"
	"github.com/lalithlochan/courier/internal/redis"
	"github.com/lalithlochan/courier/internal/store"
	"github.com/lalithlochan/courier/internal/subscription"
)

// Dispatcher runs one dispatch request.
type Dispatcher interface {
	Dispatch(ctx context.Context, req dispatch.Request) (*dispatch.Outcome, error)
}

// ChannelResolver exposes the matcher for diagnostics.
type ChannelResolver interface {
	ResolveEligibleChannels(ctx context.Context, userID, companyID string) ([]subscription.ChannelGroup, error)
}

// TemplateReader loads templates by name.
type TemplateReader interface {
	FindTemplateByName(ctx context.Context, name string) (*model.NotificationTemplate, error)
}

// Idempotency caches dispatch responses by client and key.
type Idempotency interface {
	CheckOrReserve(ctx context.Context, clientID, key string) (*redis.IdempotencyResult, error)
	Store(ctx context.Context, clientID, key string, result *redis.IdempotencyResult) error
	Release(ctx context.Context, clientID, key string) error
}

// DispatchRequest is the body of POST /v1/notifications.
type DispatchRequest struct {
	UserID           string            `json:"user_id"`
	CompanyID        string            `json:"company_id,omitempty"`
	NotificationName string            `json:"notification_name"`
	TemplateData     map[string]string `json:"template_data,omitempty"`
}

// ChannelsResponse is returned by GET /v1/channels.
type ChannelsResponse struct {
	Groups []subscription.ChannelGroup `json:"groups"`
	Active []model.Channel             `json:"active"`
}

// ErrorResponse represents an error in problem+json format
type ErrorResponse struct {
	Type   string `json:"type"`
	Title  string `json:"title"`
	Status int    `json:"status"`
	Detail string `json:"detail,omitempty"`
}

const (
	defaultPage  = 1
	defaultLimit = 10
)

// Handler holds dependencies for API handlers
type Handler struct {
	logger      *zap.Logger
	dispatcher  Dispatcher
	channels    ChannelResolver
	templates   TemplateReader
	logs        store.LogReader
	idempotency Idempotency // nil if Redis not configured
}

// NewHandler creates a new API handler
func NewHandler(logger *zap.Logger, dispatcher Dispatcher, channels ChannelResolver, templates TemplateReader, logs store.LogReader) *Handler {
	return &Handler{
		logger:     logger,
		dispatcher: dispatcher,
		channels:   channels,
		templates:  templates,
		logs:       logs,
	}
}

// WithIdempotency enables Idempotency-Key handling on dispatch.
func (h *Handler) WithIdempotency(idempotency Idempotency) *Handler {
	h.idempotency = idempotency
	return h
}

// CreateNotification handles POST /v1/notifications.
// A successful dispatch answers 202, a dispatch that produced no jobs or
// reported errors answers 422. Both carry the outcome as the body.
func (h *Handler) CreateNotification(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var req DispatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Malformed JSON body", err.Error())
		return
	}

	req.UserID = strings.TrimSpace(req.UserID)
	req.CompanyID = strings.TrimSpace(req.CompanyID)
	req.NotificationName = strings.TrimSpace(req.NotificationName)
	if req.UserID == "" || req.NotificationName == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing required fields", "user_id and notification_name are required")
		return
	}

	clientID := ClientID(r)
	idempotencyKey := r.Header.Get("Idempotency-Key")
	reserved := false

	if idempotencyKey != "" && h.idempotency != nil {
		cached, err := h.idempotency.CheckOrReserve(ctx, clientID, idempotencyKey)
		switch {
		case errors.Is(err, redis.ErrDuplicateRequest):
			h.writeError(w, http.StatusConflict, "duplicate_request",
				"Request is already being processed",
				"Another request with this idempotency key is in progress")
			return
		case err != nil:
			h.logger.Warn("idempotency check failed, proceeding",
				zap.Error(err),
				zap.String("idempotency_key", idempotencyKey),
			)
		case cached != nil:
			metrics.RecordIdempotencyHit()
			w.Header().Set("Content-Type", "application/json")
			w.Header().Set("X-Idempotency-Replayed", "true")
			w.WriteHeader(cached.StatusCode)
			_, _ = w.Write(cached.Body)
			return
		default:
			reserved = true
		}
	}

	outcome, err := h.dispatcher.Dispatch(ctx, dispatch.Request{
		UserID:           req.UserID,
		CompanyID:        req.CompanyID,
		NotificationName: req.NotificationName,
		TemplateData:     req.TemplateData,
	})
	if err != nil {
		if reserved {
			h.release(ctx, clientID, idempotencyKey)
		}
		if errors.Is(err, model.ErrValidation) {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid request", err.Error())
			return
		}
		h.logger.Error("dispatch failed", zap.Error(err), zap.String("user_id", req.UserID))
		h.writeError(w, http.StatusInternalServerError, "dispatch_error", "Failed to dispatch notification", "")
		return
	}

	status := http.StatusAccepted
	if !outcome.Success {
		status = http.StatusUnprocessableEntity
	}

	body, err := json.Marshal(outcome)
	if err != nil {
		if reserved {
			h.release(ctx, clientID, idempotencyKey)
		}
		h.writeError(w, http.StatusInternalServerError, "internal_error", "Failed to encode outcome", "")
		return
	}

	h.logger.Info("notification dispatched",
		zap.String("user_id", req.UserID),
		zap.String("company_id", req.CompanyID),
		zap.String("notification_name", req.NotificationName),
		zap.Bool("success", outcome.Success),
		zap.Int("jobs", outcome.TotalJobsCreated),
	)

	if reserved {
		if err := h.idempotency.Store(ctx, clientID, idempotencyKey, &redis.IdempotencyResult{
			StatusCode: status,
			Body:       body,
		}); err != nil {
			h.logger.Warn("failed to store idempotency result",
				zap.Error(err),
				zap.String("idempotency_key", idempotencyKey),
			)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

func (h *Handler) release(ctx context.Context, clientID, key string) {
	if err := h.idempotency.Release(ctx, clientID, key); err != nil {
		h.logger.Warn("failed to release idempotency key", zap.Error(err), zap.String("idempotency_key", key))
	}
}

// ListNotifications handles GET /v1/notifications?channel=&user_id=&page=&limit=
func (h *Handler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	raw := r.URL.Query().Get("channel")
	if raw == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Missing channel", "channel query parameter is required")
		return
	}
	channel, err := model.ParseChannel(raw)
	if err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid channel", err.Error())
		return
	}
	h.listNotifications(w, r, channel)
}

// ListUINotifications handles GET /v1/notifications/ui?user_id=&page=&limit=
func (h *Handler) ListUINotifications(w http.ResponseWriter, r *http.Request) {
	h.listNotifications(w, r, model.ChannelUI)
}

func (h *Handler) listNotifications(w http.ResponseWriter, r *http.Request, channel model.Channel) {
	q := r.URL.Query()
	userID := q.Get("user_id")

	page, ok := intParam(q.Get("page"), defaultPage)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid page", "page must be an integer")
		return
	}
	limit, ok := intParam(q.Get("limit"), defaultLimit)
	if !ok {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid limit", "limit must be an integer")
		return
	}

	result, err := store.ListNotifications(r.Context(), h.logs, channel, userID, page, limit)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid query", err.Error())
			return
		}
		h.logger.Error("failed to list notifications",
			zap.Error(err),
			zap.String("user_id", userID),
			zap.String("channel", channel.String()),
		)
		h.writeError(w, http.StatusInternalServerError, "database_error", "Failed to list notifications", "")
		return
	}

	h.writeJSON(w, http.StatusOK, result)
}

// ListChannels handles GET /v1/channels?user_id=&company_id=
func (h *Handler) ListChannels(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	groups, err := h.channels.ResolveEligibleChannels(r.Context(), q.Get("user_id"), q.Get("company_id"))
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			h.writeError(w, http.StatusBadRequest, "invalid_request", "Invalid query", err.Error())
			return
		}
		h.logger.Error("failed to resolve channels", zap.Error(err))
		h.writeError(w, http.StatusInternalServerError, "database_error", "Failed to resolve channels", "")
		return
	}

	if groups == nil {
		groups = []subscription.ChannelGroup{}
	}
	active := subscription.ActiveChannels(groups)
	if active == nil {
		active = []model.Channel{}
	}
	h.writeJSON(w, http.StatusOK, ChannelsResponse{Groups: groups, Active: active})
}

// GetTemplate handles GET /v1/templates/{name}
func (h *Handler) GetTemplate(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")

	tmpl, err := h.templates.FindTemplateByName(r.Context(), name)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			h.writeError(w, http.StatusNotFound, "not_found", "Template not found", "")
			return
		}
		h.logger.Error("failed to get template", zap.Error(err), zap.String("name", name))
		h.writeError(w, http.StatusInternalServerError, "database_error", "Failed to load template", "")
		return
	}

	h.writeJSON(w, http.StatusOK, tmpl)
}

func intParam(raw string, def int) (int, bool) {
	if raw == "" {
		return def, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, false
	}
	return n, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Warn("failed to write response", zap.Error(err))
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, errType, title, detail string) {
	w.Header().Set("Content-Type", "application/problem+json")
	w.WriteHeader(status)

	_ = json.NewEncoder(w).Encode(ErrorResponse{
		Type:   errType,
		Title:  title,
		Status: status,
		Detail: detail,
	})
}
