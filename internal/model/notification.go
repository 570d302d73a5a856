package model

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// NotificationLog is the append-only record a channel worker writes after
// it has processed a delivery job. Content is fully rendered.
type NotificationLog struct {
	ID               uuid.UUID `json:"id"`
	NotificationName string    `json:"notificationName"`
	Subject          string    `json:"subject"`
	Content          string    `json:"content"`
	UserID           string    `json:"userId"`
	Channel          Channel   `json:"notificationChannel"`
	CreatedAt        time.Time `json:"createdAt"`
	UpdatedAt        time.Time `json:"updatedAt"`
}

// LogParams is the input to NewNotificationLog.
type LogParams struct {
	ID               uuid.UUID
	NotificationName string
	Subject          string
	Content          string
	UserID           string
	Channel          Channel
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// NewNotificationLog validates p. Subject may be empty since some channels
// have none.
func NewNotificationLog(p LogParams) (*NotificationLog, error) {
	if strings.TrimSpace(p.NotificationName) == "" {
		return nil, Invalid("Notification name is required")
	}
	if strings.TrimSpace(p.Content) == "" {
		return nil, Invalid("Content is required")
	}
	if strings.TrimSpace(p.UserID) == "" {
		return nil, Invalid("User ID is required")
	}
	if p.Channel == "" {
		return nil, Invalid("Notification channel is required")
	}
	if !p.Channel.Valid() {
		return nil, Invalid("Invalid channel type: %s", p.Channel)
	}

	id := p.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	now := time.Now().UTC()
	created, updated := p.CreatedAt, p.UpdatedAt
	if created.IsZero() {
		created = now
	}
	if updated.IsZero() {
		updated = created
	}

	return &NotificationLog{
		ID:               id,
		NotificationName: p.NotificationName,
		Subject:          p.Subject,
		Content:          p.Content,
		UserID:           p.UserID,
		Channel:          p.Channel,
		CreatedAt:        created,
		UpdatedAt:        updated,
	}, nil
}

// Page is one page of notification logs.
type Page struct {
	Items      []*NotificationLog `json:"notifications"`
	Page       int                `json:"page"`
	Limit      int                `json:"limit"`
	Total      int64              `json:"total"`
	TotalPages int                `json:"totalPages"`
}

// MaxPageLimit bounds the page size of log listings.
const MaxPageLimit = 100

// ValidatePage checks listing arguments.
func ValidatePage(userID string, page, limit int) error {
	if strings.TrimSpace(userID) == "" {
		return Invalid("User ID is required")
	}
	if page < 1 {
		return Invalid("Page must be greater than 0")
	}
	if limit < 1 || limit > MaxPageLimit {
		return Invalid("Limit must be between 1 and %d", MaxPageLimit)
	}
	return nil
}

// TotalPages is ceil(total/limit).
func TotalPages(total int64, limit int) int {
	if limit <= 0 {
		return 0
	}
	return int((total + int64(limit) - 1) / int64(limit))
}
