// Package profile looks up recipient details used to fill templates.
package profile

import (
	"context"
	"fmt"
	"sync"

	"github.com/lalithlochan/courier/internal/model"
)

// User is a recipient profile.
type User struct {
	ID          string
	Email       string
	FirstName   string
	LastName    string
	CompanyName string
	Phone       string
}

// FullName joins first and last name.
func (u User) FullName() string {
	return u.FirstName + " " + u.LastName
}

// Context converts the profile to template placeholders.
func (u User) Context() model.RecipientContext {
	ctx := model.RecipientContext{
		"id":          u.ID,
		"email":       u.Email,
		"firstName":   u.FirstName,
		"lastName":    u.LastName,
		"fullName":    u.FullName(),
		"companyName": u.CompanyName,
	}
	if u.Phone != "" {
		ctx["phone"] = u.Phone
	}
	return ctx
}

// Unknown is the placeholder profile returned for ids with no record.
func Unknown(id string) User {
	return User{
		ID:          id,
		Email:       fmt.Sprintf("user-%s@example.com", id),
		FirstName:   "Unknown",
		LastName:    "User",
		CompanyName: "Unknown Company",
	}
}

// Directory is an in-memory profile source. Lookups never fail.
type Directory struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewDirectory creates a directory holding users.
func NewDirectory(users ...User) *Directory {
	d := &Directory{users: make(map[string]User, len(users))}
	for _, u := range users {
		d.users[u.ID] = u
	}
	return d
}

// NewDemoDirectory returns the directory with the demo users loaded.
func NewDemoDirectory() *Directory {
	return NewDirectory(
		User{ID: "user-001", Email: "john.doe@techcorp.com", FirstName: "John", LastName: "Doe", CompanyName: "TechCorp Solutions", Phone: "+1-555-0123"},
		User{ID: "user-002", Email: "sarah.smith@innovatetech.com", FirstName: "Sarah", LastName: "Smith", CompanyName: "InnovateTech Ltd", Phone: "+1-555-0456"},
		User{ID: "user-003", Email: "mike.johnson@globaltech.com", FirstName: "Mike", LastName: "Johnson", CompanyName: "GlobalTech Industries", Phone: "+1-555-0789"},
	)
}

// Put adds or replaces a profile.
func (d *Directory) Put(u User) {
	d.mu.Lock()
	d.users[u.ID] = u
	d.mu.Unlock()
}

// User returns the profile for id, or the placeholder profile.
func (d *Directory) User(_ context.Context, id string) (User, error) {
	d.mu.RLock()
	u, ok := d.users[id]
	d.mu.RUnlock()
	if !ok {
		return Unknown(id), nil
	}
	return u, nil
}

// RecipientContext implements the dispatcher's profile lookup.
func (d *Directory) RecipientContext(ctx context.Context, userID string) (model.RecipientContext, error) {
	u, err := d.User(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Context(), nil
}
