// Package store persists visitor, analytics and contact records.
package store

import (
	"context"
	"time"
)

// Store defines the persistence operations used by the HTTP layer.
type Store interface {
	// RecordVisit stores one page view with an already hashed IP.
	RecordVisit(ctx context.Context, v Visit) error

	// RecordEvent stores one analytics event.
	RecordEvent(ctx context.Context, e Event) error

	// RecordContact stores a contact form submission and its delivery status.
	RecordContact(ctx context.Context, c ContactMessage) error

	// Stats aggregates dashboard figures relative to now.
	Stats(ctx context.Context, now time.Time) (*Stats, error)

	// RecentVisitors returns the latest visits, newest first.
	RecentVisitors(ctx context.Context, limit int) ([]Visit, error)

	// CleanupVisitors deletes visits older than the retention window.
	CleanupVisitors(ctx context.Context, retention time.Duration) (int64, error)

	// Ping verifies database connectivity.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}

// Visit is a privacy-conscious page view.
type Visit struct {
	ID        int64     `json:"id"`
	HashedIP  string    `json:"hashed_ip"`
	UserAgent string    `json:"user_agent"`
	Path      string    `json:"path"`
	Timestamp time.Time `json:"timestamp"`
}

// Event is an analytics event as emitted by the page or the assistant.
type Event struct {
	ID        int64     `json:"id"`
	Action    string    `json:"action"`
	Category  string    `json:"category"`
	Label     string    `json:"label,omitempty"`
	Value     *float64  `json:"value,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// Contact delivery outcomes.
const (
	ContactSent     = "sent"
	ContactFailed   = "failed"
	ContactFallback = "fallback"
)

// ContactMessage is a contact form submission.
type ContactMessage struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Message   string    `json:"message"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Count is a labelled aggregate.
type Count struct {
	Key   string `json:"key"`
	Count int64  `json:"count"`
}

// Stats are the admin dashboard figures.
type Stats struct {
	TotalVisitors    int64            `json:"total_visitors"`
	UniqueVisitors   int64            `json:"unique_visitors"`
	VisitorsToday    int64            `json:"visitors_today"`
	VisitorsThisWeek int64            `json:"visitors_this_week"`
	TotalEvents      int64            `json:"total_events"`
	EventsByAction   []Count          `json:"events_by_action"`
	TopTopics        []Count          `json:"top_topics"`
	TotalContacts    int64            `json:"total_contacts"`
	RecentContacts   []ContactMessage `json:"recent_contacts"`
	RecentVisitors   []Visit          `json:"recent_visitors"`
}
