package events

import (
	"context"
	"time"
)

// DateLayout is the calendar-day format of EventDate.
const DateLayout = "2006-01-02"

// Event is something that happened to the composter on a given day, such as
// adding material or emptying the reservoir.
type Event struct {
	ID          string    `json:"id"`
	UserID      string    `json:"-"`
	EventType   string    `json:"event_type"`
	Description string    `json:"description"`
	EventDate   string    `json:"event_date"`
	CreatedAt   time.Time `json:"created_at"`
}

// CreateRequest is the body accepted when logging an event.
type CreateRequest struct {
	EventType   string `json:"event_type"`
	Description string `json:"description"`
	EventDate   string `json:"event_date"`
}

// Repository persists events.
type Repository interface {
	// List returns the user's events, newest created first. An empty date
	// returns every event.
	List(ctx context.Context, userID, date string) ([]Event, error)
	Insert(ctx context.Context, e Event) error
}
