package domain

import "time"

// EventStatus is the lifecycle state of a live event.
type EventStatus string

// Event statuses.
const (
	EventScheduled EventStatus = "scheduled"
	EventCancelled EventStatus = "cancelled"
	EventSoldOut   EventStatus = "sold_out"
)

// Valid reports whether s is a known status.
func (s EventStatus) Valid() bool {
	switch s {
	case EventScheduled, EventCancelled, EventSoldOut:
		return true
	default:
		return false
	}
}

// Event is a ticketed live event with its line-up.
type Event struct {
	Syncable
	Title         string      `json:"title"`
	Slug          string      `json:"slug"`
	Description   string      `json:"description,omitempty"` // Markdown
	Venue         string      `json:"venue"`
	City          string      `json:"city"`
	StartsAt      time.Time   `json:"starts_at"`
	EndsAt        *time.Time  `json:"ends_at,omitempty"`
	TicketURL     string      `json:"ticket_url,omitempty"`
	PriceMinCents int64       `json:"price_min_cents,omitempty"`
	PriceMaxCents int64       `json:"price_max_cents,omitempty"`
	Currency      string      `json:"currency,omitempty"`
	Status        EventStatus `json:"status"`
	ArtistIDs     []string    `json:"artist_ids"` // Billing order, headliner first
	GenreIDs      []string    `json:"genre_ids"`
}

// IsUpcoming reports whether the event has not started yet at now and is still on sale or sold out.
func (e *Event) IsUpcoming(now time.Time) bool {
	return e.Status != EventCancelled && e.StartsAt.After(now)
}
