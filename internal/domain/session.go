package domain

import "time"

// Device classifies the visitor's client.
type Device string

// Device classes reported by the front-end.
const (
	DeviceDesktop Device = "desktop"
	DeviceMobile  Device = "mobile"
	DeviceTablet  Device = "tablet"
)

// Valid reports whether d is a known device class.
func (d Device) Valid() bool {
	switch d {
	case DeviceDesktop, DeviceMobile, DeviceTablet:
		return true
	default:
		return false
	}
}

// Session is one visit to the marketing site, recorded for the admin analytics dashboard.
type Session struct {
	ID          string     `json:"id"` // UUID
	VisitorID   string     `json:"visitor_id"`
	StartedAt   time.Time  `json:"started_at"`
	EndedAt     *time.Time `json:"ended_at,omitempty"`
	LandingPage string     `json:"landing_page"`
	PageViews   int        `json:"page_views"`
	Referrer    string     `json:"referrer,omitempty"`
	Country     string     `json:"country,omitempty"`
	Device      Device     `json:"device"`
	Converted   bool       `json:"converted"` // Visitor clicked through to a ticket page
}

// Duration returns how long the session lasted, or zero while it is open.
func (s *Session) Duration() time.Duration {
	if s.EndedAt == nil || s.EndedAt.Before(s.StartedAt) {
		return 0
	}
	return s.EndedAt.Sub(s.StartedAt)
}
