package model

import "time"

// PushSubscription is a browser registered by an organizer for RSVP alerts.
type PushSubscription struct {
	ID          int64     `json:"id"`
	OrganizerID int64     `json:"organizer_id"`
	Endpoint    string    `json:"endpoint"`
	P256dhKey   string    `json:"-"`
	AuthKey     string    `json:"-"`
	DeviceName  string    `json:"device_name"`
	CreatedAt   time.Time `json:"created_at"`
}
