package model

import "time"

// EventSlug identifies one of the four wedding events.
type EventSlug string

const (
	Mendhi    EventSlug = "mendhi"
	Vidhi     EventSlug = "vidhi"
	Wedding   EventSlug = "wedding"
	Reception EventSlug = "reception"
)

// EventSlugs lists every event in ceremony order.
var EventSlugs = []EventSlug{Mendhi, Vidhi, Wedding, Reception}

func (s EventSlug) Valid() bool {
	switch s {
	case Mendhi, Vidhi, Wedding, Reception:
		return true
	}
	return false
}

// Title returns the display name used in CSV headers and emails.
func (s EventSlug) Title() string {
	switch s {
	case Mendhi:
		return "Mendhi"
	case Vidhi:
		return "Vidhi"
	case Wedding:
		return "Wedding"
	case Reception:
		return "Reception"
	}
	return string(s)
}

type Event struct {
	Slug         EventSlug `json:"slug"`
	Name         string    `json:"name"`
	Icon         string    `json:"icon"`
	Date         string    `json:"date"`
	Time         string    `json:"time"`
	VenueName    string    `json:"venue_name"`
	VenueAddress string    `json:"venue_address"`
	Description  string    `json:"description"`
	DressCode    string    `json:"dress_code"`
	IsFeatured   bool      `json:"is_featured"`
	SortOrder    int       `json:"sort_order"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// DisplayDate formats Date as "Thursday, December 25, 2025". It returns the raw
// value when Date is not in YYYY-MM-DD form.
func (e Event) DisplayDate() string {
	d, err := time.Parse("2006-01-02", e.Date)
	if err != nil {
		return e.Date
	}
	return d.Format("Monday, January 2, 2006")
}
