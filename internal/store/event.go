package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

const eventCols = `slug, name, icon, date, time, venue_name, venue_address, description, dress_code, is_featured, sort_order, updated_at`

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	err := scanner.Scan(
		&e.Slug, &e.Name, &e.Icon, &e.Date, &e.Time, &e.VenueName, &e.VenueAddress,
		&e.Description, &e.DressCode, &e.IsFeatured, &e.SortOrder, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// List returns the events by sort order, then date.
func (s *EventStore) List() ([]model.Event, error) {
	rows, err := s.db.Query(`SELECT ` + eventCols + ` FROM events ORDER BY sort_order, date`)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

func (s *EventStore) GetBySlug(slug model.EventSlug) (*model.Event, error) {
	e, err := scanEvent(s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE slug = ?`, slug))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event %s: %w", slug, err)
	}
	return e, nil
}

// Update replaces the descriptive fields of an event. The slug is fixed.
func (s *EventStore) Update(e model.Event) (*model.Event, error) {
	res, err := s.db.Exec(
		`UPDATE events SET name = ?, icon = ?, date = ?, time = ?, venue_name = ?, venue_address = ?,
		 description = ?, dress_code = ?, is_featured = ?, sort_order = ?, updated_at = ? WHERE slug = ?`,
		e.Name, e.Icon, e.Date, e.Time, e.VenueName, e.VenueAddress,
		e.Description, e.DressCode, e.IsFeatured, e.SortOrder, time.Now().UTC(), e.Slug,
	)
	if err != nil {
		return nil, fmt.Errorf("update event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetBySlug(e.Slug)
}
