package store

import (
	"testing"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

func TestEventListSeeded(t *testing.T) {
	s := NewEventStore(setupStoreTestDB(t))

	events, err := s.List()
	if err != nil {
		t.Fatalf("list events: %v", err)
	}
	if len(events) != len(model.EventSlugs) {
		t.Fatalf("len = %d, want %d", len(events), len(model.EventSlugs))
	}
	for i, slug := range model.EventSlugs {
		if events[i].Slug != slug {
			t.Errorf("events[%d] = %q, want %q", i, events[i].Slug, slug)
		}
	}
	featured := 0
	for _, e := range events {
		if e.IsFeatured {
			featured++
			if e.Slug != model.Wedding {
				t.Errorf("featured = %q, want wedding", e.Slug)
			}
		}
	}
	if featured != 1 {
		t.Errorf("featured count = %d, want 1", featured)
	}
}

func TestEventUpdate(t *testing.T) {
	s := NewEventStore(setupStoreTestDB(t))

	e, err := s.GetBySlug(model.Reception)
	if err != nil || e == nil {
		t.Fatalf("get reception: %v", err)
	}
	e.VenueName = "Rooftop Lawn"
	e.SortOrder = 0

	updated, err := s.Update(*e)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.VenueName != "Rooftop Lawn" {
		t.Errorf("venue = %q, want %q", updated.VenueName, "Rooftop Lawn")
	}

	events, _ := s.List()
	if events[0].Slug != model.Reception {
		t.Errorf("first event = %q, want reception after reordering", events[0].Slug)
	}

	missing, err := s.Update(model.Event{Slug: "haldi", Name: "Haldi"})
	if err != nil {
		t.Fatalf("update unknown: %v", err)
	}
	if missing != nil {
		t.Errorf("expected nil for unknown slug, got %+v", missing)
	}
}

func TestEventDisplayDate(t *testing.T) {
	e := model.Event{Date: "2025-12-27"}
	if got := e.DisplayDate(); got != "Saturday, December 27, 2025" {
		t.Errorf("DisplayDate = %q", got)
	}
	raw := model.Event{Date: "TBD"}
	if got := raw.DisplayDate(); got != "TBD" {
		t.Errorf("DisplayDate = %q, want raw value", got)
	}
}
