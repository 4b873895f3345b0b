package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

// WeddingInfoStore reads and writes the single wedding_info row.
type WeddingInfoStore struct {
	db *sql.DB
}

func NewWeddingInfoStore(db *sql.DB) *WeddingInfoStore {
	return &WeddingInfoStore{db: db}
}

func (s *WeddingInfoStore) Get() (*model.WeddingInfo, error) {
	var w model.WeddingInfo
	err := s.db.QueryRow(
		`SELECT partner1_name, partner2_name, wedding_date, location, hashtag, welcome_title, welcome_message, updated_at
		 FROM wedding_info WHERE id = 1`,
	).Scan(&w.Partner1Name, &w.Partner2Name, &w.WeddingDate, &w.Location, &w.Hashtag,
		&w.WelcomeTitle, &w.WelcomeMessage, &w.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get wedding info: %w", err)
	}
	return &w, nil
}

// Update replaces the wedding details, creating the row if it was removed.
func (s *WeddingInfoStore) Update(w model.WeddingInfo) (*model.WeddingInfo, error) {
	_, err := s.db.Exec(
		`INSERT INTO wedding_info (id, partner1_name, partner2_name, wedding_date, location, hashtag, welcome_title, welcome_message, updated_at)
		 VALUES (1, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		     partner1_name = excluded.partner1_name,
		     partner2_name = excluded.partner2_name,
		     wedding_date = excluded.wedding_date,
		     location = excluded.location,
		     hashtag = excluded.hashtag,
		     welcome_title = excluded.welcome_title,
		     welcome_message = excluded.welcome_message,
		     updated_at = excluded.updated_at`,
		w.Partner1Name, w.Partner2Name, w.WeddingDate, w.Location, w.Hashtag,
		w.WelcomeTitle, w.WelcomeMessage, time.Now().UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("update wedding info: %w", err)
	}
	return s.Get()
}

type MilestoneStore struct {
	db *sql.DB
}

func NewMilestoneStore(db *sql.DB) *MilestoneStore {
	return &MilestoneStore{db: db}
}

const milestoneCols = `id, year, title, description, sort_order, created_at, updated_at`

func scanMilestone(scanner interface{ Scan(...any) error }) (*model.Milestone, error) {
	var m model.Milestone
	if err := scanner.Scan(&m.ID, &m.Year, &m.Title, &m.Description, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// List returns the timeline in display order.
func (s *MilestoneStore) List() ([]model.Milestone, error) {
	rows, err := s.db.Query(`SELECT ` + milestoneCols + ` FROM milestones ORDER BY sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list milestones: %w", err)
	}
	defer rows.Close()

	var milestones []model.Milestone
	for rows.Next() {
		m, err := scanMilestone(rows)
		if err != nil {
			return nil, fmt.Errorf("scan milestone: %w", err)
		}
		milestones = append(milestones, *m)
	}
	return milestones, rows.Err()
}

func (s *MilestoneStore) GetByID(id int64) (*model.Milestone, error) {
	m, err := scanMilestone(s.db.QueryRow(`SELECT `+milestoneCols+` FROM milestones WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get milestone %d: %w", id, err)
	}
	return m, nil
}

func (s *MilestoneStore) Create(in model.MilestoneInput) (*model.Milestone, error) {
	now := time.Now().UTC()
	res, err := s.db.Exec(
		`INSERT INTO milestones (year, title, description, sort_order, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		in.Year, in.Title, in.Description, in.SortOrder, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("insert milestone: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// Update returns nil when the milestone does not exist.
func (s *MilestoneStore) Update(id int64, in model.MilestoneInput) (*model.Milestone, error) {
	res, err := s.db.Exec(
		`UPDATE milestones SET year = ?, title = ?, description = ?, sort_order = ?, updated_at = ? WHERE id = ?`,
		in.Year, in.Title, in.Description, in.SortOrder, time.Now().UTC(), id,
	)
	if err != nil {
		return nil, fmt.Errorf("update milestone: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, nil
	}
	return s.GetByID(id)
}

// Delete reports whether a milestone was removed.
func (s *MilestoneStore) Delete(id int64) (bool, error) {
	res, err := s.db.Exec(`DELETE FROM milestones WHERE id = ?`, id)
	if err != nil {
		return false, fmt.Errorf("delete milestone: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected: %w", err)
	}
	return n > 0, nil
}
