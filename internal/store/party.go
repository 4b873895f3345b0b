package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shaadi-rsvp/shaadi/internal/code"
	"github.com/shaadi-rsvp/shaadi/internal/model"
)

// maxCodeAttempts bounds how many fresh codes an insert or regeneration tries
// after the unique index rejects one.
const maxCodeAttempts = 10

type PartyStore struct {
	db      *sql.DB
	newCode func() (string, error)
}

func NewPartyStore(db *sql.DB) *PartyStore {
	return &PartyStore{db: db, newCode: code.Generate}
}

var partyCols = strings.Join(append(append(
	[]string{"id", "rsvp_code", "name", "email", "phone", "party_name", "max_guests"},
	eventColumns("invited_{e}", "rsvp_{e}", "guests_{e}")...),
	"dietary_requirements", "message", "notes", "has_responded",
	"rsvp_submitted_at", "last_viewed_at", "created_at", "updated_at",
), ", ")

func scanParty(scanner interface{ Scan(...any) error }) (*model.Party, error) {
	var p model.Party
	var submittedAt, viewedAt sql.NullTime
	n := len(model.EventSlugs)
	invited := make([]bool, n)
	status := make([]string, n)
	guests := make([]int, n)

	dest := []any{&p.ID, &p.Code, &p.Name, &p.Email, &p.Phone, &p.PartyName, &p.MaxGuests}
	for i := range model.EventSlugs {
		dest = append(dest, &invited[i], &status[i], &guests[i])
	}
	dest = append(dest, &p.DietaryRequirements, &p.Message, &p.Notes, &p.HasResponded,
		&submittedAt, &viewedAt, &p.CreatedAt, &p.UpdatedAt)

	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}

	p.Events = make(map[model.EventSlug]model.EventResponse, n)
	for i, slug := range model.EventSlugs {
		p.Events[slug] = model.EventResponse{
			Invited: invited[i],
			Status:  model.ResponseStatus(status[i]),
			Guests:  guests[i],
		}
	}
	if submittedAt.Valid {
		p.RSVPSubmittedAt = &submittedAt.Time
	}
	if viewedAt.Valid {
		p.LastViewedAt = &viewedAt.Time
	}
	return &p, nil
}

func (s *PartyStore) queryParties(query string, args ...any) ([]model.Party, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var parties []model.Party
	for rows.Next() {
		p, err := scanParty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan party: %w", err)
		}
		parties = append(parties, *p)
	}
	return parties, rows.Err()
}

func (s *PartyStore) queryParty(query string, args ...any) (*model.Party, error) {
	p, err := scanParty(s.db.QueryRow(query, args...))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	return p, err
}

// Create inserts a party with a freshly generated access code. A code collision
// rejected by the unique index is retried with a new code.
func (s *PartyStore) Create(in model.PartyInput) (*model.Party, error) {
	id := uuid.NewString()
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		c, err := s.newCode()
		if err != nil {
			return nil, err
		}
		err = s.insert(id, c, in)
		if err == nil {
			return s.GetByID(id)
		}
		if !isUniqueViolation(err, "parties.rsvp_code") {
			return nil, fmt.Errorf("insert party: %w", err)
		}
	}
	return nil, code.ErrRetryExhausted
}

// CreateWithCode inserts a party with a caller-chosen access code. It returns
// ErrCodeTaken when another party already holds the code.
func (s *PartyStore) CreateWithCode(in model.PartyInput, accessCode string) (*model.Party, error) {
	id := uuid.NewString()
	if err := s.insert(id, accessCode, in); err != nil {
		if isUniqueViolation(err, "parties.rsvp_code") {
			return nil, ErrCodeTaken
		}
		return nil, fmt.Errorf("insert party: %w", err)
	}
	return s.GetByID(id)
}

func (s *PartyStore) insert(id, accessCode string, in model.PartyInput) error {
	if in.MaxGuests < 1 {
		in.MaxGuests = 1
	}
	now := time.Now().UTC()
	cols := append([]string{"id", "rsvp_code", "name", "email", "phone", "party_name", "max_guests", "notes"},
		eventColumns("invited_{e}")...)
	cols = append(cols, "created_at", "updated_at")

	args := []any{id, accessCode, in.Name, in.Email, in.Phone, in.PartyName, in.MaxGuests, in.Notes}
	for _, slug := range model.EventSlugs {
		args = append(args, in.Invitations[slug])
	}
	args = append(args, now, now)

	_, err := s.db.Exec(
		`INSERT INTO parties (`+strings.Join(cols, ", ")+`) VALUES (`+placeholders(len(cols))+`)`,
		args...,
	)
	return err
}

func (s *PartyStore) GetByID(id string) (*model.Party, error) {
	p, err := s.queryParty(`SELECT `+partyCols+` FROM parties WHERE id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("get party %s: %w", id, err)
	}
	return p, nil
}

// GetByCode returns the party holding exactly this access code, or nil.
func (s *PartyStore) GetByCode(accessCode string) (*model.Party, error) {
	p, err := s.queryParty(`SELECT `+partyCols+` FROM parties WHERE rsvp_code = ?`, accessCode)
	if err != nil {
		return nil, fmt.Errorf("get party by code: %w", err)
	}
	return p, nil
}

// GetByEmail matches the email case-insensitively. When several parties share an
// address the earliest created one wins.
func (s *PartyStore) GetByEmail(email string) (*model.Party, error) {
	p, err := s.queryParty(
		`SELECT `+partyCols+` FROM parties WHERE email <> '' AND email = ? COLLATE NOCASE ORDER BY created_at, rowid LIMIT 1`,
		email,
	)
	if err != nil {
		return nil, fmt.Errorf("get party by email: %w", err)
	}
	return p, nil
}

// GetByName matches the display name case-insensitively, earliest first.
func (s *PartyStore) GetByName(name string) (*model.Party, error) {
	p, err := s.queryParty(
		`SELECT `+partyCols+` FROM parties WHERE name = ? COLLATE NOCASE ORDER BY created_at, rowid LIMIT 1`,
		name,
	)
	if err != nil {
		return nil, fmt.Errorf("get party by name: %w", err)
	}
	return p, nil
}

func (s *PartyStore) CodeExists(accessCode string) (bool, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM parties WHERE rsvp_code = ?`, accessCode).Scan(&count)
	if err != nil {
		return false, fmt.Errorf("check code exists: %w", err)
	}
	return count > 0, nil
}

// List returns every party ordered by name.
func (s *PartyStore) List() ([]model.Party, error) {
	parties, err := s.queryParties(`SELECT ` + partyCols + ` FROM parties ORDER BY name COLLATE NOCASE, created_at, rowid`)
	if err != nil {
		return nil, fmt.Errorf("list parties: %w", err)
	}
	return parties, nil
}

func (s *PartyStore) Count() (int, error) {
	var n int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM parties`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count parties: %w", err)
	}
	return n, nil
}

// Update replaces the organizer-editable fields. Withdrawn invitations reset the
// event to pending for the party and its members, and a lower max_guests clamps
// stored head counts. max_guests may not drop below the number of members.
func (s *PartyStore) Update(id string, in model.PartyInput) (*model.Party, error) {
	if in.MaxGuests < 1 {
		in.MaxGuests = 1
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var members int
	if err := tx.QueryRow(`SELECT COUNT(*) FROM members WHERE party_id = ?`, id).Scan(&members); err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	if members > in.MaxGuests {
		return nil, ErrTooManyMembers
	}

	set, setArgs := partyInvitationSet(in.Invitations, in.MaxGuests)
	args := append([]any{in.Name, in.Email, in.Phone, in.PartyName, in.MaxGuests, in.Notes}, setArgs...)
	args = append(args, time.Now().UTC(), id)
	res, err := tx.Exec(
		`UPDATE parties SET name = ?, email = ?, phone = ?, party_name = ?, max_guests = ?, notes = ?, `+set+`, updated_at = ? WHERE id = ?`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("update party: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return nil, ErrPartyNotFound
	}

	mset, margs := memberCascadeSet(in.Invitations)
	if _, err := tx.Exec(`UPDATE members SET `+mset+` WHERE party_id = ?`, append(margs, id)...); err != nil {
		return nil, fmt.Errorf("update member invitations: %w", err)
	}
	if err := syncRollUp(tx, id); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// SetInvitations applies one invitation set to many parties at once.
func (s *PartyStore) SetInvitations(ids []string, inv model.Invitations) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	set, setArgs := partyInvitationSet(inv, 0)
	args := append(setArgs, time.Now().UTC())
	args = append(args, anySlice(ids)...)
	res, err := tx.Exec(
		`UPDATE parties SET `+set+`, updated_at = ? WHERE id IN (`+placeholders(len(ids))+`)`,
		args...,
	)
	if err != nil {
		return 0, fmt.Errorf("set invitations: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}

	mset, margs := memberCascadeSet(inv)
	if _, err := tx.Exec(
		`UPDATE members SET `+mset+` WHERE party_id IN (`+placeholders(len(ids))+`)`,
		append(margs, anySlice(ids)...)...,
	); err != nil {
		return 0, fmt.Errorf("cascade member invitations: %w", err)
	}
	for _, id := range ids {
		if err := syncRollUp(tx, id); err != nil && !errors.Is(err, ErrPartyNotFound) {
			return 0, err
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return affected, nil
}

// RegenerateCode assigns a new access code, retrying on collisions.
func (s *PartyStore) RegenerateCode(id string) (string, error) {
	for attempt := 0; attempt < maxCodeAttempts; attempt++ {
		c, err := s.newCode()
		if err != nil {
			return "", err
		}
		res, err := s.db.Exec(
			`UPDATE parties SET rsvp_code = ?, updated_at = ? WHERE id = ?`,
			c, time.Now().UTC(), id,
		)
		if isUniqueViolation(err, "parties.rsvp_code") {
			continue
		}
		if err != nil {
			return "", fmt.Errorf("regenerate code: %w", err)
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return "", ErrPartyNotFound
		}
		return c, nil
	}
	return "", code.ErrRetryExhausted
}

// TouchViewed records when the party last opened its RSVP page.
func (s *PartyStore) TouchViewed(id string, at time.Time) error {
	_, err := s.db.Exec(`UPDATE parties SET last_viewed_at = ? WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return fmt.Errorf("touch last viewed: %w", err)
	}
	return nil
}

func (s *PartyStore) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM parties WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete party: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrPartyNotFound
	}
	return nil
}

// DeleteMany removes the given parties and, through the foreign key, their members.
func (s *PartyStore) DeleteMany(ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	res, err := s.db.Exec(`DELETE FROM parties WHERE id IN (`+placeholders(len(ids))+`)`, anySlice(ids)...)
	if err != nil {
		return 0, fmt.Errorf("delete parties: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return n, nil
}
