package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/shaadi-rsvp/shaadi/internal/model"
	"golang.org/x/crypto/bcrypt"
)

type OrganizerStore struct {
	db *sql.DB
}

func NewOrganizerStore(db *sql.DB) *OrganizerStore {
	return &OrganizerStore{db: db}
}

const organizerCols = `id, email, name, password_hash, created_at`

func scanOrganizer(scanner interface{ Scan(...any) error }) (*model.Organizer, error) {
	var o model.Organizer
	if err := scanner.Scan(&o.ID, &o.Email, &o.Name, &o.PasswordHash, &o.CreatedAt); err != nil {
		return nil, err
	}
	return &o, nil
}

// Create registers an organizer with a bcrypt-hashed password.
func (s *OrganizerStore) Create(email, name, password string) (*model.Organizer, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}
	email = strings.ToLower(strings.TrimSpace(email))

	result, err := s.db.Exec(
		`INSERT INTO organizers (email, name, password_hash) VALUES (?, ?, ?)`,
		email, name, string(hash),
	)
	if isUniqueViolation(err, "organizers.email") {
		return nil, ErrEmailTaken
	}
	if err != nil {
		return nil, fmt.Errorf("insert organizer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

// SetPassword replaces an organizer's password hash.
func (s *OrganizerStore) SetPassword(id int64, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	if _, err := s.db.Exec(`UPDATE organizers SET password_hash = ? WHERE id = ?`, string(hash), id); err != nil {
		return fmt.Errorf("set password: %w", err)
	}
	return nil
}

func (s *OrganizerStore) GetByID(id int64) (*model.Organizer, error) {
	o, err := scanOrganizer(s.db.QueryRow(`SELECT `+organizerCols+` FROM organizers WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get organizer: %w", err)
	}
	return o, nil
}

func (s *OrganizerStore) GetByEmail(email string) (*model.Organizer, error) {
	o, err := scanOrganizer(s.db.QueryRow(
		`SELECT `+organizerCols+` FROM organizers WHERE email = ?`,
		strings.ToLower(strings.TrimSpace(email)),
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get organizer by email: %w", err)
	}
	return o, nil
}

// Authenticate returns the organizer when the password matches, or nil.
func (s *OrganizerStore) Authenticate(email, password string) (*model.Organizer, error) {
	o, err := s.GetByEmail(email)
	if err != nil || o == nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)); err != nil {
		return nil, nil
	}
	return o, nil
}

// Ensure creates the organizer if the email is unknown and otherwise resets the
// password, so configured credentials always work after startup.
func (s *OrganizerStore) Ensure(email, name, password string) (*model.Organizer, error) {
	o, err := s.GetByEmail(email)
	if err != nil {
		return nil, err
	}
	if o == nil {
		return s.Create(email, name, password)
	}
	if bcrypt.CompareHashAndPassword([]byte(o.PasswordHash), []byte(password)) == nil {
		return o, nil
	}
	if err := s.SetPassword(o.ID, password); err != nil {
		return nil, err
	}
	return s.GetByID(o.ID)
}
