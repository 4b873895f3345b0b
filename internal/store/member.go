package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/shaadi-rsvp/shaadi/internal/model"
)

type MemberStore struct {
	db *sql.DB
}

func NewMemberStore(db *sql.DB) *MemberStore {
	return &MemberStore{db: db}
}

var memberCols = strings.Join(append(append(
	[]string{"id", "party_id", "name", "relation"},
	eventColumns("invited_{e}", "rsvp_{e}")...),
	"dietary_requirements", "sort_order", "created_at", "updated_at",
), ", ")

func scanMember(scanner interface{ Scan(...any) error }) (*model.Member, error) {
	var m model.Member
	n := len(model.EventSlugs)
	invited := make([]bool, n)
	status := make([]string, n)

	dest := []any{&m.ID, &m.PartyID, &m.Name, &m.Relation}
	for i := range model.EventSlugs {
		dest = append(dest, &invited[i], &status[i])
	}
	dest = append(dest, &m.DietaryRequirements, &m.SortOrder, &m.CreatedAt, &m.UpdatedAt)

	if err := scanner.Scan(dest...); err != nil {
		return nil, err
	}
	m.Events = make(map[model.EventSlug]model.MemberResponse, n)
	for i, slug := range model.EventSlugs {
		m.Events[slug] = model.MemberResponse{Invited: invited[i], Status: model.ResponseStatus(status[i])}
	}
	return &m, nil
}

type queryer interface {
	Query(query string, args ...any) (*sql.Rows, error)
}

func queryMembers(q queryer, query string, args ...any) ([]model.Member, error) {
	rows, err := q.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var members []model.Member
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

// checkInvitations rejects member invitations to events the party is not invited to.
func checkInvitations(party *model.Party, inv model.Invitations) error {
	for slug, invited := range inv {
		if invited && !party.IsInvited(slug) {
			return fmt.Errorf("%s: %w", slug, ErrNotInvited)
		}
	}
	return nil
}

func loadParty(tx *sql.Tx, partyID string) (*model.Party, error) {
	p, err := scanParty(tx.QueryRow(`SELECT `+partyCols+` FROM parties WHERE id = ?`, partyID))
	if err == sql.ErrNoRows {
		return nil, ErrPartyNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get party: %w", err)
	}
	return p, nil
}

// Create adds a member to a party. A party holds at most max_guests members and a
// member is only invited to events its party is invited to.
func (s *MemberStore) Create(partyID string, in model.MemberInput) (*model.Member, error) {
	if !in.Relation.Valid() {
		in.Relation = model.RelationOther
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	party, err := loadParty(tx, partyID)
	if err != nil {
		return nil, err
	}
	if err := checkInvitations(party, in.Invitations); err != nil {
		return nil, err
	}

	var count, maxOrder int
	err = tx.QueryRow(
		`SELECT COUNT(*), COALESCE(MAX(sort_order), -1) FROM members WHERE party_id = ?`, partyID,
	).Scan(&count, &maxOrder)
	if err != nil {
		return nil, fmt.Errorf("count members: %w", err)
	}
	if count >= party.MaxGuests {
		return nil, ErrPartyFull
	}

	now := time.Now().UTC()
	cols := append([]string{"party_id", "name", "relation"}, eventColumns("invited_{e}")...)
	cols = append(cols, "sort_order", "created_at", "updated_at")
	args := []any{partyID, in.Name, string(in.Relation)}
	for _, slug := range model.EventSlugs {
		args = append(args, in.Invitations[slug])
	}
	args = append(args, maxOrder+1, now, now)

	res, err := tx.Exec(
		`INSERT INTO members (`+strings.Join(cols, ", ")+`) VALUES (`+placeholders(len(cols))+`)`,
		args...,
	)
	if err != nil {
		return nil, fmt.Errorf("insert member: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	if err := syncRollUp(tx, partyID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

func (s *MemberStore) GetByID(id int64) (*model.Member, error) {
	m, err := scanMember(s.db.QueryRow(`SELECT `+memberCols+` FROM members WHERE id = ?`, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get member %d: %w", id, err)
	}
	return m, nil
}

func (s *MemberStore) ListByParty(partyID string) ([]model.Member, error) {
	members, err := queryMembers(s.db,
		`SELECT `+memberCols+` FROM members WHERE party_id = ? ORDER BY sort_order, id`, partyID,
	)
	if err != nil {
		return nil, fmt.Errorf("list members: %w", err)
	}
	return members, nil
}

// ListAll returns every member grouped by party id.
func (s *MemberStore) ListAll() (map[string][]model.Member, error) {
	members, err := queryMembers(s.db, `SELECT `+memberCols+` FROM members ORDER BY party_id, sort_order, id`)
	if err != nil {
		return nil, fmt.Errorf("list all members: %w", err)
	}
	byParty := make(map[string][]model.Member)
	for _, m := range members {
		byParty[m.PartyID] = append(byParty[m.PartyID], m)
	}
	return byParty, nil
}

// Update replaces a member's name, relation and invitations. A withdrawn
// invitation resets that event to pending.
func (s *MemberStore) Update(id int64, in model.MemberInput) (*model.Member, error) {
	if !in.Relation.Valid() {
		in.Relation = model.RelationOther
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var partyID string
	err = tx.QueryRow(`SELECT party_id FROM members WHERE id = ?`, id).Scan(&partyID)
	if err == sql.ErrNoRows {
		return nil, ErrMemberNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get member party: %w", err)
	}
	party, err := loadParty(tx, partyID)
	if err != nil {
		return nil, err
	}
	if err := checkInvitations(party, in.Invitations); err != nil {
		return nil, err
	}

	sets := []string{"name = ?", "relation = ?"}
	args := []any{in.Name, string(in.Relation)}
	for _, slug := range model.EventSlugs {
		e := string(slug)
		invited := in.Invitations[slug]
		sets = append(sets, "invited_"+e+" = ?", "rsvp_"+e+" = CASE WHEN ? THEN rsvp_"+e+" ELSE 'pending' END")
		args = append(args, invited, invited)
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, time.Now().UTC(), id)

	if _, err := tx.Exec(`UPDATE members SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return nil, fmt.Errorf("update member: %w", err)
	}
	if err := syncRollUp(tx, partyID); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a member and re-derives the party's answers from the members
// that remain.
func (s *MemberStore) Delete(id int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	var partyID string
	err = tx.QueryRow(`SELECT party_id FROM members WHERE id = ?`, id).Scan(&partyID)
	if err == sql.ErrNoRows {
		return ErrMemberNotFound
	}
	if err != nil {
		return fmt.Errorf("get member party: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM members WHERE id = ?`, id); err != nil {
		return fmt.Errorf("delete member: %w", err)
	}
	if err := syncRollUp(tx, partyID); err != nil {
		return err
	}
	return tx.Commit()
}

// UpdateSortOrder renumbers a party's members in the given order.
func (s *MemberStore) UpdateSortOrder(partyID string, ids []int64) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`UPDATE members SET sort_order = ? WHERE id = ? AND party_id = ?`)
	if err != nil {
		return fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	for i, id := range ids {
		if _, err := stmt.Exec(i, id, partyID); err != nil {
			return fmt.Errorf("update sort order for id %d: %w", id, err)
		}
	}

	return tx.Commit()
}

// syncRollUp rewrites a party's per-event answers from its members' answers. A
// party without members answers for itself and is left as is.
func syncRollUp(tx *sql.Tx, partyID string) error {
	party, err := loadParty(tx, partyID)
	if err != nil {
		return err
	}
	members, err := queryMembers(tx, `SELECT `+memberCols+` FROM members WHERE party_id = ?`, partyID)
	if err != nil {
		return fmt.Errorf("list members: %w", err)
	}
	events := party.InvitedEvents()
	if len(members) == 0 || len(events) == 0 {
		return nil
	}

	var sets []string
	var args []any
	for _, slug := range events {
		r := model.RollUp(slug, members, party.MaxGuests)
		sets = append(sets, "rsvp_"+string(slug)+" = ?", "guests_"+string(slug)+" = ?")
		args = append(args, string(r.Status), r.Guests)
	}
	args = append(args, partyID)
	if _, err := tx.Exec(`UPDATE parties SET `+strings.Join(sets, ", ")+` WHERE id = ?`, args...); err != nil {
		return fmt.Errorf("roll up member answers: %w", err)
	}
	return nil
}
