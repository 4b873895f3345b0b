package store

import (
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var (
	ErrPartyNotFound  = errors.New("party not found")
	ErrMemberNotFound = errors.New("member not found")
	ErrCodeTaken      = errors.New("access code already in use")
	ErrPartyFull      = errors.New("party already has max_guests members")
	ErrTooManyMembers = errors.New("max_guests is below the party's member count")
	ErrNotInvited     = errors.New("member invited to an event the party is not invited to")
	ErrEmailTaken     = errors.New("organizer email already registered")
)

// isUniqueViolation reports whether err is SQLite rejecting a duplicate value for
// table.column.
func isUniqueViolation(err error, column string) bool {
	var serr *sqlite.Error
	if !errors.As(err, &serr) || serr.Code() != sqlite3.SQLITE_CONSTRAINT_UNIQUE {
		return false
	}
	return strings.Contains(serr.Error(), column)
}
