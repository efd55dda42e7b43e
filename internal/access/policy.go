// Package access decides what the acting principal may see and touch.
// It is pure: nothing here talks to the database, it only produces
// query scopes and yes/no answers over its inputs.
package access

import (
	"errors"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"

	"github.com/farmsaathi/farmsaathi/internal/principal"
)

var (
	// ErrForbidden is returned when a write targets a record the
	// principal does not own.
	ErrForbidden = errors.New("forbidden")
)

// Scope returns the visibility predicate for the principal as a GORM
// scope. Admins match every row; managers match only rows they created.
// The scope must be applied at the query level on every read so that
// invisible rows are filtered by the storage engine, never in memory.
func Scope(p principal.Principal) func(*gorm.DB) *gorm.DB {
	if p.Privileged() {
		return func(db *gorm.DB) *gorm.DB { return db }
	}
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("created_by = ?", p.ID)
	}
}

// CanAccess reports whether the principal may observe a record owned by
// ownerID.
func CanAccess(p principal.Principal, ownerID snowflake.ID) bool {
	if p.Privileged() {
		return true
	}
	return p.ID == ownerID
}

// AuthorizeWrite fails with ErrForbidden when a manager targets a
// record created by someone else. Existence of the record is the
// store's concern, not this package's.
func AuthorizeWrite(p principal.Principal, ownerID snowflake.ID) error {
	if CanAccess(p, ownerID) {
		return nil
	}
	return ErrForbidden
}
