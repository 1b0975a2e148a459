// Package repository implements durable storage for journeys, slots,
// seat classes, pricing rules, bookings and users on top of
// database/sql.  Sentinel errors defined here are reused across
// repositories so that higher layers can distinguish failure
// scenarios with errors.Is.  Lookups that match no row return
// sql.ErrNoRows, following the standard library convention.
package repository

import "errors"

// ErrForbidden is returned when the caller attempts an operation on a
// resource they do not own. Handlers should translate this into an
// HTTP 403 response.
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when an insert or delete cannot proceed
// because of conflicting state, such as adding a pricing rule whose
// threshold already exists or deleting a slot that still has active
// bookings. Handlers should translate this into an HTTP 409 response.
var ErrConflict = errors.New("conflict")
