// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package contacts

import (
	"context"

	"github.com/vberko/kontakta/pkg/pagination"
)

// BirthdayWindow is one month-scoped day range of an upcoming-birthday query.
//
// A query spanning a month or year boundary decomposes into several windows,
// e.g. Dec 28 + 7 days becomes {12, 28..31} and {1, 1..4}.
type BirthdayWindow struct {
	Month   int
	FromDay int
	ToDay   int
}

// Repository abstracts persistent contact storage.
//
// Every owner-scoped method treats a row owned by someone else exactly like
// a missing row.
type Repository interface {
	// Create inserts a contact inside a transaction and fills in the
	// generated ID and timestamps.
	Create(context context.Context, contact *Contact) error

	// GetByID retrieves one contact owned by ownerID.
	GetByID(context context.Context, ownerID, id int64) (*Contact, error)

	// List returns a page of the owner's contacts plus the total count.
	List(context context.Context, ownerID int64, params pagination.Params) ([]*Contact, int, error)

	// ListAll returns a page across ALL owners. Callers must role-gate this.
	ListAll(context context.Context, params pagination.Params) ([]*Contact, int, error)

	// Search returns the owner's contacts matching the filter.
	Search(context context.Context, ownerID int64, filter Filter, params pagination.Params) ([]*Contact, int, error)

	// UpcomingBirthdays returns the owner's contacts whose birthday falls in
	// any of the given windows, ignoring the birth year.
	UpcomingBirthdays(context context.Context, ownerID int64, windows []BirthdayWindow) ([]*Contact, error)

	// Update persists changes to an owned contact.
	Update(context context.Context, contact *Contact) error

	// Delete removes an owned contact.
	Delete(context context.Context, ownerID, id int64) error
}
