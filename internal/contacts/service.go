// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

/*
Package contacts implements the personal address-book domain.

Each contact belongs to exactly one owner and every operation is scoped to
the acting user's id, so one tenant can never observe another's data — a
foreign contact id behaves exactly like a missing one.

Architecture:

  - Service: Validation and business rules (search criteria, birthday windows).
  - Repository: Owner-filtered PostgreSQL storage.
  - Handler: Thin HTTP layer with per-route rate limit bindings.
*/
package contacts

import (
	"context"
	"time"

	"github.com/vberko/kontakta/internal/platform/apperr"
	"github.com/vberko/kontakta/internal/platform/validate"
	"github.com/vberko/kontakta/pkg/pagination"
)

// # Birthday Query Limits

const (
	// BirthdayDaysDefault is the default lookahead of the birthdays endpoint.
	BirthdayDaysDefault = 7

	// BirthdayDaysMin / BirthdayDaysMax clamp the requested lookahead.
	BirthdayDaysMin = 7
	BirthdayDaysMax = 100
)

// Service implements contact management use cases.
type Service struct {
	repository Repository
}

// NewService constructs a new contacts [Service].
func NewService(repository Repository) *Service {
	return &Service{repository: repository}
}

// # Input Types

// ContactInput holds the writable fields of a contact.
type ContactInput struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string
	Birthday  string
	Notes     string
}

// validate enforces the field rules shared by create and update.
func (input ContactInput) validate() error {
	validator := &validate.Validator{}
	validator.Required(FieldFirstName, input.FirstName).
		MaxLen(FieldFirstName, input.FirstName, 100).
		Required(FieldLastName, input.LastName).
		MaxLen(FieldLastName, input.LastName, 100).
		Required(FieldEmail, input.Email).
		Email(FieldEmail, input.Email).
		MaxLen(FieldPhone, input.Phone, 30).
		Required(FieldBirthday, input.Birthday).
		Date(FieldBirthday, input.Birthday).
		MaxLen(FieldNotes, input.Notes, 1000)
	return validator.Err()
}

// apply copies the validated input onto the entity.
func (input ContactInput) apply(contact *Contact) {
	birthday, _ := time.Parse(validate.DateLayout, input.Birthday)
	contact.FirstName = input.FirstName
	contact.LastName = input.LastName
	contact.Email = input.Email
	contact.Phone = input.Phone
	contact.Birthday = Date{Time: birthday}
	contact.Notes = input.Notes
}

// # Operations

/*
Create validates and persists a new contact for the owner.

Parameters:
  - context: context.Context
  - ownerID: int64
  - input: ContactInput

Returns:
  - *Contact: Created entity
  - error: Validation or storage errors
*/
func (service *Service) Create(context context.Context, ownerID int64, input ContactInput) (*Contact, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	contact := &Contact{OwnerID: ownerID}
	input.apply(contact)

	if err := service.repository.Create(context, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

// Get retrieves one of the owner's contacts.
func (service *Service) Get(context context.Context, ownerID, id int64) (*Contact, error) {
	return service.repository.GetByID(context, ownerID, id)
}

// List returns a page of the owner's contacts with the total count.
func (service *Service) List(context context.Context, ownerID int64, params pagination.Params) ([]*Contact, int, error) {
	return service.repository.List(context, ownerID, params)
}

// ListAll returns a page across all owners. The HTTP layer role-gates this.
func (service *Service) ListAll(context context.Context, params pagination.Params) ([]*Contact, int, error) {
	return service.repository.ListAll(context, params)
}

/*
Search returns the owner's contacts matching at least one criterion.

Description: An entirely empty filter is a client error — it would be a
disguised full list and bypass the list route's semantics.

Parameters:
  - context: context.Context
  - ownerID: int64
  - filter: Filter
  - params: pagination.Params

Returns:
  - []*Contact, int: Matching page and total
  - error: ValidationError when no criterion is given, or storage errors
*/
func (service *Service) Search(context context.Context, ownerID int64, filter Filter, params pagination.Params) ([]*Contact, int, error) {
	if filter.Empty() {
		return nil, 0, apperr.ValidationError("At least one search parameter is required")
	}

	return service.repository.Search(context, ownerID, filter, params)
}

/*
UpcomingBirthdays returns contacts whose birthday falls within the next N days.

Description: The lookahead is clamped to [BirthdayDaysMin, BirthdayDaysMax].
The window is computed on month/day only, so year boundaries wrap correctly
(Dec 28 + 7 days includes Jan 1–4).

Parameters:
  - context: context.Context
  - ownerID: int64
  - days: int (lookahead, clamped)

Returns:
  - []*Contact: Contacts sorted by calendar position
  - error: Storage errors
*/
func (service *Service) UpcomingBirthdays(context context.Context, ownerID int64, days int) ([]*Contact, error) {
	if days < BirthdayDaysMin {
		days = BirthdayDaysMin
	}
	if days > BirthdayDaysMax {
		days = BirthdayDaysMax
	}

	windows := windowsForRange(time.Now(), days)
	return service.repository.UpcomingBirthdays(context, ownerID, windows)
}

/*
Update validates and persists changes to one of the owner's contacts.

Parameters:
  - context: context.Context
  - ownerID: int64
  - id: int64
  - input: ContactInput

Returns:
  - *Contact: Updated entity
  - error: Validation, NotFound, or storage errors
*/
func (service *Service) Update(context context.Context, ownerID, id int64, input ContactInput) (*Contact, error) {
	if err := input.validate(); err != nil {
		return nil, err
	}

	contact, err := service.repository.GetByID(context, ownerID, id)
	if err != nil {
		return nil, err
	}

	input.apply(contact)

	if err := service.repository.Update(context, contact); err != nil {
		return nil, err
	}

	return contact, nil
}

// Delete removes one of the owner's contacts.
func (service *Service) Delete(context context.Context, ownerID, id int64) error {
	return service.repository.Delete(context, ownerID, id)
}

// # Window Computation

// windowsForRange decomposes [start, start+days] into month-scoped day
// ranges. Iterating day by day keeps leap years and month lengths correct
// for any lookahead the clamp allows.
func windowsForRange(start time.Time, days int) []BirthdayWindow {
	windows := make([]BirthdayWindow, 0, 2)

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	for i := 0; i <= days; i++ {
		month, dayOfMonth := int(day.Month()), day.Day()

		if n := len(windows); n > 0 && windows[n-1].Month == month && windows[n-1].ToDay == dayOfMonth-1 {
			windows[n-1].ToDay = dayOfMonth
		} else {
			windows = append(windows, BirthdayWindow{Month: month, FromDay: dayOfMonth, ToDay: dayOfMonth})
		}

		day = day.AddDate(0, 0, 1)
	}

	return windows
}
