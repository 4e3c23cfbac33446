// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package contacts

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"

	"github.com/vberko/kontakta/internal/platform/validate"
)

// Contact is a single address-book entry owned by exactly one user.
//
// # Tenant Isolation
//
// OwnerID is the isolation boundary: every storage operation filters on it,
// and a contact belonging to another user is indistinguishable from a
// nonexistent one (404, never 403).
type Contact struct {
	ID        int64     `json:"id"`
	OwnerID   int64     `json:"owner_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone,omitempty"`
	Birthday  Date      `json:"birthday"`
	Notes     string    `json:"notes,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Filter holds the optional search criteria for contact lookups.
//
// Matching is case-insensitive prefix matching per field; criteria combine
// with AND.
type Filter struct {
	FirstName string
	LastName  string
	Email     string
}

// Empty reports whether no criterion is set.
func (filter Filter) Empty() bool {
	return filter.FirstName == "" && filter.LastName == "" && filter.Email == ""
}

// # Date (wire format YYYY-MM-DD)

// Date is a calendar date without a time component.
//
// It marshals to/from the YYYY-MM-DD wire format and maps to the Postgres
// DATE column type.
type Date struct {
	time.Time
}

// NewDate builds a Date from calendar components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// MarshalJSON renders the date as a quoted YYYY-MM-DD string.
func (date Date) MarshalJSON() ([]byte, error) {
	return []byte(`"` + date.Format(validate.DateLayout) + `"`), nil
}

// UnmarshalJSON parses a quoted YYYY-MM-DD string.
func (date *Date) UnmarshalJSON(data []byte) error {
	raw := strings.Trim(string(data), `"`)
	parsed, err := time.Parse(validate.DateLayout, raw)
	if err != nil {
		return fmt.Errorf("contacts: invalid date %q: %w", raw, err)
	}
	date.Time = parsed
	return nil
}

// Scan implements sql.Scanner for DATE columns.
func (date *Date) Scan(src interface{}) error {
	switch value := src.(type) {
	case time.Time:
		date.Time = value
		return nil
	case string:
		parsed, err := time.Parse(validate.DateLayout, value)
		if err != nil {
			return fmt.Errorf("contacts: cannot scan date %q: %w", value, err)
		}
		date.Time = parsed
		return nil
	default:
		return fmt.Errorf("contacts: cannot scan %T into Date", src)
	}
}

// Value implements driver.Valuer for DATE columns.
func (date Date) Value() (driver.Value, error) {
	return date.Time, nil
}

// # Field Names (JSON / validation keys)

const (
	FieldFirstName = "first_name"
	FieldLastName  = "last_name"
	FieldEmail     = "email"
	FieldPhone     = "phone"
	FieldBirthday  = "birthday"
	FieldNotes     = "notes"
	FieldLimit     = "limit"
)
