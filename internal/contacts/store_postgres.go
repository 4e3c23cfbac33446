// Copyright (c) 2026 Kontakta. All rights reserved.
// Author: v.berko.dev@gmail.com

package contacts

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/vberko/kontakta/internal/platform/apperr"
	"github.com/vberko/kontakta/internal/platform/dberr"
	"github.com/vberko/kontakta/pkg/pagination"
)

const contactColumns = "id, owner_id, first_name, last_name, email, phone, birthday, notes, created_at, updated_at"

// PostgresRepository implements [Repository] using pgx.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL implementation of [Repository].
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create inserts the contact inside a single transaction so a failed read-back
// never leaves a half-written row behind.
func (repository *PostgresRepository) Create(context context.Context, contact *Contact) error {
	const query = `
		INSERT INTO contacts (owner_id, first_name, last_name, email, phone, birthday, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id`

	tx, err := repository.pool.Begin(context)
	if err != nil {
		return dberr.Wrap(err, "contact_create_begin")
	}
	defer func() { _ = tx.Rollback(context) }()

	now := time.Now()
	contact.CreatedAt = now
	contact.UpdatedAt = now

	err = tx.QueryRow(context, query,
		contact.OwnerID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Notes,
		contact.CreatedAt,
		contact.UpdatedAt,
	).Scan(&contact.ID)
	if err != nil {
		return dberr.Wrap(err, "contact_create_insert")
	}

	if err := tx.Commit(context); err != nil {
		return dberr.Wrap(err, "contact_create_commit")
	}

	return nil
}

func (repository *PostgresRepository) GetByID(context context.Context, ownerID, id int64) (*Contact, error) {
	query := fmt.Sprintf(`SELECT %s FROM contacts WHERE id = $1 AND owner_id = $2`, contactColumns)

	contact := &Contact{}
	err := repository.pool.QueryRow(context, query, id, ownerID).Scan(
		&contact.ID,
		&contact.OwnerID,
		&contact.FirstName,
		&contact.LastName,
		&contact.Email,
		&contact.Phone,
		&contact.Birthday,
		&contact.Notes,
		&contact.CreatedAt,
		&contact.UpdatedAt,
	)
	if err != nil {
		return nil, wrapContactErr(err, "contact_get_by_id")
	}

	return contact, nil
}

func (repository *PostgresRepository) List(context context.Context, ownerID int64, params pagination.Params) ([]*Contact, int, error) {
	var total int
	if err := repository.pool.QueryRow(context,
		"SELECT COUNT(*) FROM contacts WHERE owner_id = $1", ownerID,
	).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "contact_list_count")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM contacts
		WHERE owner_id = $1
		ORDER BY last_name ASC, first_name ASC, id ASC
		LIMIT $2 OFFSET $3`, contactColumns)

	rows, err := repository.pool.Query(context, query, ownerID, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "contact_list")
	}
	defer rows.Close()

	results, err := scanContacts(rows)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (repository *PostgresRepository) ListAll(context context.Context, params pagination.Params) ([]*Contact, int, error) {
	var total int
	if err := repository.pool.QueryRow(context, "SELECT COUNT(*) FROM contacts").Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "contact_list_all_count")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM contacts
		ORDER BY owner_id ASC, id ASC
		LIMIT $1 OFFSET $2`, contactColumns)

	rows, err := repository.pool.Query(context, query, params.Limit, params.Offset)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "contact_list_all")
	}
	defer rows.Close()

	results, err := scanContacts(rows)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

func (repository *PostgresRepository) Search(context context.Context, ownerID int64, filter Filter, params pagination.Params) ([]*Contact, int, error) {
	conditions := []string{"owner_id = $1"}
	args := []interface{}{ownerID}

	appendCondition := func(column, value string) {
		args = append(args, value+"%")
		conditions = append(conditions, fmt.Sprintf("%s ILIKE $%d", column, len(args)))
	}

	if filter.FirstName != "" {
		appendCondition("first_name", filter.FirstName)
	}
	if filter.LastName != "" {
		appendCondition("last_name", filter.LastName)
	}
	if filter.Email != "" {
		appendCondition("email", filter.Email)
	}

	where := strings.Join(conditions, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM contacts WHERE " + where
	if err := repository.pool.QueryRow(context, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, dberr.Wrap(err, "contact_search_count")
	}

	query := fmt.Sprintf(`
		SELECT %s FROM contacts
		WHERE %s
		ORDER BY last_name ASC, first_name ASC, id ASC
		LIMIT $%d OFFSET $%d`, contactColumns, where, len(args)+1, len(args)+2)
	args = append(args, params.Limit, params.Offset)

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, 0, dberr.Wrap(err, "contact_search")
	}
	defer rows.Close()

	results, err := scanContacts(rows)
	if err != nil {
		return nil, 0, err
	}

	return results, total, nil
}

// UpcomingBirthdays matches on calendar month and day only, so the stored
// birth year never affects the result.
func (repository *PostgresRepository) UpcomingBirthdays(context context.Context, ownerID int64, windows []BirthdayWindow) ([]*Contact, error) {
	if len(windows) == 0 {
		return []*Contact{}, nil
	}

	args := []interface{}{ownerID}
	clauses := make([]string, 0, len(windows))
	for _, window := range windows {
		args = append(args, window.Month, window.FromDay, window.ToDay)
		base := len(args) - 2
		clauses = append(clauses, fmt.Sprintf(
			"(EXTRACT(MONTH FROM birthday) = $%d AND EXTRACT(DAY FROM birthday) BETWEEN $%d AND $%d)",
			base, base+1, base+2,
		))
	}

	query := fmt.Sprintf(`
		SELECT %s FROM contacts
		WHERE owner_id = $1 AND (%s)
		ORDER BY EXTRACT(MONTH FROM birthday), EXTRACT(DAY FROM birthday), id`,
		contactColumns, strings.Join(clauses, " OR "))

	rows, err := repository.pool.Query(context, query, args...)
	if err != nil {
		return nil, dberr.Wrap(err, "contact_upcoming_birthdays")
	}
	defer rows.Close()

	return scanContacts(rows)
}

func (repository *PostgresRepository) Update(context context.Context, contact *Contact) error {
	const query = `
		UPDATE contacts
		SET first_name = $3, last_name = $4, email = $5, phone = $6, birthday = $7, notes = $8, updated_at = $9
		WHERE id = $1 AND owner_id = $2`

	contact.UpdatedAt = time.Now()
	tag, err := repository.pool.Exec(context, query,
		contact.ID,
		contact.OwnerID,
		contact.FirstName,
		contact.LastName,
		contact.Email,
		contact.Phone,
		contact.Birthday,
		contact.Notes,
		contact.UpdatedAt,
	)
	if err != nil {
		return wrapContactErr(err, "contact_update")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Contact")
	}

	return nil
}

func (repository *PostgresRepository) Delete(context context.Context, ownerID, id int64) error {
	const query = "DELETE FROM contacts WHERE id = $1 AND owner_id = $2"

	tag, err := repository.pool.Exec(context, query, id, ownerID)
	if err != nil {
		return dberr.Wrap(err, "contact_delete")
	}
	if tag.RowsAffected() == 0 {
		return apperr.NotFound("Contact")
	}

	return nil
}

// # Scan Helpers

type contactRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanContacts(rows contactRows) ([]*Contact, error) {
	results := make([]*Contact, 0)
	for rows.Next() {
		contact := &Contact{}
		if err := rows.Scan(
			&contact.ID,
			&contact.OwnerID,
			&contact.FirstName,
			&contact.LastName,
			&contact.Email,
			&contact.Phone,
			&contact.Birthday,
			&contact.Notes,
			&contact.CreatedAt,
			&contact.UpdatedAt,
		); err != nil {
			return nil, dberr.Wrap(err, "contact_scan")
		}
		results = append(results, contact)
	}
	if err := rows.Err(); err != nil {
		return nil, dberr.Wrap(err, "contact_rows")
	}

	return results, nil
}

// wrapContactErr names the missing resource instead of dberr's generic one.
func wrapContactErr(err error, action string) error {
	wrapped := dberr.Wrap(err, action)
	if wrapped == dberr.ErrNotFound {
		return apperr.NotFound("Contact")
	}
	return wrapped
}
