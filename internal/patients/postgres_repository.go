package patients

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const userColumns = `id, first_name, last_name, dni, phone, email, created_at, last_visit, total_appointments, is_active`

// PostgresRepository stores the patient directory in the relational database.
type PostgresRepository struct {
	db  DB
	now func() time.Time
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("patients: pgx db required")
	}
	return &PostgresRepository{db: db, now: time.Now}
}

// RecordVisit upserts the patient keyed by dni or phone. A match on either
// refreshes the entry and bumps the appointment counter; otherwise a new row
// is inserted. The two-key match rules out ON CONFLICT, so this is a lookup
// followed by an update or insert.
func (r *PostgresRepository) RecordVisit(ctx context.Context, name, dni, phone, email string) error {
	now := r.now().UTC()
	first, last := splitName(name)

	var id string
	err := r.db.QueryRow(ctx, `SELECT id FROM users WHERE dni = $1 OR phone = $2 LIMIT 1`, dni, phone).Scan(&id)
	switch {
	case err == nil:
		_, err = r.db.Exec(ctx, `
			UPDATE users SET
				first_name = $2,
				last_name = $3,
				phone = $4,
				email = COALESCE(NULLIF($5, ''), email),
				last_visit = $6,
				total_appointments = total_appointments + 1,
				is_active = TRUE
			WHERE id = $1`,
			id, first, last, phone, email, now)
		if err != nil {
			return fmt.Errorf("patients: update visit: %w", err)
		}
		return nil
	case errors.Is(err, pgx.ErrNoRows):
		_, err = r.db.Exec(ctx, `
			INSERT INTO users (`+userColumns+`)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8, 1, TRUE)`,
			uuid.NewString(), first, last, dni, phone, nullable(email), now, now)
		if err != nil {
			return fmt.Errorf("patients: insert: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("patients: lookup: %w", err)
	}
}

// GetByPhone fetches one directory entry.
func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*User, error) {
	row := r.db.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone = $1`, phone)
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("patients: select: %w", err)
	}
	return u, nil
}

// ListAll returns the directory, most recent visit first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY last_visit DESC NULLS LAST`)
	if err != nil {
		return nil, fmt.Errorf("patients: list: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// Search matches a case-insensitive substring over name, phone and dni.
func (r *PostgresRepository) Search(ctx context.Context, query string) ([]User, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		WHERE first_name || ' ' || last_name ILIKE $1 OR phone LIKE $1 OR dni LIKE $1
		ORDER BY last_visit DESC NULLS LAST`, pattern)
	if err != nil {
		return nil, fmt.Errorf("patients: search: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// Stats summarizes the directory. "New this month" counts entries created in
// the trailing month.
func (r *PostgresRepository) Stats(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE is_active),
			COUNT(*) FILTER (WHERE NOT is_active),
			COUNT(*) FILTER (WHERE created_at > NOW() - INTERVAL '1 month')
		FROM users`).Scan(&s.Total, &s.Active, &s.Inactive, &s.NewThisMonth)
	if err != nil {
		return Stats{}, fmt.Errorf("patients: stats: %w", err)
	}
	return s, nil
}

// MostFrequent returns the patients with the most appointments.
func (r *PostgresRepository) MostFrequent(ctx context.Context, limit int) ([]User, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+userColumns+` FROM users
		ORDER BY total_appointments DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("patients: most frequent: %w", err)
	}
	defer rows.Close()
	return collectUsers(rows)
}

// Deactivate hides a patient from the active directory without deleting
// history. Returns false when the id is unknown.
func (r *PostgresRepository) Deactivate(ctx context.Context, id string) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE users SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("patients: deactivate: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAll wipes the directory; admin-only.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM users`); err != nil {
		return fmt.Errorf("patients: delete all: %w", err)
	}
	return nil
}

func scanUser(row pgx.Row) (*User, error) {
	var u User
	var email *string
	if err := row.Scan(
		&u.ID, &u.FirstName, &u.LastName, &u.DNI, &u.Phone, &email,
		&u.CreatedAt, &u.LastVisit, &u.TotalAppointments, &u.IsActive,
	); err != nil {
		return nil, err
	}
	if email != nil {
		u.Email = *email
	}
	return &u, nil
}

func collectUsers(rows pgx.Rows) ([]User, error) {
	var out []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("patients: scan: %w", err)
		}
		out = append(out, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("patients: iterate: %w", err)
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
