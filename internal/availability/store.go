package availability

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

// Store persists availability overrides in the custom_availability table.
type Store struct {
	db DB
}

// NewStore creates an override store backed by pgx.
func NewStore(db DB) *Store {
	return &Store{db: db}
}

// Add inserts a new override. A zero ID is assigned; CreatedAt is set to now.
func (s *Store) Add(ctx context.Context, ov *Override) error {
	if ov.ID == "" {
		ov.ID = uuid.NewString()
	}
	ov.CreatedAt = time.Now().UTC()
	_, err := s.db.Exec(ctx, `
		INSERT INTO custom_availability (id, specialty_id, date, start_time, end_time, is_active, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		ov.ID, ov.SpecialtyID, ov.Date, ov.StartTime, ov.EndTime, ov.IsActive, ov.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("availability: insert override: %w", err)
	}
	return nil
}

// ActiveForDate returns the effective override for a (specialty, date) pair.
// If several rows match, the first in storage order wins; this is the
// documented tie-break for duplicate overrides.
func (s *Store) ActiveForDate(ctx context.Context, specialtyID int, date string) (*Override, error) {
	row := s.db.QueryRow(ctx, `
		SELECT id, specialty_id, date, start_time, end_time, is_active, created_at
		FROM custom_availability
		WHERE specialty_id = $1 AND date = $2 AND is_active
		ORDER BY created_at, id
		LIMIT 1`, specialtyID, date)
	ov, err := scanOverride(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("availability: load override: %w", err)
	}
	return ov, nil
}

// ListBySpecialty returns every override registered for a specialty, newest
// first, including inactive ones so the admin panel can show history.
func (s *Store) ListBySpecialty(ctx context.Context, specialtyID int) ([]Override, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, specialty_id, date, start_time, end_time, is_active, created_at
		FROM custom_availability
		WHERE specialty_id = $1
		ORDER BY created_at DESC`, specialtyID)
	if err != nil {
		return nil, fmt.Errorf("availability: list overrides: %w", err)
	}
	defer rows.Close()
	return collectOverrides(rows)
}

// ListAll returns every override, newest first.
func (s *Store) ListAll(ctx context.Context) ([]Override, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, specialty_id, date, start_time, end_time, is_active, created_at
		FROM custom_availability
		ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("availability: list overrides: %w", err)
	}
	defer rows.Close()
	return collectOverrides(rows)
}

// Deactivate soft-disables an override. Returns false when the id is unknown.
func (s *Store) Deactivate(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `UPDATE custom_availability SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("availability: deactivate override: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// DeleteAll empties the table; used by the admin data wipe.
func (s *Store) DeleteAll(ctx context.Context) error {
	if _, err := s.db.Exec(ctx, `DELETE FROM custom_availability`); err != nil {
		return fmt.Errorf("availability: delete all overrides: %w", err)
	}
	return nil
}

// Delete removes an override row. Returns false when the id is unknown.
func (s *Store) Delete(ctx context.Context, id string) (bool, error) {
	tag, err := s.db.Exec(ctx, `DELETE FROM custom_availability WHERE id = $1`, id)
	if err != nil {
		return false, fmt.Errorf("availability: delete override: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func scanOverride(row pgx.Row) (*Override, error) {
	var ov Override
	var date time.Time
	if err := row.Scan(&ov.ID, &ov.SpecialtyID, &date, &ov.StartTime, &ov.EndTime, &ov.IsActive, &ov.CreatedAt); err != nil {
		return nil, err
	}
	ov.Date = date.Format(DateLayout)
	return &ov, nil
}

func collectOverrides(rows pgx.Rows) ([]Override, error) {
	var out []Override
	for rows.Next() {
		ov, err := scanOverride(rows)
		if err != nil {
			return nil, fmt.Errorf("availability: scan override: %w", err)
		}
		out = append(out, *ov)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("availability: iterate overrides: %w", err)
	}
	return out, nil
}
