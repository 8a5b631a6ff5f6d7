package appointments

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB abstracts the pgx query interface for testing.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const apptColumns = `id, specialty_id, patient_name, patient_phone, patient_email, date, time, status, notes, created_at, reminder_sent, reminder_date`

// PostgresRepository stores appointments in the relational database.
type PostgresRepository struct {
	db DB
}

// NewPostgresRepository initializes a repo backed by pgx.
func NewPostgresRepository(db DB) *PostgresRepository {
	if db == nil {
		panic("appointments: pgx db required")
	}
	return &PostgresRepository{db: db}
}

// Create inserts a new row with the caller-supplied id.
func (r *PostgresRepository) Create(ctx context.Context, appt *Appointment) error {
	_, err := r.db.Exec(ctx, `
		INSERT INTO appointments (`+apptColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`,
		appt.ID, appt.SpecialtyID, appt.PatientName, appt.PatientPhone, nullable(appt.PatientEmail),
		appt.Date, appt.Time, string(appt.Status), appt.Notes, appt.CreatedAt, appt.ReminderSent, appt.ReminderDate,
	)
	if err != nil {
		return fmt.Errorf("appointments: insert: %w", err)
	}
	return nil
}

// GetByID fetches one appointment.
func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*Appointment, error) {
	row := r.db.QueryRow(ctx, `SELECT `+apptColumns+` FROM appointments WHERE id = $1`, id)
	appt, err := scanAppointment(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("appointments: select: %w", err)
	}
	return appt, nil
}

// ListAll returns every appointment, newest first.
func (r *PostgresRepository) ListAll(ctx context.Context) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `SELECT `+apptColumns+` FROM appointments ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("appointments: list: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// UpdateStatus sets the status column. Returns false when the id is unknown.
// Transition legality is enforced by the service, not here.
func (r *PostgresRepository) UpdateStatus(ctx context.Context, id string, status Status) (bool, error) {
	tag, err := r.db.Exec(ctx, `UPDATE appointments SET status = $2 WHERE id = $1`, id, string(status))
	if err != nil {
		return false, fmt.Errorf("appointments: update status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

// FindByPatient returns a patient's appointments, newest first.
func (r *PostgresRepository) FindByPatient(ctx context.Context, phone string) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+apptColumns+` FROM appointments
		WHERE patient_phone = $1
		ORDER BY created_at DESC`, phone)
	if err != nil {
		return nil, fmt.Errorf("appointments: find by patient: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// Search matches a case-insensitive substring over name, phone and email.
func (r *PostgresRepository) Search(ctx context.Context, query string) ([]Appointment, error) {
	pattern := "%" + query + "%"
	rows, err := r.db.Query(ctx, `
		SELECT `+apptColumns+` FROM appointments
		WHERE patient_name ILIKE $1 OR patient_phone LIKE $1 OR patient_email ILIKE $1
		ORDER BY created_at DESC`, pattern)
	if err != nil {
		return nil, fmt.Errorf("appointments: search: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// ActiveForSlot reports whether a non-cancelled appointment holds the slot.
func (r *PostgresRepository) ActiveForSlot(ctx context.Context, specialtyID int, date, slot string) (bool, error) {
	var exists bool
	err := r.db.QueryRow(ctx, `
		SELECT EXISTS (
			SELECT 1 FROM appointments
			WHERE specialty_id = $1 AND date = $2 AND time = $3 AND status <> 'cancelled'
		)`, specialtyID, date, slot).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("appointments: slot check: %w", err)
	}
	return exists, nil
}

// MaxAssignedNumber returns the highest numeric suffix among TURNO-NNN ids.
func (r *PostgresRepository) MaxAssignedNumber(ctx context.Context) (int, error) {
	var max int
	err := r.db.QueryRow(ctx, `
		SELECT COALESCE(MAX((substring(id FROM '^TURNO-(\d+)$'))::int), 0)
		FROM appointments
		WHERE id ~ '^TURNO-\d+$'`).Scan(&max)
	if err != nil {
		return 0, fmt.Errorf("appointments: max turno number: %w", err)
	}
	return max, nil
}

// StatusCounts aggregates appointments by status.
func (r *PostgresRepository) StatusCounts(ctx context.Context) (Stats, error) {
	var s Stats
	err := r.db.QueryRow(ctx, `
		SELECT COUNT(*),
			COUNT(*) FILTER (WHERE status = 'pending'),
			COUNT(*) FILTER (WHERE status = 'confirmed'),
			COUNT(*) FILTER (WHERE status = 'cancelled'),
			COUNT(*) FILTER (WHERE status = 'completed')
		FROM appointments`).Scan(&s.Total, &s.Pending, &s.Confirmed, &s.Cancelled, &s.Completed)
	if err != nil {
		return Stats{}, fmt.Errorf("appointments: status counts: %w", err)
	}
	return s, nil
}

// DueReminders returns confirmed, not-yet-reminded appointments on a date.
func (r *PostgresRepository) DueReminders(ctx context.Context, date string) ([]Appointment, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+apptColumns+` FROM appointments
		WHERE date = $1 AND status = 'confirmed' AND NOT reminder_sent
		ORDER BY time`, date)
	if err != nil {
		return nil, fmt.Errorf("appointments: due reminders: %w", err)
	}
	defer rows.Close()
	return collectAppointments(rows)
}

// MarkReminderSent flags an appointment as reminded.
func (r *PostgresRepository) MarkReminderSent(ctx context.Context, id string, at time.Time) error {
	_, err := r.db.Exec(ctx, `
		UPDATE appointments SET reminder_sent = TRUE, reminder_date = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("appointments: mark reminder sent: %w", err)
	}
	return nil
}

// DeleteAll wipes the table; admin-only.
func (r *PostgresRepository) DeleteAll(ctx context.Context) error {
	if _, err := r.db.Exec(ctx, `DELETE FROM appointments`); err != nil {
		return fmt.Errorf("appointments: delete all: %w", err)
	}
	return nil
}

func scanAppointment(row pgx.Row) (*Appointment, error) {
	var appt Appointment
	var email *string
	var date time.Time
	var status string
	if err := row.Scan(
		&appt.ID, &appt.SpecialtyID, &appt.PatientName, &appt.PatientPhone, &email,
		&date, &appt.Time, &status, &appt.Notes, &appt.CreatedAt, &appt.ReminderSent, &appt.ReminderDate,
	); err != nil {
		return nil, err
	}
	if email != nil {
		appt.PatientEmail = *email
	}
	appt.Date = date.Format("2006-01-02")
	appt.Status = Status(status)
	return &appt, nil
}

func collectAppointments(rows pgx.Rows) ([]Appointment, error) {
	var out []Appointment
	for rows.Next() {
		appt, err := scanAppointment(rows)
		if err != nil {
			return nil, fmt.Errorf("appointments: scan: %w", err)
		}
		out = append(out, *appt)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("appointments: iterate: %w", err)
	}
	return out, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
