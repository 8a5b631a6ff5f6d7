package appointments

import (
	"regexp"
	"strings"
	"time"
)

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
	StatusCompleted Status = "completed"
)

// Valid reports whether s is one of the known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted:
		return true
	}
	return false
}

// Terminal reports whether s admits no further transitions.
func (s Status) Terminal() bool {
	return s == StatusCancelled || s == StatusCompleted
}

// CanTransition reports whether moving from s to next is allowed:
// pending → confirmed|cancelled, confirmed → completed|cancelled.
func (s Status) CanTransition(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusConfirmed || next == StatusCancelled
	case StatusConfirmed:
		return next == StatusCompleted || next == StatusCancelled
	}
	return false
}

// Appointment is one booked consultation slot.
type Appointment struct {
	ID           string     `json:"id"`
	SpecialtyID  int        `json:"specialty_id"`
	PatientName  string     `json:"patient_name"`
	PatientPhone string     `json:"patient_phone"`
	PatientEmail string     `json:"patient_email,omitempty"`
	Date         string     `json:"date"` // "2006-01-02"
	Time         string     `json:"time"` // "HH:MM"
	Status       Status     `json:"status"`
	Notes        string     `json:"notes"`
	CreatedAt    time.Time  `json:"created_at"`
	ReminderSent bool       `json:"reminder_sent"`
	ReminderDate *time.Time `json:"reminder_date,omitempty"`
}

var (
	dniPattern   = regexp.MustCompile(`^\d{8}$`)
	phonePattern = regexp.MustCompile(`^\d{10}$`)
	timePattern  = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)
	datePattern  = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
)

// CreateRequest is the booking submission payload.
type CreateRequest struct {
	SpecialtyID  int    `json:"specialty_id"`
	PatientName  string `json:"patient_name"`
	PatientPhone string `json:"patient_phone"`
	PatientEmail string `json:"patient_email"`
	DNI          string `json:"dni"`
	Date         string `json:"date"`
	Time         string `json:"time"`
}

// Validate checks the request before any store call is made.
func (r *CreateRequest) Validate() error {
	if r.SpecialtyID <= 0 {
		return &ValidationError{Field: "specialty_id", Reason: "required"}
	}
	if strings.TrimSpace(r.PatientName) == "" {
		return &ValidationError{Field: "patient_name", Reason: "required"}
	}
	if !dniPattern.MatchString(r.DNI) {
		return &ValidationError{Field: "dni", Reason: "must be exactly 8 digits"}
	}
	if !phonePattern.MatchString(r.PatientPhone) {
		return &ValidationError{Field: "patient_phone", Reason: "must be exactly 10 digits"}
	}
	if !datePattern.MatchString(r.Date) {
		return &ValidationError{Field: "date", Reason: "must be YYYY-MM-DD"}
	}
	if !timePattern.MatchString(r.Time) {
		return &ValidationError{Field: "time", Reason: "must be HH:MM"}
	}
	return nil
}

// Notes carried on each appointment embed the national id and the derived
// patient identifier, e.g. "DNI: 12345678 | Paciente ID: PAC-5678-4321".
func buildNotes(dni, patientID string) string {
	return "DNI: " + dni + " | Paciente ID: " + patientID
}

var dniInNotes = regexp.MustCompile(`DNI:\s*(\d+)`)

// DNIFromNotes extracts the national id embedded in an appointment's notes,
// or "" when none is present.
func DNIFromNotes(notes string) string {
	m := dniInNotes.FindStringSubmatch(notes)
	if m == nil {
		return ""
	}
	return m[1]
}

// Stats summarizes appointments by status.
type Stats struct {
	Total     int `json:"total"`
	Pending   int `json:"pending"`
	Confirmed int `json:"confirmed"`
	Cancelled int `json:"cancelled"`
	Completed int `json:"completed"`
}
