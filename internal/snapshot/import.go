// Package snapshot imports data exported from the legacy browser-side
// storage: one JSON document holding users, appointments and custom
// availability windows.
package snapshot

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mvconsultorios/turnos-api/internal/appointments"
	"github.com/mvconsultorios/turnos-api/internal/availability"
	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// Snapshot is the exported document. Field names match the legacy export
// format.
type Snapshot struct {
	Users              []UserRecord         `json:"users"`
	Appointments       []AppointmentRecord  `json:"appointments"`
	CustomAvailability []AvailabilityRecord `json:"customAvailability"`
}

// UserRecord is a legacy directory entry.
type UserRecord struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	LastName string `json:"lastName"`
	DNI      string `json:"dni"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
}

// AppointmentRecord is a legacy appointment.
type AppointmentRecord struct {
	ID           string `json:"id"`
	SpecialtyID  int    `json:"specialtyId"`
	PatientName  string `json:"patientName"`
	PatientPhone string `json:"patientPhone"`
	PatientEmail string `json:"patientEmail"`
	Date         string `json:"date"`
	Time         string `json:"time"`
	Status       string `json:"status"`
	Notes        string `json:"notes"`
	CreatedAt    string `json:"createdAt"`
	ReminderSent bool   `json:"reminderSent"`
}

// AvailabilityRecord is a legacy availability window.
type AvailabilityRecord struct {
	ID          string `json:"id"`
	SpecialtyID int    `json:"specialtyId"`
	Date        string `json:"date"`
	StartTime   string `json:"startTime"`
	EndTime     string `json:"endTime"`
	IsActive    bool   `json:"isActive"`
}

// Result reports one section of the import. Per-record failures collect into
// Errors without aborting the rest of the section.
type Result struct {
	Success bool     `json:"success"`
	Count   int      `json:"count"`
	Errors  []string `json:"errors"`
}

// Summary reports the whole import.
type Summary struct {
	Success      bool   `json:"success"`
	Users        Result `json:"users"`
	Appointments Result `json:"appointments"`
	Availability Result `json:"availability"`
}

// PatientRecorder receives imported directory entries.
type PatientRecorder interface {
	RecordVisit(ctx context.Context, name, dni, phone, email string) error
}

// AppointmentStore receives imported appointments.
type AppointmentStore interface {
	Create(ctx context.Context, appt *appointments.Appointment) error
}

// OverrideStore receives imported availability windows.
type OverrideStore interface {
	Add(ctx context.Context, ov *availability.Override) error
}

// Importer loads a legacy snapshot into the relational stores.
type Importer struct {
	patients     PatientRecorder
	appointments AppointmentStore
	overrides    OverrideStore
	logger       *logging.Logger
}

// NewImporter wires the destinations. Any nil destination skips its section.
func NewImporter(patients PatientRecorder, appts AppointmentStore, overrides OverrideStore, logger *logging.Logger) *Importer {
	if logger == nil {
		logger = logging.Default()
	}
	return &Importer{patients: patients, appointments: appts, overrides: overrides, logger: logger}
}

// Import parses the snapshot document and loads every section. Bad records
// are reported and skipped without aborting the rest; a section succeeds when
// every one of its records landed.
func (i *Importer) Import(ctx context.Context, data []byte) (*Summary, error) {
	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("snapshot: parse: %w", err)
	}

	summary := &Summary{
		Users:        i.importUsers(ctx, snap.Users),
		Appointments: i.importAppointments(ctx, snap.Appointments),
		Availability: i.importAvailability(ctx, snap.CustomAvailability),
	}
	summary.Success = summary.Users.Success && summary.Appointments.Success && summary.Availability.Success

	i.logger.Info("snapshot import finished",
		"users", summary.Users.Count,
		"appointments", summary.Appointments.Count,
		"availability", summary.Availability.Count,
		"success", summary.Success,
	)
	return summary, nil
}

func (i *Importer) importUsers(ctx context.Context, users []UserRecord) Result {
	res := Result{Success: true}
	if i.patients == nil {
		return res
	}
	for _, u := range users {
		name := strings.TrimSpace(u.Name + " " + u.LastName)
		if name == "" || u.Phone == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("usuario %s: faltan datos", u.ID))
			continue
		}
		if err := i.patients.RecordVisit(ctx, name, u.DNI, u.Phone, u.Email); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("usuario %s: %v", u.ID, err))
			continue
		}
		res.Count++
	}
	res.Success = len(res.Errors) == 0
	return res
}

func (i *Importer) importAppointments(ctx context.Context, records []AppointmentRecord) Result {
	res := Result{Success: true}
	if i.appointments == nil {
		return res
	}
	for _, rec := range records {
		status := appointments.Status(rec.Status)
		if rec.ID == "" || !status.Valid() {
			res.Errors = append(res.Errors, fmt.Sprintf("turno %s: estado %q inválido", rec.ID, rec.Status))
			continue
		}
		createdAt, err := parseTimestamp(rec.CreatedAt)
		if err != nil {
			createdAt = time.Now().UTC()
		}
		appt := &appointments.Appointment{
			ID:           rec.ID,
			SpecialtyID:  rec.SpecialtyID,
			PatientName:  rec.PatientName,
			PatientPhone: rec.PatientPhone,
			PatientEmail: rec.PatientEmail,
			Date:         rec.Date,
			Time:         rec.Time,
			Status:       status,
			Notes:        rec.Notes,
			CreatedAt:    createdAt,
			ReminderSent: rec.ReminderSent,
		}
		if err := i.appointments.Create(ctx, appt); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("turno %s: %v", rec.ID, err))
			continue
		}
		res.Count++
	}
	res.Success = len(res.Errors) == 0
	return res
}

func (i *Importer) importAvailability(ctx context.Context, records []AvailabilityRecord) Result {
	res := Result{Success: true}
	if i.overrides == nil {
		return res
	}
	for _, rec := range records {
		if rec.SpecialtyID <= 0 || rec.Date == "" {
			res.Errors = append(res.Errors, fmt.Sprintf("disponibilidad %s: faltan datos", rec.ID))
			continue
		}
		ov := &availability.Override{
			SpecialtyID: rec.SpecialtyID,
			Date:        rec.Date,
			StartTime:   rec.StartTime,
			EndTime:     rec.EndTime,
			IsActive:    rec.IsActive,
		}
		if err := i.overrides.Add(ctx, ov); err != nil {
			res.Errors = append(res.Errors, fmt.Sprintf("disponibilidad %s: %v", rec.ID, err))
			continue
		}
		res.Count++
	}
	res.Success = len(res.Errors) == 0
	return res
}

func parseTimestamp(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("snapshot: unrecognized timestamp %q", s)
}
