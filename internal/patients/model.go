package patients

import (
	"strings"
	"time"
)

// User is a directory entry built up from bookings. A patient is created on
// their first appointment and updated on every later one.
type User struct {
	ID                string     `json:"id"`
	FirstName         string     `json:"first_name"`
	LastName          string     `json:"last_name"`
	DNI               string     `json:"dni"`
	Phone             string     `json:"phone"`
	Email             string     `json:"email,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	LastVisit         *time.Time `json:"last_visit,omitempty"`
	TotalAppointments int        `json:"total_appointments"`
	IsActive          bool       `json:"is_active"`
}

// FullName joins the stored name parts.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// Stats summarizes the directory.
type Stats struct {
	Total        int `json:"total"`
	Active       int `json:"active"`
	Inactive     int `json:"inactive"`
	NewThisMonth int `json:"new_this_month"`
}

// splitName breaks a free-form patient name into first and last parts. The
// first word is the first name, everything after it the last name.
func splitName(name string) (first, last string) {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "", ""
	}
	return fields[0], strings.Join(fields[1:], " ")
}
