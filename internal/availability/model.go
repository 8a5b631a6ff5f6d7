package availability

import "time"

// Override replaces a specialty's default hour grid for a single calendar
// date. When active it fully replaces the weekly hours; it never merges with
// them. Slots are generated by stepping from StartTime to EndTime
// (end-exclusive) in fixed increments.
type Override struct {
	ID          string    `json:"id"`
	SpecialtyID int       `json:"specialty_id"`
	Date        string    `json:"date"`       // "2006-01-02"
	StartTime   string    `json:"start_time"` // "HH:MM"
	EndTime     string    `json:"end_time"`   // "HH:MM"
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}
