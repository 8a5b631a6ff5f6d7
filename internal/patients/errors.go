package patients

import "errors"

// ErrNotFound is returned when a directory entry does not exist.
var ErrNotFound = errors.New("patients: not found")
