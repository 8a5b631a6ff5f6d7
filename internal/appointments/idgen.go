package appointments

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/mvconsultorios/turnos-api/pkg/logging"
)

// PatientID derives the stable patient identifier from national id and
// phone: "PAC-" + last4(dni) + "-" + last4(phone), each zero-left-padded to
// four digits. Two patients sharing both suffixes collide; that is a
// documented property of the scheme, not a defect to repair here.
func PatientID(dni, phone string) string {
	return "PAC-" + last4(dni) + "-" + last4(phone)
}

func last4(s string) string {
	if len(s) >= 4 {
		return s[len(s)-4:]
	}
	for len(s) < 4 {
		s = "0" + s
	}
	return s
}

// MaxNumberSource yields the highest numeric suffix among ids matching
// TURNO-<digits> already in the store, or 0 when none exist.
type MaxNumberSource interface {
	MaxAssignedNumber(ctx context.Context) (int, error)
}

// TurnoIDs mints human-readable appointment identifiers. The normal scheme
// is "TURNO-NNN" with a monotonically increasing zero-padded suffix read
// from the store; when the store is unreachable it falls back to a 6-digit
// timestamp suffix that is clearly outside the normal numbering.
//
// Two clients racing on read-max-then-insert can mint the same id; there is
// no atomic increment. The race is demonstrated by a test rather than
// papered over.
type TurnoIDs struct {
	source MaxNumberSource
	now    func() time.Time
	logger *logging.Logger
}

// NewTurnoIDs builds a generator over the given store.
func NewTurnoIDs(source MaxNumberSource, logger *logging.Logger) *TurnoIDs {
	if logger == nil {
		logger = logging.Default()
	}
	return &TurnoIDs{source: source, now: time.Now, logger: logger}
}

// Next returns the next appointment id. fallback is true when the store
// could not be consulted and the timestamp scheme was used instead; such ids
// are lower-confidence and outside the sequential numbering.
func (g *TurnoIDs) Next(ctx context.Context) (id string, fallback bool) {
	max, err := g.source.MaxAssignedNumber(ctx)
	if err != nil {
		g.logger.Error("turno id: store unreachable, using timestamp fallback", "error", err)
		ts := strconv.FormatInt(g.now().UnixMilli(), 10)
		return "TURNO-" + ts[len(ts)-6:], true
	}
	return fmt.Sprintf("TURNO-%03d", max+1), false
}
