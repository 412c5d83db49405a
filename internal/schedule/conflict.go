package schedule

import (
	"context"
	"time"

	"github.com/gpneto/Clinica360-sub004/pkg/logging"
)

// BusyLister returns the occupied intervals for a professional: bookings in
// a status that holds the slot (scheduled, confirmed, or a calendar block).
type BusyLister interface {
	ListBusy(ctx context.Context, tenantID, professionalID string) ([]Range, error)
}

// Detector answers "does this candidate interval collide with an existing
// booking". It is consulted twice per booking: once when the slot is picked
// and once immediately before the record is created, to close the race
// between listing and confirmation.
type Detector struct {
	busy   BusyLister
	logger *logging.Logger
}

// NewDetector builds a conflict detector over the booking store.
func NewDetector(busy BusyLister, logger *logging.Logger) *Detector {
	if busy == nil {
		panic("schedule: busy lister cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Detector{busy: busy, logger: logger.Component("conflict")}
}

// HasConflict reports whether [start, end) overlaps any occupied interval.
// A store failure counts as a conflict.
func (d *Detector) HasConflict(ctx context.Context, tenantID, professionalID string, start, end time.Time) bool {
	occupied, err := d.busy.ListBusy(ctx, tenantID, professionalID)
	if err != nil {
		d.logger.Warn("busy interval lookup failed, treating as conflict",
			"tenant_id", tenantID, "professional_id", professionalID, "error", err)
		return true
	}

	candidate := Range{Start: start, End: end}
	for _, r := range occupied {
		if candidate.Overlaps(r) {
			return true
		}
	}
	return false
}
