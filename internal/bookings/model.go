package bookings

import (
	"errors"
	"fmt"
	"time"
)

// Status is a booking's lifecycle state. Block entries hold a slot on the
// calendar but are never reminded.
type Status string

const (
	StatusScheduled Status = "scheduled"
	StatusConfirmed Status = "confirmed"
	StatusCompleted Status = "completed"
	StatusCanceled  Status = "canceled"
	StatusNoShow    Status = "no_show"
	StatusBlock     Status = "block"
)

// ReminderKind identifies one of the two reminder sends.
type ReminderKind string

const (
	Reminder24h ReminderKind = "24h"
	Reminder1h  ReminderKind = "1h"
)

// ErrDataIntegrity marks a stored record missing fields the core cannot work
// without. Callers skip the record and keep going.
var ErrDataIntegrity = errors.New("bookings: data integrity violation")

// ErrNotFound indicates the requested booking does not exist.
var ErrNotFound = errors.New("bookings: not found")

// ErrReservationLost means the atomic reminder reservation was refused:
// the flag is already set or another sweep holds a fresh lock.
var ErrReservationLost = errors.New("bookings: reminder reservation lost")

// Booking is one scheduled visit. Start and End are stored as epoch seconds
// so range filters and lock-staleness comparisons stay numeric.
type Booking struct {
	TenantID       string       `dynamodbav:"tenantId"`
	ID             string       `dynamodbav:"id"`
	ProfessionalID string       `dynamodbav:"professionalId"`
	PatientID      string       `dynamodbav:"patientId,omitempty"`
	ServiceIDs     []string     `dynamodbav:"serviceIds,omitempty"`
	Start          time.Time    `dynamodbav:"start,unixtime"`
	End            time.Time    `dynamodbav:"end,unixtime"`
	PriceCents     int64        `dynamodbav:"priceCents,omitempty"`
	Status         Status       `dynamodbav:"status"`
	CreatedVia     string       `dynamodbav:"createdVia,omitempty"`

	Reminder24hSent   bool       `dynamodbav:"reminder24hSent,omitempty"`
	Reminder24hSentAt *time.Time `dynamodbav:"reminder24hSentAt,unixtime,omitempty"`
	Reminder1hSent    bool       `dynamodbav:"reminder1hSent,omitempty"`
	Reminder1hSentAt  *time.Time `dynamodbav:"reminder1hSentAt,unixtime,omitempty"`
	Notified          bool       `dynamodbav:"notified"`
	NotifiedAt        *time.Time `dynamodbav:"notifiedAt,unixtime,omitempty"`
	SkipReason        string     `dynamodbav:"skipReason,omitempty"`

	LockedAt          *time.Time `dynamodbav:"lockedAt,unixtime,omitempty"`
	LockedType        string     `dynamodbav:"lockedType,omitempty"`
	NotificationError string     `dynamodbav:"notificationError,omitempty"`
	RetryCount        int        `dynamodbav:"retryCount,omitempty"`

	CreatedAt string `dynamodbav:"createdAt,omitempty"`
	UpdatedAt string `dynamodbav:"updatedAt,omitempty"`
}

// Validate fails fast on records that would propagate undefined state deeper
// into the core.
func (b *Booking) Validate() error {
	if b == nil {
		return fmt.Errorf("%w: nil booking", ErrDataIntegrity)
	}
	switch {
	case b.TenantID == "":
		return fmt.Errorf("%w: missing tenantId", ErrDataIntegrity)
	case b.ID == "":
		return fmt.Errorf("%w: missing id", ErrDataIntegrity)
	case b.ProfessionalID == "":
		return fmt.Errorf("%w: missing professionalId", ErrDataIntegrity)
	case b.Start.IsZero():
		return fmt.Errorf("%w: missing start", ErrDataIntegrity)
	case !b.End.After(b.Start):
		return fmt.Errorf("%w: end not after start", ErrDataIntegrity)
	case b.Status == "":
		return fmt.Errorf("%w: missing status", ErrDataIntegrity)
	}
	return nil
}

// Occupies reports whether the booking holds its slot against new bookings.
func (b *Booking) Occupies() bool {
	switch b.Status {
	case StatusScheduled, StatusConfirmed, StatusBlock:
		return true
	}
	return false
}

// Remindable reports whether the booking participates in reminder sweeps at
// all. Blocks and terminal statuses never do.
func (b *Booking) Remindable() bool {
	switch b.Status {
	case StatusScheduled, StatusConfirmed:
		return true
	}
	return false
}

// ReminderSent reports whether the given kind has already gone out.
func (b *Booking) ReminderSent(kind ReminderKind) bool {
	if kind == Reminder24h {
		return b.Reminder24hSent
	}
	return b.Reminder1hSent
}
