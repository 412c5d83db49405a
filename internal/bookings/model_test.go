package bookings

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func validBooking() *Booking {
	start := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	return &Booking{
		TenantID:       "t1",
		ID:             "b1",
		ProfessionalID: "p1",
		PatientID:      "pat1",
		Start:          start,
		End:            start.Add(time.Hour),
		Status:         StatusScheduled,
	}
}

func TestValidate(t *testing.T) {
	assert.NoError(t, validBooking().Validate())

	cases := map[string]func(*Booking){
		"missing tenant":       func(b *Booking) { b.TenantID = "" },
		"missing id":           func(b *Booking) { b.ID = "" },
		"missing professional": func(b *Booking) { b.ProfessionalID = "" },
		"missing start":        func(b *Booking) { b.Start = time.Time{}; b.End = time.Time{} },
		"end before start":     func(b *Booking) { b.End = b.Start.Add(-time.Minute) },
		"end equals start":     func(b *Booking) { b.End = b.Start },
		"missing status":       func(b *Booking) { b.Status = "" },
	}
	for name, mutate := range cases {
		b := validBooking()
		mutate(b)
		err := b.Validate()
		assert.ErrorIs(t, err, ErrDataIntegrity, name)
	}

	var nilBooking *Booking
	assert.ErrorIs(t, nilBooking.Validate(), ErrDataIntegrity)
}

func TestOccupies(t *testing.T) {
	b := validBooking()
	for status, want := range map[Status]bool{
		StatusScheduled: true,
		StatusConfirmed: true,
		StatusBlock:     true,
		StatusCanceled:  false,
		StatusCompleted: false,
		StatusNoShow:    false,
	} {
		b.Status = status
		assert.Equal(t, want, b.Occupies(), status)
	}
}

func TestRemindable(t *testing.T) {
	b := validBooking()
	b.Status = StatusBlock
	assert.False(t, b.Remindable(), "blocks hold slots but are never reminded")
	b.Status = StatusConfirmed
	assert.True(t, b.Remindable())
}

func TestReminderSent(t *testing.T) {
	b := validBooking()
	b.Reminder24hSent = true
	assert.True(t, b.ReminderSent(Reminder24h))
	assert.False(t, b.ReminderSent(Reminder1h))
}
