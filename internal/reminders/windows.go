package reminders

import (
	"time"

	"github.com/gpneto/Clinica360-sub004/internal/bookings"
	"github.com/gpneto/Clinica360-sub004/internal/clinic"
)

// Reminder windows, in minutes before the booking start. The 24h window is
// wide enough that a sweep delayed by up to half an hour on either side still
// catches the booking exactly once.
const (
	window24hMin = 1410
	window24hMax = 1470
	window1hMin  = 45
	window1hMax  = 75
)

// dueKind returns which reminder is due for a booking right now. The 24h
// reminder is evaluated first and wins when both windows would somehow apply;
// a kind already sent is never due again.
func dueKind(settings clinic.Settings, booking *bookings.Booking, now time.Time) (bookings.ReminderKind, bool) {
	minutes := booking.Start.Sub(now).Minutes()

	if settings.Reminder24hEnabled && !booking.Reminder24hSent &&
		minutes >= window24hMin && minutes <= window24hMax {
		return bookings.Reminder24h, true
	}
	if settings.Reminder1hEnabled && !booking.Reminder1hSent &&
		minutes >= window1hMin && minutes <= window1hMax {
		return bookings.Reminder1h, true
	}
	return "", false
}

// allDue reports whether every enabled reminder has already gone out, i.e.
// the booking needs no further sweeps.
func allDue(settings clinic.Settings, booking *bookings.Booking) bool {
	if settings.Reminder24hEnabled && !booking.Reminder24hSent {
		return false
	}
	if settings.Reminder1hEnabled && !booking.Reminder1hSent {
		return false
	}
	return true
}

// windowLabel is the human text interpolated into the reminder template.
func windowLabel(kind bookings.ReminderKind) string {
	if kind == bookings.Reminder24h {
		return "24 horas"
	}
	return "1 hora"
}
