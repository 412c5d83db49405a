package reminders

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/gpneto/Clinica360-sub004/internal/bookings"
	"github.com/gpneto/Clinica360-sub004/internal/clinic"
)

func bookingStartingIn(minutes int, now time.Time) *bookings.Booking {
	start := now.Add(time.Duration(minutes) * time.Minute)
	return &bookings.Booking{
		TenantID:       "tenant-1",
		ID:             "bkg-1",
		ProfessionalID: "prof-1",
		Start:          start,
		End:            start.Add(30 * time.Minute),
		Status:         bookings.StatusScheduled,
	}
}

func TestDueKindWindows(t *testing.T) {
	now := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	settings := clinic.DefaultSettings()

	cases := []struct {
		minutes int
		kind    bookings.ReminderKind
		due     bool
	}{
		{1440, bookings.Reminder24h, true},
		{1410, bookings.Reminder24h, true},
		{1470, bookings.Reminder24h, true},
		{1409, "", false},
		{1471, "", false},
		{60, bookings.Reminder1h, true},
		{45, bookings.Reminder1h, true},
		{75, bookings.Reminder1h, true},
		{44, "", false},
		{76, "", false},
		{500, "", false},
		{-10, "", false},
	}
	for _, tc := range cases {
		kind, due := dueKind(settings, bookingStartingIn(tc.minutes, now), now)
		assert.Equal(t, tc.due, due, "minutes: %d", tc.minutes)
		assert.Equal(t, tc.kind, kind, "minutes: %d", tc.minutes)
	}
}

func TestDueKindRespectsToggles(t *testing.T) {
	now := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)

	settings := clinic.DefaultSettings()
	settings.Reminder24hEnabled = false
	_, due := dueKind(settings, bookingStartingIn(1440, now), now)
	assert.False(t, due)

	settings = clinic.DefaultSettings()
	settings.Reminder1hEnabled = false
	_, due = dueKind(settings, bookingStartingIn(60, now), now)
	assert.False(t, due)
}

func TestDueKindSkipsAlreadySent(t *testing.T) {
	now := time.Date(2026, time.September, 1, 9, 0, 0, 0, time.UTC)
	settings := clinic.DefaultSettings()

	booking := bookingStartingIn(1440, now)
	booking.Reminder24hSent = true
	_, due := dueKind(settings, booking, now)
	assert.False(t, due)

	booking = bookingStartingIn(60, now)
	booking.Reminder1hSent = true
	_, due = dueKind(settings, booking, now)
	assert.False(t, due)
}

func TestAllDue(t *testing.T) {
	settings := clinic.DefaultSettings()
	booking := &bookings.Booking{}
	assert.False(t, allDue(settings, booking))

	booking.Reminder24hSent = true
	assert.False(t, allDue(settings, booking))

	booking.Reminder1hSent = true
	assert.True(t, allDue(settings, booking))

	// A disabled kind is never required.
	settings.Reminder1hEnabled = false
	assert.True(t, allDue(settings, &bookings.Booking{Reminder24hSent: true}))
}

func TestWindowLabel(t *testing.T) {
	assert.Equal(t, "24 horas", windowLabel(bookings.Reminder24h))
	assert.Equal(t, "1 hora", windowLabel(bookings.Reminder1h))
}
