package schedule

import (
	"testing"
	"time"

	"github.com/gpneto/Clinica360-sub004/internal/clinic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wednesday is 2026-09-02, a Wednesday.
var wednesday = time.Date(2026, 9, 2, 0, 0, 0, 0, time.UTC)

func slotStarts(slots []Slot) []string {
	starts := make([]string, len(slots))
	for i, s := range slots {
		starts[i] = s.Start
	}
	return starts
}

func TestSlotsAroundExistingBooking(t *testing.T) {
	// 60-minute service, default Mon-Fri 08:00-18:00 window, one booking
	// 10:00-11:00.
	busyStart := time.Date(2026, 9, 2, 10, 0, 0, 0, time.UTC)
	slots := Slots(SlotRequest{
		Date:     wednesday,
		Duration: time.Hour,
		Busy:     []Range{{Start: busyStart, End: busyStart.Add(time.Hour)}},
	})

	starts := slotStarts(slots)
	assert.Contains(t, starts, "08:00")
	assert.Contains(t, starts, "11:00")
	assert.NotContains(t, starts, "09:30", "09:30-10:30 overlaps the booking")
	assert.NotContains(t, starts, "10:00")
	assert.NotContains(t, starts, "10:45")

	// 09:00-10:00 touches the booking at its start and is fine.
	assert.Contains(t, starts, "09:00")
}

func TestSlotsNonWorkingDay(t *testing.T) {
	sunday := time.Date(2026, 9, 6, 0, 0, 0, 0, time.UTC)
	assert.Empty(t, Slots(SlotRequest{Date: sunday}))
}

func TestSlotsCursorAndClosingClamp(t *testing.T) {
	slots := Slots(SlotRequest{
		Date: wednesday,
		Work: WorkWindow{Weekdays: []int{3}, Open: "09:00", Close: "10:00"},
	})
	// 30-minute default duration: 09:00, 09:15, 09:30 fit; 09:45 would end
	// at 10:15, past closing.
	assert.Equal(t, []string{"09:00", "09:15", "09:30"}, slotStarts(slots))
	assert.Equal(t, "09:30", slots[0].End)
}

func TestSlotsDaySpecificRuleWins(t *testing.T) {
	slots := Slots(SlotRequest{
		Date: wednesday,
		Hours: clinic.BusinessHours{Days: []clinic.DayHours{
			{Weekday: 1, Open: "07:00", Close: "20:00", Active: true},
			{Weekday: 3, Open: "14:00", Close: "15:00", Active: true},
		}},
	})
	require.NotEmpty(t, slots)
	assert.Equal(t, "14:00", slots[0].Start)
	assert.Equal(t, "14:30", slots[len(slots)-1].Start)
}

func TestSlotsInactiveDayRuleFallsBackToFirst(t *testing.T) {
	slots := Slots(SlotRequest{
		Date: wednesday,
		Hours: clinic.BusinessHours{Days: []clinic.DayHours{
			{Weekday: 1, Open: "10:00", Close: "11:00", Active: true},
			{Weekday: 3, Open: "14:00", Close: "15:00", Active: false},
		}},
	})
	require.NotEmpty(t, slots)
	assert.Equal(t, "10:00", slots[0].Start)
}

func TestSlotsBreakExcluded(t *testing.T) {
	slots := Slots(SlotRequest{
		Date: wednesday,
		Hours: clinic.BusinessHours{
			Breaks: []clinic.Break{{Weekday: 3, Start: "12:00", End: "13:00"}},
		},
	})
	starts := slotStarts(slots)
	assert.NotContains(t, starts, "12:00")
	assert.NotContains(t, starts, "11:45", "11:45-12:15 crosses into the break")
	assert.Contains(t, starts, "11:30", "11:30-12:00 touches the break boundary")
	assert.Contains(t, starts, "13:00")

	// Break on another weekday does not apply.
	other := Slots(SlotRequest{
		Date: wednesday,
		Hours: clinic.BusinessHours{
			Breaks: []clinic.Break{{Weekday: 4, Start: "12:00", End: "13:00"}},
		},
	})
	assert.Contains(t, slotStarts(other), "12:00")
}

func TestSlotsBlackoutKinds(t *testing.T) {
	hours := clinic.BusinessHours{Blackouts: []clinic.Blackout{
		{Kind: clinic.BlackoutWeekly, Weekday: 3, Start: "09:00", End: "10:00", Active: true},
		{Kind: clinic.BlackoutMonthly, DayOfMonth: 2, Start: "15:00", End: "16:00", Active: true},
		{Kind: clinic.BlackoutDate, Date: "2026-09-02", Start: "17:00", End: "18:00", Active: true},
		{Kind: clinic.BlackoutWeekly, Weekday: 3, Start: "11:00", End: "12:00", Active: false},
	}}
	starts := slotStarts(Slots(SlotRequest{Date: wednesday, Hours: hours}))

	assert.NotContains(t, starts, "09:00", "weekly blackout")
	assert.NotContains(t, starts, "15:30", "monthly blackout")
	assert.NotContains(t, starts, "17:15", "date blackout")
	assert.Contains(t, starts, "11:00", "inactive blackout is ignored")
}

func TestSlotsOverlappingStartsAreIntentional(t *testing.T) {
	slots := Slots(SlotRequest{
		Date:     wednesday,
		Work:     WorkWindow{Weekdays: []int{3}, Open: "08:00", Close: "09:30"},
		Duration: time.Hour,
	})
	// Duration exceeds the 15-minute step, so consecutive offers overlap.
	assert.Equal(t, []string{"08:00", "08:15", "08:30"}, slotStarts(slots))
}

func TestSlotsBusyFromAnotherDayIgnored(t *testing.T) {
	otherDay := time.Date(2026, 9, 3, 10, 0, 0, 0, time.UTC)
	slots := Slots(SlotRequest{
		Date: wednesday,
		Busy: []Range{{Start: otherDay, End: otherDay.Add(time.Hour)}},
	})
	assert.Contains(t, slotStarts(slots), "10:00")
}

func TestSlotStartMinutes(t *testing.T) {
	assert.Equal(t, 615, Slot{Start: "10:15", End: "10:45"}.StartMinutes())
}
