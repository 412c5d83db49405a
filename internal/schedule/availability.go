package schedule

import (
	"time"

	"github.com/gpneto/Clinica360-sub004/internal/clinic"
)

const (
	// SlotStep is the fixed cursor increment between candidate start times,
	// independent of slot duration.
	SlotStep = 15 * time.Minute

	// DefaultSlotDuration is assumed when no service durations are known.
	DefaultSlotDuration = 30 * time.Minute
)

// WorkWindow is a professional's default weekly availability, used when the
// tenant calendar has no rule for the day.
type WorkWindow struct {
	Weekdays []int // time.Weekday numbering, 0 = Sunday
	Open     string
	Close    string
}

// DefaultWorkWindow is Monday through Friday, 08:00 to 18:00.
func DefaultWorkWindow() WorkWindow {
	return WorkWindow{
		Weekdays: []int{1, 2, 3, 4, 5},
		Open:     "08:00",
		Close:    "18:00",
	}
}

func (w WorkWindow) worksOn(weekday int) bool {
	for _, d := range w.Weekdays {
		if d == weekday {
			return true
		}
	}
	return false
}

// Slot is one offered start/end pair, "HH:MM" formatted, for a single day.
// Adjacent slots may overlap each other when the duration exceeds the cursor
// step; the conflict detector is the authority at confirmation time.
type Slot struct {
	Start string
	End   string
}

// StartMinutes returns the slot start as minutes since midnight.
func (s Slot) StartMinutes() int {
	minutes, _ := ParseClock(s.Start)
	return minutes
}

// SlotRequest carries everything the slot generator needs for one day.
type SlotRequest struct {
	// Date is any instant within the target day, already in the clinic
	// timezone.
	Date time.Time
	// Hours is the tenant calendar (per-day rules, breaks, blackouts).
	Hours clinic.BusinessHours
	// Work is the professional's own window; zero value falls back to
	// DefaultWorkWindow.
	Work WorkWindow
	// Duration is the total length of the selected services; zero means
	// DefaultSlotDuration.
	Duration time.Duration
	// Busy holds existing bookings for the professional on that day.
	Busy []Range
}

// Slots walks a 15-minute cursor across the day's open window and emits every
// candidate [cursor, cursor+duration) that stays inside closing time and
// clears breaks, blackouts and existing bookings. Output is chronological.
func Slots(req SlotRequest) []Slot {
	work := req.Work
	if len(work.Weekdays) == 0 && work.Open == "" && work.Close == "" {
		work = DefaultWorkWindow()
	}

	weekday := int(req.Date.Weekday())
	if !work.worksOn(weekday) {
		return nil
	}

	open, close := dayBounds(req.Hours, work, weekday)
	if close <= open {
		return nil
	}

	duration := req.Duration
	if duration <= 0 {
		duration = DefaultSlotDuration
	}
	durationMin := int(duration / time.Minute)
	step := int(SlotStep / time.Minute)

	blocked := blockedWindows(req.Hours, weekday, req.Date)
	busy := busyWindows(req.Date, req.Busy)

	var slots []Slot
	for cursor := open; cursor < close; cursor += step {
		candidate := minuteWindow{start: cursor, end: cursor + durationMin}
		if candidate.end > close {
			break
		}
		if overlapsAny(candidate, blocked) || overlapsAny(candidate, busy) {
			continue
		}
		slots = append(slots, Slot{
			Start: FormatClock(candidate.start),
			End:   FormatClock(candidate.end),
		})
	}
	return slots
}

// dayBounds resolves the open/close pair: the day-specific active rule wins,
// then the first configured rule, then the professional's own window.
func dayBounds(hours clinic.BusinessHours, work WorkWindow, weekday int) (int, int) {
	var dayRule, firstRule *clinic.DayHours
	for i := range hours.Days {
		if firstRule == nil {
			firstRule = &hours.Days[i]
		}
		if hours.Days[i].Weekday == weekday && hours.Days[i].Active {
			dayRule = &hours.Days[i]
			break
		}
	}

	open := parseClockOr(work.Open, 8*60)
	close := parseClockOr(work.Close, 18*60)
	switch {
	case dayRule != nil:
		open = parseClockOr(dayRule.Open, open)
		close = parseClockOr(dayRule.Close, close)
	case firstRule != nil:
		open = parseClockOr(firstRule.Open, open)
		close = parseClockOr(firstRule.Close, close)
	}
	return open, close
}

// blockedWindows collects the day's breaks plus every blackout that applies
// to the date (weekly by weekday, monthly by day-of-month, or exact date).
func blockedWindows(hours clinic.BusinessHours, weekday int, date time.Time) []minuteWindow {
	var windows []minuteWindow
	for _, b := range hours.Breaks {
		if b.Weekday != weekday {
			continue
		}
		if w, ok := clockWindow(b.Start, b.End); ok {
			windows = append(windows, w)
		}
	}

	dateKey := date.Format("2006-01-02")
	for _, b := range hours.Blackouts {
		if !b.Active {
			continue
		}
		applies := false
		switch b.Kind {
		case clinic.BlackoutWeekly:
			applies = b.Weekday == weekday
		case clinic.BlackoutMonthly:
			applies = b.DayOfMonth == date.Day()
		case clinic.BlackoutDate:
			applies = b.Date == dateKey
		}
		if !applies {
			continue
		}
		if w, ok := clockWindow(b.Start, b.End); ok {
			windows = append(windows, w)
		}
	}
	return windows
}

// busyWindows projects booking intervals onto minutes-since-midnight of the
// target day. Intervals from other days land outside [0, 1440) and simply
// never overlap a candidate.
func busyWindows(date time.Time, busy []Range) []minuteWindow {
	midnight := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	windows := make([]minuteWindow, 0, len(busy))
	for _, r := range busy {
		if !r.End.After(r.Start) {
			continue
		}
		windows = append(windows, minuteWindow{
			start: int(r.Start.Sub(midnight) / time.Minute),
			end:   int(r.End.Sub(midnight) / time.Minute),
		})
	}
	return windows
}

func overlapsAny(candidate minuteWindow, windows []minuteWindow) bool {
	for _, w := range windows {
		if candidate.overlaps(w) {
			return true
		}
	}
	return false
}
