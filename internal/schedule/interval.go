package schedule

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Range is a half-open time interval [Start, End).
type Range struct {
	Start time.Time
	End   time.Time
}

// Overlaps reports whether two half-open intervals intersect. Touching
// endpoints (one ends exactly where the other starts) do not overlap.
func (r Range) Overlaps(other Range) bool {
	return r.Start.Before(other.End) && other.Start.Before(r.End)
}

// minuteWindow is a half-open [start, end) window in minutes since midnight.
type minuteWindow struct {
	start int
	end   int
}

func (w minuteWindow) overlaps(other minuteWindow) bool {
	return w.start < other.end && other.start < w.end
}

// ParseClock parses "HH:MM" into minutes since midnight.
func ParseClock(s string) (int, error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, fmt.Errorf("schedule: invalid clock %q", s)
	}
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return 0, fmt.Errorf("schedule: invalid clock %q", s)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil {
		return 0, fmt.Errorf("schedule: invalid clock %q", s)
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, fmt.Errorf("schedule: clock %q out of range", s)
	}
	return hour*60 + minute, nil
}

// FormatClock renders minutes since midnight as "HH:MM".
func FormatClock(minutes int) string {
	return fmt.Sprintf("%02d:%02d", minutes/60, minutes%60)
}

// parseClockOr returns the parsed clock, or fallback when s is empty or
// malformed.
func parseClockOr(s string, fallback int) int {
	if s == "" {
		return fallback
	}
	minutes, err := ParseClock(s)
	if err != nil {
		return fallback
	}
	return minutes
}

// clockWindow builds a minute window from "HH:MM" bounds; ok is false when
// either bound is malformed or the window is empty.
func clockWindow(start, end string) (minuteWindow, bool) {
	s, err := ParseClock(start)
	if err != nil {
		return minuteWindow{}, false
	}
	e, err := ParseClock(end)
	if err != nil {
		return minuteWindow{}, false
	}
	if e <= s {
		return minuteWindow{}, false
	}
	return minuteWindow{start: s, end: e}, true
}
