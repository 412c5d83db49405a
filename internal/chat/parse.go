package chat

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// bookingHorizonDays is how far ahead a chat booking may land.
const bookingHorizonDays = 90

var (
	errDateUnparseable = errors.New("chat: unparseable date")
	errDatePast        = errors.New("chat: date in the past")
	errDateTooFar      = errors.New("chat: date beyond the booking horizon")
)

var (
	datePattern = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})[/\-](\d{4})`)
	timePattern = regexp.MustCompile(`(\d{1,2})[:h](\d{2})?`)
)

// isExitCommand recognizes the tenant-independent cancel keywords. Checked
// before any state-specific parsing.
func isExitCommand(text string) bool {
	upper := strings.ToUpper(strings.TrimSpace(text))
	return upper == "SAIR" || upper == "CANCELAR" || upper == "CANCEL" ||
		strings.Contains(upper, "SAIR")
}

// manualReturnKeywords pull a conversation out of human handoff back to the
// automated menu.
var manualReturnKeywords = []string{
	"voltar", "menu", "agendar", "agendamento", "inicio", "começar", "novo", "1", "2", "3",
}

func wantsMenuReturn(text string) bool {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, keyword := range manualReturnKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// parseDate understands the literal words "hoje"/"amanhã" and a
// DD/MM/YYYY-shaped token, rejecting past dates and dates beyond the
// 90-day horizon.
func parseDate(text string, now time.Time) (time.Time, error) {
	lower := strings.ToLower(strings.TrimSpace(text))
	today := startOfDay(now)

	var selected time.Time
	switch {
	case strings.Contains(lower, "hoje"):
		selected = today
	case strings.Contains(lower, "amanhã"), strings.Contains(lower, "amanha"):
		selected = today.AddDate(0, 0, 1)
	default:
		match := datePattern.FindStringSubmatch(lower)
		if match == nil {
			return time.Time{}, errDateUnparseable
		}
		day, _ := strconv.Atoi(match[1])
		month, _ := strconv.Atoi(match[2])
		year, _ := strconv.Atoi(match[3])
		selected = time.Date(year, time.Month(month), day, 0, 0, 0, 0, now.Location())
		// time.Date normalizes out-of-range components; a changed day or
		// month means the input was not a real calendar date.
		if selected.Day() != day || int(selected.Month()) != month || selected.Year() != year {
			return time.Time{}, errDateUnparseable
		}
	}

	if selected.Before(today) {
		return time.Time{}, errDatePast
	}
	if selected.After(today.AddDate(0, 0, bookingHorizonDays)) {
		return time.Time{}, errDateTooFar
	}
	return selected, nil
}

// parseTimeToken extracts an "HH:MM"-normalized clock from tokens like
// "08:00", "8h", "14h30". Returns "" when no token is present.
func parseTimeToken(text string) string {
	match := timePattern.FindStringSubmatch(text)
	if match == nil {
		return ""
	}
	hour, _ := strconv.Atoi(match[1])
	minute := 0
	if match[2] != "" {
		minute, _ = strconv.Atoi(match[2])
	}
	if hour > 23 || minute > 59 {
		return ""
	}
	return fmt.Sprintf("%02d:%02d", hour, minute)
}

// matchIndex interprets text as a 1-based selection into a list of size n,
// returning -1 when it is not one.
func matchIndex(text string, n int) int {
	idx, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil || idx < 1 || idx > n {
		return -1
	}
	return idx - 1
}

// matchByName finds the first candidate whose name contains the input or is
// contained by it, case-insensitively. Returns -1 on no match.
func matchByName(text string, names []string) int {
	needle := strings.ToLower(strings.TrimSpace(text))
	if needle == "" {
		return -1
	}
	for i, name := range names {
		lower := strings.ToLower(name)
		if strings.Contains(lower, needle) || strings.Contains(needle, lower) {
			return i
		}
	}
	return -1
}
