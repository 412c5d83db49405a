package patients

import "strings"

// NormalizePhone reduces a phone-equivalent chat identifier to Brazilian
// E.164 digits: strips non-digits, prefixes the 55 country code when absent,
// and inserts the mobile 9 after the area code on 8-digit numbers.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) < 10 {
		return digits
	}

	if !strings.HasPrefix(digits, "55") {
		digits = "55" + digits
	}
	// 55 + DDD + 8-digit number is missing the mobile 9.
	if len(digits) == 12 {
		return digits[:4] + "9" + digits[4:]
	}
	return digits
}
