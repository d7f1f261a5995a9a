package auth

import (
	"strings"

	"horoscope-hub/internal/domain"
)

// NormalizePhone приводит индийский мобильный номер к виду +91XXXXXXXXXX.
func NormalizePhone(raw string) (string, error) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	digits := b.String()
	if len(digits) == 12 && strings.HasPrefix(digits, "91") {
		digits = digits[2:]
	}
	if len(digits) != 10 || digits[0] < '6' {
		return "", domain.NewValidationError("phoneNumber", "Invalid phone number format")
	}
	return "+91" + digits, nil
}
