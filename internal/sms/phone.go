package sms

import (
	"strings"
	"unicode"
)

// NormalizePhone strips formatting and rewrites national numbers with a
// leading trunk zero (08031234567) to E.164 using countryCode.
func NormalizePhone(raw string, countryCode string) string {
	var digits strings.Builder
	plus := false
	for index, char := range strings.TrimSpace(raw) {
		switch {
		case char == '+' && index == 0:
			plus = true
		case unicode.IsDigit(char):
			digits.WriteRune(char)
		}
	}

	number := digits.String()
	if number == "" {
		return ""
	}
	if plus {
		return "+" + number
	}

	code := strings.TrimPrefix(strings.TrimSpace(countryCode), "+")
	switch {
	case strings.HasPrefix(number, "00"):
		return "+" + number[2:]
	case strings.HasPrefix(number, "0") && code != "":
		return "+" + code + number[1:]
	case code != "" && strings.HasPrefix(number, code):
		return "+" + number
	default:
		return "+" + number
	}
}
