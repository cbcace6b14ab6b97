package util

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]+$`)
	emailPattern    = regexp.MustCompile(`^[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}$`)
)

const (
	MinUsernameLength = 3
	MinPhoneDigits    = 10
	MinPasswordLength = 8
)

// ValidUsername: at least three letters, digits or underscores.
func ValidUsername(s string) bool {
	return len(s) >= MinUsernameLength && usernamePattern.MatchString(s)
}

func ValidEmail(s string) bool {
	return emailPattern.MatchString(strings.TrimSpace(s))
}

// ValidPhone counts digits only, so "+234 801-111-2222" is accepted.
func ValidPhone(s string) bool {
	digits := 0
	for _, r := range s {
		switch {
		case unicode.IsDigit(r):
			digits++
		case r == '+' || r == '-' || r == ' ' || r == '(' || r == ')':
		default:
			return false
		}
	}
	return digits >= MinPhoneDigits
}

func ValidPassword(s string) bool {
	return len(s) >= MinPasswordLength
}
