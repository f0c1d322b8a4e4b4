package domain

import (
	"strings"
	"unicode"
)

const (
	PasswordMinLength = 8
	// bcrypt refuses longer input.
	PasswordMaxBytes = 72
)

const passwordSpecials = `~!?@#$%^&*_-+()[]{}></\|"'.,:;`

// PasswordProblems lists every way password breaks the password policy.
// An empty result means the password is acceptable.
func PasswordProblems(password string) []string {
	var problems []string

	n := len([]rune(password))
	if n < PasswordMinLength {
		problems = append(problems, "at least 8 characters")
	}
	if len(password) > PasswordMaxBytes {
		problems = append(problems, "at most 72 bytes")
	}

	var upper, lower, digit, space, invalid bool
	for _, c := range password {
		switch {
		case unicode.IsUpper(c):
			upper = true
		case unicode.IsLower(c):
			lower = true
		case unicode.IsDigit(c):
			digit = true
		case c == ' ':
			space = true
		case unicode.IsLetter(c), strings.ContainsRune(passwordSpecials, c):
		default:
			invalid = true
		}
	}

	if !upper {
		problems = append(problems, "at least one uppercase letter")
	}
	if !lower {
		problems = append(problems, "at least one lowercase letter")
	}
	if !digit {
		problems = append(problems, "at least one digit")
	}
	if space {
		problems = append(problems, "no spaces")
	}
	if invalid {
		problems = append(problems, "only letters, digits and "+passwordSpecials)
	}

	return problems
}
