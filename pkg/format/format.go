// Package format holds the text format predicates shared by the validation
// clauses and the IS_VALID_* functions.
package format

import (
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate

	phonePattern  = regexp.MustCompile(`^\+?[0-9\s\-().]{7,20}$`)
	digitsPattern = regexp.MustCompile(`^[0-9]+$`)
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})
	return validate
}

func check(value, tag string) bool {
	value = strings.TrimSpace(value)
	if value == "" {
		return false
	}
	return validatorInstance().Var(value, tag) == nil
}

// Email reports whether value is an e-mail address.
func Email(value string) bool { return check(value, "email") }

// URL reports whether value is an absolute URL.
func URL(value string) bool { return check(value, "url") }

// Alpha reports whether value holds only ASCII letters.
func Alpha(value string) bool { return check(value, "alpha") }

// AlphaNumeric reports whether value holds only ASCII letters and digits.
func AlphaNumeric(value string) bool { return check(value, "alphanum") }

// Numeric reports whether value is a signed decimal number.
func Numeric(value string) bool { return check(value, "number") || check(value, "numeric") }

// Digits reports whether value holds only the digits 0-9.
func Digits(value string) bool { return digitsPattern.MatchString(strings.TrimSpace(value)) }

// Phone accepts 7 to 20 characters of digits, spaces, dashes, dots and
// parentheses with an optional leading plus and at least 7 digits.
func Phone(value string) bool {
	value = strings.TrimSpace(value)
	if !phonePattern.MatchString(value) {
		return false
	}
	digits := 0
	for _, r := range value {
		if r >= '0' && r <= '9' {
			digits++
		}
	}
	return digits >= 7
}

// CreditCard validates a 12 to 19 digit card number with the Luhn
// checksum. Spaces and dashes between digit groups are ignored.
func CreditCard(value string) bool {
	cleaned := strings.NewReplacer(" ", "", "-", "").Replace(strings.TrimSpace(value))
	if !digitsPattern.MatchString(cleaned) {
		return false
	}
	return check(cleaned, "credit_card")
}

// Luhn runs the mod-10 checksum over a string of digits.
func Luhn(digits string) bool {
	return digitsPattern.MatchString(digits) && check(digits, "luhn_checksum")
}

var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"2006/01/02",
	"01/02/2006",
	"02/01/2006",
}

// Date reports whether value is a calendar date in one of the accepted
// layouts.
func Date(value string) bool {
	value = strings.TrimSpace(value)
	for _, layout := range dateLayouts {
		if _, err := time.Parse(layout, value); err == nil {
			return true
		}
	}
	return false
}
