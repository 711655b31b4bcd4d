// Package validation checks the shape of registration, login and todo
// payloads. Rules run in a fixed order and the first violation is reported.
package validation

import (
	"unicode/utf16"

	"github.com/go-playground/validator/v10"

	"github.com/R3E-Network/todo_service/internal/errors"
)

// Payload is a decoded request body. Values keep their decoded JSON type so
// type checks can be reported separately from presence checks.
type Payload map[string]interface{}

var validate = validator.New()

// rule is one ordered check; ok reports whether the payload passes it.
type rule struct {
	ok      func() bool
	message string
}

// firstViolation evaluates rules in order and stops at the first failure.
func firstViolation(rules []rule) error {
	for _, r := range rules {
		if !r.ok() {
			return errors.Validation(r.message)
		}
	}
	return nil
}

// IsEmail reports whether s is a syntactically valid email address.
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}

// present mirrors a truthiness check: absent, null, empty string, false and
// zero all count as missing.
func present(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case string:
		return t != ""
	case bool:
		return t
	case float64:
		return t != 0
	case int:
		return t != 0
	default:
		return true
	}
}

func isString(v interface{}) bool {
	_, ok := v.(string)
	return ok
}

func str(v interface{}) string {
	s, _ := v.(string)
	return s
}

// Length counts UTF-16 code units, so a character outside the Basic
// Multilingual Plane counts as two.
func Length(s string) int {
	return len(utf16.Encode([]rune(s)))
}

func lengthBetween(v interface{}, min, max int) bool {
	n := Length(str(v))
	return n >= min && n <= max
}

func allPresent(p Payload, keys ...string) bool {
	for _, k := range keys {
		if !present(p[k]) {
			return false
		}
	}
	return true
}
