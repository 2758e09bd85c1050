// README: Custom validation rules (phone, zip, password policy, caller-supplied sets).
package validator

import (
	"slices"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

const PasswordPolicyMessage = "Password must be at least 8 characters and include an uppercase letter, a number, and a special character"

func registerRules(v *validator.Validate) error {
	rules := map[string]validator.Func{
		"phone10":  func(fl validator.FieldLevel) bool { return IsPhone10(fl.Field().String()) },
		"zip":      func(fl validator.FieldLevel) bool { return IsZip(fl.Field().String()) },
		"password": func(fl validator.FieldLevel) bool { return IsStrongPassword(fl.Field().String()) },
	}
	for tag, fn := range rules {
		if err := v.RegisterValidation(tag, fn); err != nil {
			return err
		}
	}
	return nil
}

// RegisterSet adds a string tag that accepts only the listed values and
// reports msg when a field fails it.
func (v *Validator) RegisterSet(tag string, allowed []string, msg string) error {
	err := v.validate.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
		return slices.Contains(allowed, fl.Field().String())
	})
	if err != nil {
		return err
	}
	v.messages[tag] = msg
	return nil
}

// DigitsOnly strips everything except ASCII digits.
func DigitsOnly(s string) string {
	var b strings.Builder
	for _, r := range s {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

func IsPhone10(s string) bool {
	return len(s) == 10 && DigitsOnly(s) == s
}

func IsZip(s string) bool {
	return len(strings.TrimSpace(s)) >= 5
}

func IsStrongPassword(s string) bool {
	if len(s) < 8 {
		return false
	}
	var upper, digit, special bool
	for _, r := range s {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsDigit(r):
			digit = true
		case !unicode.IsLetter(r) && !unicode.IsSpace(r):
			special = true
		}
	}
	return upper && digit && special
}
