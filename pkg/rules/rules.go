package rules

import (
	"fmt"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/dmitrymomot/formkit/pkg/validation"
)

// Violation is the payload of an Invalid outcome produced by a rule.
// Key and Values feed translation layers; Message is the default text.
type Violation struct {
	Message string
	Key     string
	Values  map[string]any
}

func (v Violation) String() string {
	return v.Message
}

func violation(message, key string, values map[string]any) validation.Result {
	return validation.Invalid(Violation{Message: message, Key: key, Values: values})
}

// length counts runes after NFC normalization, so composed and decomposed
// forms of the same text have the same length.
func length(value string) int {
	return utf8.RuneCountInString(norm.NFC.String(value))
}

// Required rejects empty or whitespace-only strings.
func Required() validation.Validator[string] {
	return validation.Sync(func(value string) (validation.Result, error) {
		if strings.TrimSpace(value) == "" {
			return violation("field is required", "validation.required", nil), nil
		}
		return validation.Valid(), nil
	}).Named("required")
}

func MinLength(min int) validation.Validator[string] {
	return validation.Sync(func(value string) (validation.Result, error) {
		if length(value) < min {
			return violation(
				fmt.Sprintf("must be at least %d characters long", min),
				"validation.min_length",
				map[string]any{"min": min},
			), nil
		}
		return validation.Valid(), nil
	}).Named("min_length")
}

func MaxLength(max int) validation.Validator[string] {
	return validation.Sync(func(value string) (validation.Result, error) {
		if length(value) > max {
			return violation(
				fmt.Sprintf("must be at most %d characters long", max),
				"validation.max_length",
				map[string]any{"max": max},
			), nil
		}
		return validation.Valid(), nil
	}).Named("max_length")
}

// Email accepts a bare address (no display name) with a dotted domain.
// Empty input is accepted; combine with Required to reject it.
func Email() validation.Validator[string] {
	return validation.Sync(func(value string) (validation.Result, error) {
		if value == "" || isEmail(value) {
			return validation.Valid(), nil
		}
		return violation("must be a valid email address", "validation.email", nil), nil
	}).Named("email")
}

func isEmail(value string) bool {
	addr, err := mail.ParseAddress(value)
	if err != nil || addr.Name != "" || addr.Address != value {
		return false
	}

	local, domain, ok := strings.Cut(addr.Address, "@")
	if !ok || local == "" || strings.Contains(domain, "@") {
		return false
	}
	if !strings.Contains(domain, ".") || strings.HasPrefix(domain, ".") || strings.HasSuffix(domain, ".") {
		return false
	}
	return !strings.Contains(domain, "..")
}

// Matches rejects values that do not match pattern. description names the
// expected format in the message. Empty input is accepted.
func Matches(pattern, description string) (validation.Validator[string], error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return validation.Validator[string]{}, fmt.Errorf("%w: %w", ErrInvalidPattern, err)
	}

	return validation.Sync(func(value string) (validation.Result, error) {
		if value == "" || re.MatchString(value) {
			return validation.Valid(), nil
		}
		return violation(
			fmt.Sprintf("must match %s", description),
			"validation.pattern",
			map[string]any{"pattern": pattern, "description": description},
		), nil
	}).Named("matches"), nil
}

// MustMatch is like Matches but panics on an invalid pattern.
func MustMatch(pattern, description string) validation.Validator[string] {
	v, err := Matches(pattern, description)
	if err != nil {
		panic(err)
	}
	return v
}
