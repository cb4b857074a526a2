package common

import (
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/shopspring/decimal"
)

// FieldError is a single rule violation.
type FieldError struct {
	Field   string
	Value   interface{}
	Message string
}

func (e FieldError) Error() string {
	return fmt.Sprintf("validation failed for field '%s' with value '%v': %s", e.Field, e.Value, e.Message)
}

// Validator provides validation utilities
type Validator struct {
	errors []FieldError
}

// NewValidator creates a new validator instance
func NewValidator() *Validator {
	return &Validator{
		errors: make([]FieldError, 0),
	}
}

// Field validates a field and collects errors
func (v *Validator) Field(fieldName string, value interface{}, rules ...ValidationRule) *Validator {
	for _, rule := range rules {
		if err := rule(fieldName, value); err != nil {
			v.errors = append(v.errors, *err)
		}
	}
	return v
}

// HasErrors returns true if there are validation errors
func (v *Validator) HasErrors() bool {
	return len(v.errors) > 0
}

// Errors returns all validation errors
func (v *Validator) Errors() []FieldError {
	return v.errors
}

// Error returns a combined error wrapping ErrValidation, or nil.
func (v *Validator) Error() error {
	if !v.HasErrors() {
		return nil
	}
	return NewAppError("VALIDATION_FAILED", v.ErrorMessage(), ErrValidation)
}

// ErrorMessage returns a combined error message as string
func (v *Validator) ErrorMessage() string {
	if !v.HasErrors() {
		return ""
	}

	var messages []string
	for _, err := range v.errors {
		messages = append(messages, err.Error())
	}
	return strings.Join(messages, "; ")
}

// ValidationRule represents a single validation rule
type ValidationRule func(fieldName string, value interface{}) *FieldError

func asString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case string:
		return v, true
	case *string:
		if v == nil {
			return "", true
		}
		return *v, true
	case fmt.Stringer:
		return v.String(), true
	}
	return "", false
}

// Required - Common validation rules
func Required(fieldName string, value interface{}) *FieldError {
	if value == nil {
		return &FieldError{Field: fieldName, Value: value, Message: "is required"}
	}
	if s, ok := asString(value); ok && strings.TrimSpace(s) == "" {
		return &FieldError{Field: fieldName, Value: value, Message: "is required"}
	}
	return nil
}

// OneOf accepts a string-like value equal to one of allowed. Empty values pass.
func OneOf(allowed ...string) ValidationRule {
	return func(fieldName string, value interface{}) *FieldError {
		s, ok := asString(value)
		if !ok {
			return &FieldError{Field: fieldName, Value: value, Message: "must be a string"}
		}
		if s == "" {
			return nil
		}
		for _, a := range allowed {
			if s == a {
				return nil
			}
		}
		return &FieldError{
			Field:   fieldName,
			Value:   value,
			Message: "must be one of: " + strings.Join(allowed, ", "),
		}
	}
}

// ExactLength requires a non-empty string of exactly n runes.
func ExactLength(n int) ValidationRule {
	return func(fieldName string, value interface{}) *FieldError {
		s, _ := asString(value)
		if utf8.RuneCountInString(s) != n {
			return &FieldError{Field: fieldName, Value: value, Message: fmt.Sprintf("must be exactly %d characters", n)}
		}
		return nil
	}
}

// MaxLength bounds a string value by rune count.
func MaxLength(max int) ValidationRule {
	return func(fieldName string, value interface{}) *FieldError {
		s, ok := asString(value)
		if !ok {
			return nil
		}
		if utf8.RuneCountInString(s) > max {
			return &FieldError{
				Field:   fieldName,
				Value:   value,
				Message: fmt.Sprintf("must be at most %d characters", max),
			}
		}
		return nil
	}
}

// NonNegativeDecimal accepts an empty value or a decimal >= 0.
func NonNegativeDecimal(fieldName string, value interface{}) *FieldError {
	s, ok := asString(value)
	if !ok {
		return &FieldError{Field: fieldName, Value: value, Message: "must be a decimal string"}
	}
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return &FieldError{Field: fieldName, Value: value, Message: "must be a decimal number"}
	}
	if d.IsNegative() {
		return &FieldError{Field: fieldName, Value: value, Message: "must not be negative"}
	}
	return nil
}

// IsValidation reports whether err belongs to the validation class.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}
