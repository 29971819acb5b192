// Package form holds the input rules shared by every flow that accepts
// user data: passwords, contact fields, uploads and terms acceptance.
// Violations are reported as domain validation errors before any network
// call is made.
package form

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/boddenberg/realty-portal-bfa/internal/domain"
)

// MinPasswordLength is the single password policy for every flow
// (registration, invitation acceptance, password reset).
const MinPasswordLength = 10

var (
	emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern = regexp.MustCompile(`^(\(\d{3}\) \d{3}-\d{4}|\d{3}-\d{3}-\d{4})$`)
)

// Required rejects blank values.
func Required(field, value string) error {
	if strings.TrimSpace(value) == "" {
		return &domain.ErrValidation{Field: field, Message: "is required"}
	}
	return nil
}

// ValidateEmail checks the address shape only; deliverability is the
// backend's concern.
func ValidateEmail(field, value string) error {
	if err := Required(field, value); err != nil {
		return err
	}
	if !emailPattern.MatchString(strings.TrimSpace(value)) {
		return &domain.ErrValidation{Field: field, Message: "must be a valid email address"}
	}
	return nil
}

// ValidatePhone accepts (XXX) XXX-XXXX or XXX-XXX-XXXX.
func ValidatePhone(field, value string) error {
	if err := Required(field, value); err != nil {
		return err
	}
	if !phonePattern.MatchString(strings.TrimSpace(value)) {
		return &domain.ErrValidation{Field: field, Message: "must look like (555) 123-4567 or 555-123-4567"}
	}
	return nil
}

// ValidatePassword enforces MinPasswordLength.
func ValidatePassword(field, value string) error {
	if len([]rune(value)) < MinPasswordLength {
		return &domain.ErrValidation{
			Field:   field,
			Message: fmt.Sprintf("must be at least %d characters", MinPasswordLength),
		}
	}
	return nil
}

// ValidatePasswordPair checks the policy and that the confirmation matches.
func ValidatePasswordPair(password, confirmation string) error {
	if err := ValidatePassword("password", password); err != nil {
		return err
	}
	if password != confirmation {
		return &domain.ErrValidation{Field: "confirm_password", Message: "passwords do not match"}
	}
	return nil
}

// First returns the first non-nil error, so a form reports one problem at
// a time in field order.
func First(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
