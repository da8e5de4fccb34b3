package core

import (
	"errors"
	"fmt"
)

// ValidationError reports a rejected input field. It matches ErrValidation
// and the wrapped cause under errors.Is.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidation
}

// DuplicateCategoryError is returned when a live budget already owns the category.
type DuplicateCategoryError struct {
	Category string
}

func (e *DuplicateCategoryError) Error() string {
	return fmt.Sprintf("budget for category %q already exists", e.Category)
}

func (e *DuplicateCategoryError) Is(target error) bool {
	return target == ErrDuplicateCategory
}

// IsUserError reports whether err came from bad input rather than a fault.
func IsUserError(err error) bool {
	return errors.Is(err, ErrValidation) || errors.Is(err, ErrDuplicateCategory)
}
