package catalog

import (
	"fmt"

	"github.com/pkg/errors"
)

// CatalogReadError is returned alongside the fallback profile when the menu
// table exists but cannot be parsed. Callers show it as a warning.
type CatalogReadError struct {
	Path string
	Err  error
}

func (e *CatalogReadError) Error() string {
	return fmt.Sprintf("error reading CSV file %s: %v", e.Path, e.Err)
}

func (e *CatalogReadError) Unwrap() error { return e.Err }

// IsReadError reports whether err is a recoverable catalog read failure
func IsReadError(err error) bool {
	var re *CatalogReadError
	return errors.As(err, &re)
}

// validationError communicates rejected edits back to handlers.
type validationError struct {
	message string
}

func (e validationError) Error() string { return e.message }

func newValidationError(format string, args ...interface{}) error {
	return validationError{message: fmt.Sprintf(format, args...)}
}

// IsValidation helps callers distinguish rejected input from storage failures.
func IsValidation(err error) bool {
	var v validationError
	return errors.As(err, &v)
}
