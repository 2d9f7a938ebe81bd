package scraper

import (
	"errors"
	"fmt"
)

// Input validation errors. They are wrapped in *InputError by Run.
var (
	ErrMissingTarget   = errors.New("target URL is required")
	ErrInvalidTarget   = errors.New("target URL must be an absolute http or https URL")
	ErrInvalidMaxPages = errors.New("max pages must be at least 1")
	ErrInvalidPattern  = errors.New("filter pattern is not a valid regular expression")
)

// InputError rejects a request before any fetch happens
type InputError struct {
	Field string
	Err   error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// IsInputError reports whether err is, or wraps, an *InputError.
func IsInputError(err error) bool {
	var ie *InputError
	return errors.As(err, &ie)
}

// NetworkError is a connection-level fetch failure (DNS, refused, timeout)
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("Failed to fetch %s: %v", e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
