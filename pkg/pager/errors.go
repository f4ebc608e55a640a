package pager

import (
	"fmt"
)

// FetchError reports a failed page fetch. The underlying source error is
// available via Unwrap, so errors.Is and errors.As reach it unchanged.
type FetchError struct {
	// Page is the zero-based page index that was requested.
	Page int

	// Err is the failure returned by the source.
	Err error
}

// Error implements the error interface.
func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch page %d: %v", e.Page, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *FetchError) Unwrap() error {
	return e.Err
}
