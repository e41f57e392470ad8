package errors

import (
	"errors"
	"fmt"
)

var (
	ErrSpreadsheetUnreadable = errors.New("spreadsheet could not be opened; make sure it is a valid .xlsx file")
	ErrSpreadsheetEmpty      = errors.New("spreadsheet has no rows")
	ErrSpreadsheetNoData     = errors.New("spreadsheet has a header row but no data rows")

	ErrJobNotFound      = errors.New("import job not found in this database")
	ErrImportInProgress = errors.New("an import is already in progress")
)

// ValidationError is raised before any network or database work happens,
// e.g. a column mapping without an item name entry.
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("validation failed for '%s': %s", e.Field, e.Message)
}

// TransportError wraps a network or HTTP-level failure talking to the
// import API. StatusCode is zero when the request never got a response.
type TransportError struct {
	Err        error
	StatusCode int
}

func (e TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("transport error (HTTP %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e TransportError) Unwrap() error {
	return e.Err
}

// ServerReportedFailure means the job reached failed status with an
// explicit message from the backend, as opposed to us losing contact.
type ServerReportedFailure struct {
	JobID   string
	Message string
}

func (e ServerReportedFailure) Error() string {
	return fmt.Sprintf("import job %s failed: %s", e.JobID, e.Message)
}

// UnreachableError is raised when consecutive polling failures cross the
// threshold. BackingStore distinguishes a 503 (the store behind the API is
// down) from generic connectivity loss.
type UnreachableError struct {
	Attempts     int
	BackingStore bool
}

func (e UnreachableError) Error() string {
	if e.BackingStore {
		return fmt.Sprintf("backing store unreachable after %d failed status checks", e.Attempts)
	}
	return fmt.Sprintf("server unreachable after %d failed status checks", e.Attempts)
}
