package workflow

import (
	"errors"
	"fmt"
)

// Error kinds. Match with errors.Is.
var (
	ErrValidation    = errors.New("validation failed")
	ErrNotFound      = errors.New("report not found")
	ErrForbidden     = errors.New("forbidden")
	ErrStateConflict = errors.New("state conflict")
)

// Error describes a rejected workflow operation.
type Error struct {
	Kind     error
	Op       string
	ReportID string
	Msg      string
}

func (e *Error) Error() string {
	if e.ReportID != "" {
		return fmt.Sprintf("%s report %s: %s", e.Op, e.ReportID, e.Msg)
	}
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

func (e *Error) Unwrap() error {
	return e.Kind
}

func newError(kind error, op, reportID, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Op: op, ReportID: reportID, Msg: fmt.Sprintf(format, args...)}
}

func IsValidation(err error) bool    { return errors.Is(err, ErrValidation) }
func IsNotFound(err error) bool      { return errors.Is(err, ErrNotFound) }
func IsForbidden(err error) bool     { return errors.Is(err, ErrForbidden) }
func IsStateConflict(err error) bool { return errors.Is(err, ErrStateConflict) }
