package digraph

import (
	"errors"
	"strings"
)

// Errors for DAG loading and validation.
var (
	ErrNameMissing        = errors.New("DAG name is required")
	ErrStepNameDuplicate  = errors.New("duplicate step name")
	ErrStepDependsUnknown = errors.New("step depends on unknown step")
	ErrInvalidSchedule    = errors.New("invalid cron expression")
)

// ErrorList collects multiple validation errors from a single load.
type ErrorList []error

// Error implements the error interface.
func (e ErrorList) Error() string {
	errStrings := make([]string, 0, len(e))
	for _, err := range e {
		errStrings = append(errStrings, err.Error())
	}
	return strings.Join(errStrings, "; ")
}

// Unwrap exposes the collected errors to errors.Is / errors.As.
func (e ErrorList) Unwrap() []error {
	return e
}

// ToStringList converts the error list to a list of strings.
func (e ErrorList) ToStringList() []string {
	ret := make([]string, 0, len(e))
	for _, err := range e {
		ret = append(ret, err.Error())
	}
	return ret
}
