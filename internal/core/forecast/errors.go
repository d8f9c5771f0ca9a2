package forecast

import (
	"fmt"

	perr "crimedash/internal/platform/errors"
)

// InsufficientHistoryError means the series is shorter than one seasonal cycle
type InsufficientHistoryError struct {
	Key  string
	Have int
	Need int
}

// Error implements error
func (e *InsufficientHistoryError) Error() string {
	return fmt.Sprintf("forecast %s: have %d periods, need %d", e.Key, e.Have, e.Need)
}

// Unwrap exposes the coded form so perr.CodeOf maps it
func (e *InsufficientHistoryError) Unwrap() error {
	return perr.New(perr.ErrorCodeInsufficientHistory, e.Error())
}

// Detail is the client payload
func (e *InsufficientHistoryError) Detail() any {
	return map[string]any{"key": e.Key, "have": e.Have, "need": e.Need}
}

// ComputationError means the fit produced a non finite value
type ComputationError struct {
	Key    string
	Reason string
}

// Error implements error
func (e *ComputationError) Error() string {
	return fmt.Sprintf("forecast %s: %s", e.Key, e.Reason)
}

// Unwrap exposes the coded form so perr.CodeOf maps it
func (e *ComputationError) Unwrap() error {
	return perr.New(perr.ErrorCodeComputation, e.Error())
}
