package graph

import "errors"

// ErrMaxStepsExceeded indicates the run reached the configured step limit
// without completing. Guards against misconfigured routing loops.
var ErrMaxStepsExceeded = errors.New("execution exceeded maximum steps limit")

// EngineError is an error from Engine configuration or execution. Cause, when
// set, carries a sentinel callers can match with errors.Is.
type EngineError struct {
	Message string
	Code    string
	Cause   error
}

func (e *EngineError) Error() string {
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

func (e *EngineError) Unwrap() error {
	return e.Cause
}
