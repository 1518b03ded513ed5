package redcap

import (
	"errors"
	"fmt"
)

// ServiceError is returned by every call that did not produce a usable answer from the
// records service: error responses, unexpected payloads and transport failures.
type ServiceError struct {
	Operation  string
	Message    string
	StatusCode int
	Err        error
}

func (e *ServiceError) Error() string {
	msg := fmt.Sprintf("records service %s: %s", e.Operation, e.Message)
	if e.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", e.StatusCode)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

func IsServiceError(err error) bool {
	var se *ServiceError
	return errors.As(err, &se)
}
