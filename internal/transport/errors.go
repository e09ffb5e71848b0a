package transport

import (
	"errors"
	"fmt"
)

// TransportError indicates the call never produced a response: connection
// failure, timeout, or a body that could not be read.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport failure during %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ServiceError indicates a response was received but the service rejected
// the request, either with success:false or a non-2xx status.
type ServiceError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *ServiceError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s rejected by service (status %d): %s", e.Op, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("%s rejected by service (status %d)", e.Op, e.StatusCode)
}

// IsTransport reports whether err is classified as a transport failure,
// the class eligible for bounded retry.
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// UserMessage derives the human-readable text to surface for a failed call.
// Priority: structured service error message, generic HTTP description,
// then the transport error's own message.
func UserMessage(err error) string {
	var se *ServiceError
	if errors.As(err, &se) {
		if se.Message != "" {
			return se.Message
		}
		return fmt.Sprintf("service returned HTTP %d", se.StatusCode)
	}
	var te *TransportError
	if errors.As(err, &te) {
		return te.Error()
	}
	return err.Error()
}
