package mailapi

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoRecipients guards sends with an empty recipient list.
	ErrNoRecipients = errors.New("no recipients loaded")
	// ErrMissingFields matches any *MissingFieldsError.
	ErrMissingFields = errors.New("missing required fields")
	// ErrTimeout marks requests that exceeded their deadline.
	ErrTimeout = errors.New("request timed out")
	// ErrNetwork matches any *NetworkError.
	ErrNetwork = errors.New("network error")
	// ErrDecode matches any *DecodeError.
	ErrDecode = errors.New("unexpected response")
)

// MissingFieldsError lists blank required send fields.
type MissingFieldsError struct {
	Fields []string
}

func (e *MissingFieldsError) Error() string {
	return "missing required fields: " + strings.Join(e.Fields, ", ")
}

func (e *MissingFieldsError) Is(target error) bool { return target == ErrMissingFields }

// NetworkError is a transport failure other than a timeout.
type NetworkError struct {
	Op    string
	Cause error
}

func (e *NetworkError) Error() string        { return fmt.Sprintf("%s: network error: %v", e.Op, e.Cause) }
func (e *NetworkError) Unwrap() error        { return e.Cause }
func (e *NetworkError) Is(target error) bool { return target == ErrNetwork }

// TimeoutError is a request that ran past its deadline.
type TimeoutError struct {
	Op    string
	Cause error
}

func (e *TimeoutError) Error() string        { return fmt.Sprintf("%s: request timed out", e.Op) }
func (e *TimeoutError) Unwrap() error        { return e.Cause }
func (e *TimeoutError) Is(target error) bool { return target == ErrTimeout }

// APIError is a non-2xx response, carrying the server's message when it sent one.
type APIError struct {
	Op      string
	Status  int
	Message string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api %s returned status %d", e.Op, e.Status)
	}
	return fmt.Sprintf("api %s returned status %d: %s", e.Op, e.Status, e.Message)
}

// DecodeError is a response body that does not match the expected schema.
type DecodeError struct {
	Op     string
	Reason string
	Cause  error
}

func (e *DecodeError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: decode response: %s: %v", e.Op, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s: decode response: %s", e.Op, e.Reason)
}

func (e *DecodeError) Unwrap() error        { return e.Cause }
func (e *DecodeError) Is(target error) bool { return target == ErrDecode }
