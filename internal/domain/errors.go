package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedInput is returned for structurally invalid input documents
	ErrMalformedInput = errors.New("malformed input")
	// ErrDanglingReference is returned when a link or membership names an unknown device
	ErrDanglingReference = errors.New("dangling reference")
)

// MalformedInput wraps ErrMalformedInput with a reason
func MalformedInput(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrMalformedInput, fmt.Sprintf(format, args...))
}

// DanglingReferenceError names the unknown device and what referenced it
type DanglingReferenceError struct {
	// Kind is "link" or "vlan"
	Kind string
	// Owner identifies the referencing link ("a-b") or VLAN id
	Owner    string
	DeviceID string
}

func (e *DanglingReferenceError) Error() string {
	return fmt.Sprintf("dangling reference: %s %s references unknown device %q", e.Kind, e.Owner, e.DeviceID)
}

// Unwrap makes errors.Is(err, ErrDanglingReference) hold
func (e *DanglingReferenceError) Unwrap() error {
	return ErrDanglingReference
}
