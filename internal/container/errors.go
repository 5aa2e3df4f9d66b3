package container

import (
	"errors"
	"fmt"
)

var (
	// ErrUnset matches reads of required fields that were never assigned.
	ErrUnset = errors.New("field is unset")
	// ErrInvalid matches values rejected by a field's validator or cast.
	ErrInvalid = errors.New("invalid field value")
)

// UnsetFieldError reports a read of a required field with no value and no
// default, naming the owning type and field.
type UnsetFieldError struct {
	Owner string
	Field string
}

func (e *UnsetFieldError) Error() string {
	return fmt.Sprintf("%s.%s: %s", e.Owner, e.Field, ErrUnset)
}

func (e *UnsetFieldError) Unwrap() error { return ErrUnset }

// ValidationError reports a raw value that failed a field's validator, or
// failed coercion into the field's declared type.
type ValidationError struct {
	Owner string
	Field string
	Value any
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s.%s: %s (%v): %v", e.Owner, e.Field, ErrInvalid, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Is lets errors.Is(err, ErrInvalid) match any validation failure regardless
// of the wrapped cause.
func (e *ValidationError) Is(target error) bool { return target == ErrInvalid }
