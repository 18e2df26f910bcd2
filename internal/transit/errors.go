package transit

import (
	"errors"
	"fmt"
)

// ErrInvalidParameter is the sentinel wrapped by every input rejection.
var ErrInvalidParameter = errors.New("invalid parameter")

// ParameterError names the offending input field.
type ParameterError struct {
	Field  string
	Value  any
	Reason string
}

func (e *ParameterError) Error() string {
	return fmt.Sprintf("invalid parameter %s=%v: %s", e.Field, e.Value, e.Reason)
}

func (e *ParameterError) Unwrap() error {
	return ErrInvalidParameter
}

func paramErr(field string, value any, reason string) error {
	return &ParameterError{Field: field, Value: value, Reason: reason}
}
