package curvefit

import (
	"errors"
	"fmt"
)

// ErrInvalidInput is the error wrapped by every validation failure of the
// public entry points. Use errors.Is to test for it and errors.As with
// *InputError to learn which argument was rejected.
var ErrInvalidInput = errors.New("curvefit: invalid input")

// InputError describes a rejected argument.
type InputError struct {
	Field  string
	Reason string
}

func (e *InputError) Error() string {
	return fmt.Sprintf("curvefit: invalid %s: %s", e.Field, e.Reason)
}

func (e *InputError) Unwrap() error { return ErrInvalidInput }

func invalidInput(field, format string, args ...any) error {
	return &InputError{Field: field, Reason: fmt.Sprintf(format, args...)}
}
