package usecase

import "errors"

// ValidationError is a rejected user input. Message is shown to the user
// and the conversation stays on the same step.
type ValidationError struct {
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

func invalid(message string, err error) error {
	return &ValidationError{Message: message, Err: err}
}

// IsValidationError reports whether err carries a user-facing correction
func IsValidationError(err error) (*ValidationError, bool) {
	var v *ValidationError
	if errors.As(err, &v) {
		return v, true
	}
	return nil, false
}
