package core

import "errors"

// ValidationError indicates the caller supplied an unusable input.
type ValidationError struct {
	Detail string
}

func (e ValidationError) Error() string { return e.Detail }

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v ValidationError
	return errors.As(err, &v)
}
