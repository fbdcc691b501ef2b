package errors

import stderrors "errors"

// As mirrors the standard library errors.As.
func As(err error, target interface{}) bool { return stderrors.As(err, target) }

// Is mirrors the standard library errors.Is.
func Is(err, target error) bool { return stderrors.Is(err, target) }
