package models

import (
	"errors"
)

// ErrMalformedInput is the sentinel matched by every MalformedInputError.
var ErrMalformedInput = errors.New("malformed input")

// MalformedInputError aborts an analysis run. No partial statement is produced.
type MalformedInputError struct {
	Reason string
}

func (e *MalformedInputError) Error() string {
	return "malformed input: " + e.Reason
}

func (e *MalformedInputError) Is(target error) bool {
	return target == ErrMalformedInput
}

func Malformed(reason string) error {
	return &MalformedInputError{Reason: reason}
}
