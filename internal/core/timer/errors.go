package timer

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when an operation references an unknown timer id.
	ErrNotFound = errors.New("timer not found")
	// ErrCompleted is returned when starting a timer that has already run to zero.
	ErrCompleted = errors.New("timer already completed")

	errEmpty       = errors.New("cannot be empty")
	errNotPositive = errors.New("must be a positive number of seconds")
)

// ValidationError reports invalid timer input. Err is a criterio.FieldErrors
// for creation input, or a plain error for malformed records.
type ValidationError struct {
	Err error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid timer: %v", e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StorageReadError reports that the backing store could not be read.
type StorageReadError struct {
	Key string
	Err error
}

func (e *StorageReadError) Error() string {
	return fmt.Sprintf("read %q: %v", e.Key, e.Err)
}

func (e *StorageReadError) Unwrap() error { return e.Err }

// StorageCorruptError reports stored bytes that are not valid serialized data.
type StorageCorruptError struct {
	Key string
	Err error
}

func (e *StorageCorruptError) Error() string {
	return fmt.Sprintf("corrupt data under %q: %v", e.Key, e.Err)
}

func (e *StorageCorruptError) Unwrap() error { return e.Err }

// StorageWriteError reports a failed write-back. The in-memory state is kept
// and retried on the next mutating operation.
type StorageWriteError struct {
	Key string
	Err error
}

func (e *StorageWriteError) Error() string {
	return fmt.Sprintf("write %q: %v", e.Key, e.Err)
}

func (e *StorageWriteError) Unwrap() error { return e.Err }

// IsCorrupt reports whether err is (or wraps) a *StorageCorruptError.
func IsCorrupt(err error) bool {
	var target *StorageCorruptError
	return errors.As(err, &target)
}

// IsValidation reports whether err is (or wraps) a *ValidationError.
func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}
