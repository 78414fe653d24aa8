package db

import (
	"errors"
	"fmt"
)

// ErrStorageUnavailable is matched by every error caused by the database
// engine: open/upgrade failures, denied transactions, failed commits.
var ErrStorageUnavailable = errors.New("storage unavailable")

// ErrNotFound is returned by point lookups that match nothing.
var ErrNotFound = errors.New("not found")

// StorageError records which store operation failed and why.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("%v: %s: %v", ErrStorageUnavailable, e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// Is makes errors.Is(err, ErrStorageUnavailable) hold for every StorageError.
func (e *StorageError) Is(target error) bool {
	return target == ErrStorageUnavailable
}

func unavailable(op string, err error) error {
	if err == nil {
		return nil
	}
	var se *StorageError
	if errors.As(err, &se) {
		return err
	}
	return &StorageError{Op: op, Err: err}
}
