package repository

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when the referenced id has no storage location
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when the target id is already occupied
	ErrConflict = errors.New("already exists")
	// ErrInvalidIdentity is returned when an id is empty or not directory-safe
	ErrInvalidIdentity = errors.New("invalid identity")
	// ErrStorage matches every *StorageError via errors.Is
	ErrStorage = errors.New("storage error")
)

// StorageError wraps an underlying I/O failure
type StorageError struct {
	Op   string
	Path string
	Err  error
}

func newStorageError(op, path string, err error) *StorageError {
	return &StorageError{Op: op, Path: path, Err: err}
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *StorageError) Unwrap() error {
	return e.Err
}

// Is lets callers test for the storage kind without a type assertion
func (e *StorageError) Is(target error) bool {
	return target == ErrStorage
}
