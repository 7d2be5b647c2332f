package services

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrUpstreamFailure  = errors.New("upstream failure")
	ErrConflict         = errors.New("conflict")
	ErrNoSeatsAvailable = errors.New("no seats available")

	// ErrUserExists is not a failure; the sign-in insert was skipped
	ErrUserExists = errors.New("user exists")
)

// ResourceError adds the resource and key to a sentinel
type ResourceError struct {
	Resource string
	Key      string
	Err      error
}

func (e *ResourceError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Resource, e.Key, e.Err)
}

func (e *ResourceError) Unwrap() error {
	return e.Err
}

func NewNotFoundError(resource, key string) error {
	return &ResourceError{Resource: resource, Key: key, Err: ErrNotFound}
}

func NewConflictError(resource, key string, err error) error {
	if err == nil {
		err = ErrConflict
	}
	return &ResourceError{Resource: resource, Key: key, Err: err}
}
