package repositories

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// ErrNotFound is returned when a filter matches no document
var ErrNotFound = errors.New("record not found")

// IsNotFoundError reports whether err means "no matching document"
func IsNotFoundError(err error) bool {
	return errors.Is(err, ErrNotFound) || errors.Is(err, gorm.ErrRecordNotFound)
}

// Repository is the store handle: one accessor per collection plus lifecycle
type Repository interface {
	User() UserRepository
	Class() ClassRepository
	Instructor() InstructorRepository
	Cart() CartRepository
	Order() OrderRepository

	// WithTransaction runs fn against a repository bound to one transaction.
	// Returning an error rolls everything back.
	WithTransaction(ctx context.Context, fn func(Repository) error) error

	// Health check
	Ping(ctx context.Context) error

	// Close connections
	Close() error
}
