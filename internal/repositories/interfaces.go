package repositories

import (
	"context"
	"time"

	"github.com/summer-camp-school/camp-service/internal/models"
)

type UserRepository interface {
	List(ctx context.Context) ([]*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	// UpdateRole sets the role in one statement and returns rows matched
	UpdateRole(ctx context.Context, id string, role models.UserRole) (int64, error)
}

// ClassFilters narrows class listings
type ClassFilters struct {
	Status          *models.ClassStatus
	InstructorEmail *string
}

// ClassUpdate is the instructor-editable subset of a class
type ClassUpdate struct {
	ClassName      string
	Details        string
	AvailableSeats int
	Price          float64
	StartDate      string
}

type ClassRepository interface {
	List(ctx context.Context, filters ClassFilters) ([]*models.Class, error)
	GetByID(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	// UpdateDetails only touches a class owned by instructorEmail
	UpdateDetails(ctx context.Context, id, instructorEmail string, update ClassUpdate) (int64, error)
	UpdateStatus(ctx context.Context, id string, status models.ClassStatus) (int64, error)
	UpdateFeedback(ctx context.Context, id, feedback string) (int64, error)
	// ReserveSeat moves one seat from available to enrolled if any remain.
	// It returns false when the class is missing or full.
	ReserveSeat(ctx context.Context, id string) (bool, error)
	InvalidateListings(ctx context.Context)
}

type InstructorRepository interface {
	List(ctx context.Context) ([]*models.Instructor, error)
	Create(ctx context.Context, instructor *models.Instructor) error
}

type CartRepository interface {
	ListByEmail(ctx context.Context, email string) ([]*models.CartItem, error)
	Create(ctx context.Context, item *models.CartItem) error
	DeleteByIDAndEmail(ctx context.Context, id, email string) (int64, error)
	DeleteByCourseAndEmail(ctx context.Context, courseID, email string) (int64, error)
}

type OrderRepository interface {
	Create(ctx context.Context, order *models.Order) error
	GetByTranID(ctx context.Context, tranID string) (*models.Order, error)
	ListByEmail(ctx context.Context, email string) ([]*models.Order, error)
	List(ctx context.Context) ([]*models.Order, error)
	// MarkPaid flips a pending order to paid. It returns false when no
	// pending order with tranID exists, so a replay changes nothing.
	MarkPaid(ctx context.Context, tranID string, paidAt time.Time) (bool, error)
	// DeletePending removes the order only while it is still pending
	DeletePending(ctx context.Context, tranID string) (bool, error)
}
