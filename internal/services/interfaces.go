package services

import (
	"context"
	"io"

	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/payment"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

// ===== REQUEST/RESPONSE DTOs =====

type TokenRequest = validator.TokenRequest
type CreateUserRequest = validator.CreateUserRequest
type UpdateRoleRequest = validator.UpdateRoleRequest
type CreateClassRequest = validator.CreateClassRequest
type UpdateClassRequest = validator.UpdateClassRequest
type StatusRequest = validator.StatusRequest
type FeedbackRequest = validator.FeedbackRequest
type AddCartRequest = validator.AddCartRequest
type InitiateOrderRequest = validator.InitiateOrderRequest

// InitiateResponse carries the gateway checkout page for a new pending order
type InitiateResponse struct {
	URL    string `json:"url"`
	TranID string `json:"tranId"`
}

// ===== SERVICE INTERFACES =====

type UserService interface {
	List(ctx context.Context) ([]*models.User, error)
	// Create inserts the user unless one with the same email exists, in
	// which case it returns ErrUserExists.
	Create(ctx context.Context, req *CreateUserRequest) (*models.WriteResult, error)
	// RoleOf returns ErrNotFound when no user has this email
	RoleOf(ctx context.Context, email string) (models.UserRole, error)
	HasRole(ctx context.Context, email string, role models.UserRole) (bool, error)
	UpdateRole(ctx context.Context, id string, req *UpdateRoleRequest) (*models.WriteResult, error)
}

type ClassService interface {
	List(ctx context.Context, status *models.ClassStatus) ([]*models.Class, error)
	Get(ctx context.Context, id string) (*models.Class, error)
	Create(ctx context.Context, req *CreateClassRequest) (*models.WriteResult, error)
	UpdateDetails(ctx context.Context, id string, req *UpdateClassRequest) (*models.WriteResult, error)
	UpdateStatus(ctx context.Context, id string, req *StatusRequest) (*models.WriteResult, error)
	UpdateFeedback(ctx context.Context, id string, req *FeedbackRequest) (*models.WriteResult, error)
}

type InstructorService interface {
	List(ctx context.Context) ([]*models.Instructor, error)
}

type CartService interface {
	List(ctx context.Context, email string) ([]*models.CartItem, error)
	Add(ctx context.Context, req *AddCartRequest) (*models.WriteResult, error)
	Remove(ctx context.Context, id, email string) (*models.WriteResult, error)
}

type OrderService interface {
	Initiate(ctx context.Context, courseID string, req *InitiateOrderRequest) (*InitiateResponse, error)
	// HandleSuccess applies the paid transition at most once and returns
	// the browser redirect target.
	HandleSuccess(ctx context.Context, tranID string) (string, error)
	HandleFailure(ctx context.Context, tranID string) (string, error)
	// HandleNotification applies a gateway IPN: paid statuses go through
	// HandleSuccess, everything else through HandleFailure.
	HandleNotification(ctx context.Context, n payment.Notification) error
	ListByEmail(ctx context.Context, email string) ([]*models.Order, error)
}

type ReportService interface {
	// ExportOrders writes every order as an xlsx workbook
	ExportOrders(ctx context.Context, w io.Writer) error
}

type ServiceManager interface {
	User() UserService
	Class() ClassService
	Instructor() InstructorService
	Cart() CartService
	Order() OrderService
	Report() ReportService

	// Health and lifecycle
	HealthCheck(ctx context.Context) error
	Shutdown(ctx context.Context) error
}
