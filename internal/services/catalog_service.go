package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/repositories"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

type instructorService struct {
	repo repositories.Repository
}

func NewInstructorService(repo repositories.Repository) InstructorService {
	return &instructorService{repo: repo}
}

func (s *instructorService) List(ctx context.Context) ([]*models.Instructor, error) {
	instructors, err := s.repo.Instructor().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list instructors: %w", err)
	}
	return instructors, nil
}

type cartService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewCartService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) CartService {
	return &cartService{repo: repo, logger: logger, validator: validator}
}

func (s *cartService) List(ctx context.Context, email string) ([]*models.CartItem, error) {
	items, err := s.repo.Cart().ListByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to list cart: %w", err)
	}
	return items, nil
}

func (s *cartService) Add(ctx context.Context, req *AddCartRequest) (*models.WriteResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	item := &models.CartItem{
		CourseID:        req.CourseID,
		Email:           req.Email,
		ClassName:       req.ClassName,
		ClassImage:      req.ClassImage,
		InstructorName:  req.InstructorName,
		InstructorEmail: req.InstructorEmail,
		Price:           req.Price,
		AvailableSeats:  req.AvailableSeats,
	}
	if err := s.repo.Cart().Create(ctx, item); err != nil {
		return nil, fmt.Errorf("failed to add cart item: %w", err)
	}

	s.logger.Debug("Cart item added", "course_id", item.CourseID, "email", item.Email)
	return models.InsertResult(item.ID), nil
}

func (s *cartService) Remove(ctx context.Context, id, email string) (*models.WriteResult, error) {
	n, err := s.repo.Cart().DeleteByIDAndEmail(ctx, id, email)
	if err != nil {
		return nil, fmt.Errorf("failed to remove cart item: %w", err)
	}
	return models.DeleteResult(n), nil
}
