package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/repositories"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

type classService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewClassService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) ClassService {
	return &classService{repo: repo, logger: logger, validator: validator}
}

func (s *classService) List(ctx context.Context, status *models.ClassStatus) ([]*models.Class, error) {
	classes, err := s.repo.Class().List(ctx, repositories.ClassFilters{Status: status})
	if err != nil {
		return nil, fmt.Errorf("failed to list classes: %w", err)
	}
	return classes, nil
}

func (s *classService) Get(ctx context.Context, id string) (*models.Class, error) {
	class, err := s.repo.Class().GetByID(ctx, id)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, NewNotFoundError("class", id)
		}
		return nil, fmt.Errorf("failed to get class: %w", err)
	}
	return class, nil
}

func (s *classService) Create(ctx context.Context, req *CreateClassRequest) (*models.WriteResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	class := &models.Class{
		InstructorName:  req.InstructorName,
		InstructorEmail: req.InstructorEmail,
		ClassName:       req.ClassName,
		ClassImage:      req.ClassImage,
		Details:         req.Details,
		AvailableSeats:  req.AvailableSeats,
		Price:           req.Price,
		StartDate:       req.StartDate,
		Status:          models.ClassPending,
	}
	if err := s.repo.Class().Create(ctx, class); err != nil {
		return nil, fmt.Errorf("failed to create class: %w", err)
	}

	s.logger.Info("Class created", "course_id", class.ID, "instructor", class.InstructorEmail)
	return models.InsertResult(class.ID), nil
}

// UpdateDetails matches nothing when the class belongs to another instructor
func (s *classService) UpdateDetails(ctx context.Context, id string, req *UpdateClassRequest) (*models.WriteResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	n, err := s.repo.Class().UpdateDetails(ctx, id, req.InstructorEmail, repositories.ClassUpdate{
		ClassName:      req.ClassName,
		Details:        req.Details,
		AvailableSeats: req.AvailableSeats,
		Price:          req.Price,
		StartDate:      req.StartDate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update class: %w", err)
	}

	s.logger.Info("Class updated", "course_id", id, "matched", n)
	return models.UpdateResult(n), nil
}

func (s *classService) UpdateStatus(ctx context.Context, id string, req *StatusRequest) (*models.WriteResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	n, err := s.repo.Class().UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return nil, fmt.Errorf("failed to update class status: %w", err)
	}

	s.logger.Info("Class status updated", "course_id", id, "status", req.Status)
	return models.UpdateResult(n), nil
}

func (s *classService) UpdateFeedback(ctx context.Context, id string, req *FeedbackRequest) (*models.WriteResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	n, err := s.repo.Class().UpdateFeedback(ctx, id, req.Feedback)
	if err != nil {
		return nil, fmt.Errorf("failed to update class feedback: %w", err)
	}
	return models.UpdateResult(n), nil
}
