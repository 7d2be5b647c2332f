package services

import (
	"context"
	"fmt"
	"log/slog"

	"gorm.io/datatypes"

	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/repositories"
	"github.com/summer-camp-school/camp-service/internal/validator"
)

type userService struct {
	repo      repositories.Repository
	logger    *slog.Logger
	validator *validator.Validator
}

func NewUserService(repo repositories.Repository, logger *slog.Logger, validator *validator.Validator) UserService {
	return &userService{repo: repo, logger: logger, validator: validator}
}

func (s *userService) List(ctx context.Context) ([]*models.User, error) {
	users, err := s.repo.User().List(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

func (s *userService) Create(ctx context.Context, req *CreateUserRequest) (*models.WriteResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	// pre-check then insert; two first sign-ins racing can both insert
	existing, err := s.repo.User().GetByEmail(ctx, req.Email)
	if err != nil && !repositories.IsNotFoundError(err) {
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}
	if existing != nil {
		return nil, ErrUserExists
	}

	user := &models.User{
		Name:     req.Name,
		Email:    req.Email,
		PhotoURL: req.PhotoURL,
	}
	if len(req.Profile) > 0 {
		user.Profile = datatypes.JSONMap(req.Profile)
	}

	if err := s.repo.User().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	s.logger.Info("User created", "user_id", user.ID, "email", user.Email)
	return models.InsertResult(user.ID), nil
}

func (s *userService) RoleOf(ctx context.Context, email string) (models.UserRole, error) {
	user, err := s.repo.User().GetByEmail(ctx, email)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return models.RoleNone, NewNotFoundError("user", email)
		}
		return models.RoleNone, fmt.Errorf("failed to look up user: %w", err)
	}
	return user.Role, nil
}

func (s *userService) HasRole(ctx context.Context, email string, role models.UserRole) (bool, error) {
	current, err := s.RoleOf(ctx, email)
	if err != nil {
		if isNotFound(err) {
			return false, nil
		}
		return false, err
	}
	return current == role, nil
}

func (s *userService) UpdateRole(ctx context.Context, id string, req *UpdateRoleRequest) (*models.WriteResult, error) {
	if err := s.validator.Validate(req); err != nil {
		return nil, err
	}

	n, err := s.repo.User().UpdateRole(ctx, id, req.Role)
	if err != nil {
		return nil, fmt.Errorf("failed to update role: %w", err)
	}

	s.logger.Info("User role updated", "user_id", id, "role", req.Role, "matched", n)
	return models.UpdateResult(n), nil
}
