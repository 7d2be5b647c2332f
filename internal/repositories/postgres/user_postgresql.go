package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/repositories"
)

type UserPostgreSQL struct {
	users collection[models.User]
}

func NewUserPostgreSQL(db *gorm.DB) repositories.UserRepository {
	return &UserPostgreSQL{users: newCollection[models.User](db)}
}

func (u *UserPostgreSQL) List(ctx context.Context) ([]*models.User, error) {
	users, err := u.users.find(ctx, nil, "created_at ASC")
	return users, wrapErr("failed to list users", err)
}

func (u *UserPostgreSQL) GetByID(ctx context.Context, id string) (*models.User, error) {
	user, err := u.users.findOne(ctx, Filter{"id": id})
	return user, wrapErr("failed to get user", err)
}

// GetByEmail returns the oldest record for email; duplicates are possible
// because sign-in inserts are guarded by a read, not a constraint.
func (u *UserPostgreSQL) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	users, err := u.users.find(ctx, Filter{"email": email}, "created_at ASC")
	if err != nil {
		return nil, wrapErr("failed to get user by email", err)
	}
	if len(users) == 0 {
		return nil, repositories.ErrNotFound
	}
	return users[0], nil
}

func (u *UserPostgreSQL) Create(ctx context.Context, user *models.User) error {
	return wrapErr("failed to create user", u.users.insert(ctx, user))
}

func (u *UserPostgreSQL) UpdateRole(ctx context.Context, id string, role models.UserRole) (int64, error) {
	n, err := u.users.updateFields(ctx, Filter{"id": id}, map[string]interface{}{"role": role})
	return n, wrapErr("failed to update user role", err)
}
