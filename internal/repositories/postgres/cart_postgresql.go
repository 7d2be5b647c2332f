package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/repositories"
)

type CartPostgreSQL struct {
	carts collection[models.CartItem]
}

func NewCartPostgreSQL(db *gorm.DB) repositories.CartRepository {
	return &CartPostgreSQL{carts: newCollection[models.CartItem](db)}
}

func (r *CartPostgreSQL) ListByEmail(ctx context.Context, email string) ([]*models.CartItem, error) {
	items, err := r.carts.find(ctx, Filter{"email": email}, "created_at ASC")
	return items, wrapErr("failed to list cart", err)
}

func (r *CartPostgreSQL) Create(ctx context.Context, item *models.CartItem) error {
	return wrapErr("failed to add cart item", r.carts.insert(ctx, item))
}

func (r *CartPostgreSQL) DeleteByIDAndEmail(ctx context.Context, id, email string) (int64, error) {
	n, err := r.carts.delete(ctx, Filter{"id": id, "email": email})
	return n, wrapErr("failed to delete cart item", err)
}

func (r *CartPostgreSQL) DeleteByCourseAndEmail(ctx context.Context, courseID, email string) (int64, error) {
	n, err := r.carts.delete(ctx, Filter{"course_id": courseID, "email": email})
	return n, wrapErr("failed to clear cart item", err)
}
