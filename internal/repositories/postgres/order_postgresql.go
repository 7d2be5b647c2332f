package postgres

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/repositories"
)

type OrderPostgreSQL struct {
	orders collection[models.Order]
}

func NewOrderPostgreSQL(db *gorm.DB) repositories.OrderRepository {
	return &OrderPostgreSQL{orders: newCollection[models.Order](db)}
}

func (r *OrderPostgreSQL) Create(ctx context.Context, order *models.Order) error {
	return wrapErr("failed to create order", r.orders.insert(ctx, order))
}

func (r *OrderPostgreSQL) GetByTranID(ctx context.Context, tranID string) (*models.Order, error) {
	order, err := r.orders.findOne(ctx, Filter{"tran_id": tranID})
	return order, wrapErr("failed to get order", err)
}

func (r *OrderPostgreSQL) ListByEmail(ctx context.Context, email string) ([]*models.Order, error) {
	orders, err := r.orders.find(ctx, Filter{"student_email": email}, "created_at DESC")
	return orders, wrapErr("failed to list orders", err)
}

func (r *OrderPostgreSQL) List(ctx context.Context) ([]*models.Order, error) {
	orders, err := r.orders.find(ctx, nil, "created_at DESC")
	return orders, wrapErr("failed to list orders", err)
}

func (r *OrderPostgreSQL) MarkPaid(ctx context.Context, tranID string, paidAt time.Time) (bool, error) {
	n, err := r.orders.updateFields(ctx,
		Filter{"tran_id": tranID, "paid_status": false},
		map[string]interface{}{
			"paid_status": true,
			"status":      models.OrderPaid,
			"paid_at":     paidAt,
		})
	if err != nil {
		return false, wrapErr("failed to mark order paid", err)
	}
	return n == 1, nil
}

func (r *OrderPostgreSQL) DeletePending(ctx context.Context, tranID string) (bool, error) {
	n, err := r.orders.delete(ctx, Filter{"tran_id": tranID, "paid_status": false})
	if err != nil {
		return false, wrapErr("failed to delete order", err)
	}
	return n == 1, nil
}
