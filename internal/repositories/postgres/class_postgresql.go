package postgres

import (
	"context"
	"fmt"

	"gorm.io/gorm"

	"github.com/summer-camp-school/camp-service/internal/cache"
	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/repositories"
)

type ClassPostgreSQL struct {
	db           *gorm.DB
	classes      collection[models.Class]
	cacheManager *cache.CacheManager
}

func NewClassPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.ClassRepository {
	return &ClassPostgreSQL{
		db:           db,
		classes:      newCollection[models.Class](db),
		cacheManager: cacheManager,
	}
}

func (r *ClassPostgreSQL) List(ctx context.Context, filters repositories.ClassFilters) ([]*models.Class, error) {
	filter := Filter{}
	cacheKey := "list:all"
	if filters.Status != nil {
		filter["status"] = *filters.Status
		cacheKey = fmt.Sprintf("list:status:%s", *filters.Status)
	}
	if filters.InstructorEmail != nil {
		filter["instructor_email"] = *filters.InstructorEmail
		cacheKey += ":instructor:" + *filters.InstructorEmail
	}

	var classes []*models.Class
	err := r.cacheManager.Class.CacheOrExecute(ctx, cacheKey, &classes, func() (interface{}, error) {
		return r.classes.find(ctx, filter, "created_at ASC")
	})
	return classes, wrapErr("failed to list classes", err)
}

func (r *ClassPostgreSQL) GetByID(ctx context.Context, id string) (*models.Class, error) {
	class, err := r.classes.findOne(ctx, Filter{"id": id})
	return class, wrapErr("failed to get class", err)
}

func (r *ClassPostgreSQL) Create(ctx context.Context, class *models.Class) error {
	if err := r.classes.insert(ctx, class); err != nil {
		return wrapErr("failed to create class", err)
	}
	r.InvalidateListings(ctx)
	return nil
}

func (r *ClassPostgreSQL) UpdateDetails(ctx context.Context, id, instructorEmail string, update repositories.ClassUpdate) (int64, error) {
	n, err := r.classes.updateFields(ctx,
		Filter{"id": id, "instructor_email": instructorEmail},
		map[string]interface{}{
			"class_name":      update.ClassName,
			"details":         update.Details,
			"available_seats": update.AvailableSeats,
			"price":           update.Price,
			"start_date":      update.StartDate,
		})
	return r.afterWrite(ctx, n, wrapErr("failed to update class", err))
}

func (r *ClassPostgreSQL) UpdateStatus(ctx context.Context, id string, status models.ClassStatus) (int64, error) {
	n, err := r.classes.updateFields(ctx, Filter{"id": id}, map[string]interface{}{"status": status})
	return r.afterWrite(ctx, n, wrapErr("failed to update class status", err))
}

func (r *ClassPostgreSQL) UpdateFeedback(ctx context.Context, id, feedback string) (int64, error) {
	n, err := r.classes.updateFields(ctx, Filter{"id": id}, map[string]interface{}{"feedback": feedback})
	return r.afterWrite(ctx, n, wrapErr("failed to update class feedback", err))
}

// ReserveSeat is a single conditional UPDATE so concurrent payments can
// never push availableSeats below zero.
func (r *ClassPostgreSQL) ReserveSeat(ctx context.Context, id string) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Class{}).
		Where("id = ? AND available_seats > 0", id).
		Updates(map[string]interface{}{
			"available_seats":   gorm.Expr("available_seats - 1"),
			"enrolled_students": gorm.Expr("enrolled_students + 1"),
		})
	if result.Error != nil {
		return false, fmt.Errorf("failed to reserve seat: %w", result.Error)
	}
	return result.RowsAffected == 1, nil
}

func (r *ClassPostgreSQL) InvalidateListings(ctx context.Context) {
	cache.InvalidateClassListings(ctx, r.cacheManager)
}

func (r *ClassPostgreSQL) afterWrite(ctx context.Context, n int64, err error) (int64, error) {
	if err != nil {
		return 0, err
	}
	if n > 0 {
		r.InvalidateListings(ctx)
	}
	return n, nil
}
