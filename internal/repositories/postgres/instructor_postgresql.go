package postgres

import (
	"context"

	"gorm.io/gorm"

	"github.com/summer-camp-school/camp-service/internal/cache"
	"github.com/summer-camp-school/camp-service/internal/models"
	"github.com/summer-camp-school/camp-service/internal/repositories"
)

type InstructorPostgreSQL struct {
	instructors  collection[models.Instructor]
	cacheManager *cache.CacheManager
}

func NewInstructorPostgreSQL(db *gorm.DB, cacheManager *cache.CacheManager) repositories.InstructorRepository {
	return &InstructorPostgreSQL{
		instructors:  newCollection[models.Instructor](db),
		cacheManager: cacheManager,
	}
}

func (r *InstructorPostgreSQL) List(ctx context.Context) ([]*models.Instructor, error) {
	var instructors []*models.Instructor
	err := r.cacheManager.Instructor.CacheOrExecute(ctx, "list:all", &instructors, func() (interface{}, error) {
		return r.instructors.find(ctx, nil, "created_at ASC")
	})
	return instructors, wrapErr("failed to list instructors", err)
}

func (r *InstructorPostgreSQL) Create(ctx context.Context, instructor *models.Instructor) error {
	if err := r.instructors.insert(ctx, instructor); err != nil {
		return wrapErr("failed to create instructor", err)
	}
	cache.InvalidateInstructorListings(ctx, r.cacheManager)
	return nil
}
