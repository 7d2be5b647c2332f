package postgres

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"github.com/summer-camp-school/camp-service/internal/repositories"
)

// Filter is an equality match on column names, the document-store way of
// addressing records. An empty Filter matches everything on reads and is
// rejected on writes.
type Filter map[string]interface{}

var errEmptyFilter = errors.New("refusing to write with an empty filter")

// collection gives find/insert/update/delete by filter over one table
type collection[T any] struct {
	db *gorm.DB
}

func newCollection[T any](db *gorm.DB) collection[T] {
	return collection[T]{db: db}
}

func (c collection[T]) find(ctx context.Context, filter Filter, order string) ([]*T, error) {
	var docs []*T
	query := c.db.WithContext(ctx).Model(new(T))
	if len(filter) > 0 {
		query = query.Where(map[string]interface{}(filter))
	}
	if order != "" {
		query = query.Order(order)
	}
	if err := query.Find(&docs).Error; err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []*T{}
	}
	return docs, nil
}

func (c collection[T]) findOne(ctx context.Context, filter Filter) (*T, error) {
	if len(filter) == 0 {
		return nil, errEmptyFilter
	}
	var doc T
	err := c.db.WithContext(ctx).Where(map[string]interface{}(filter)).Take(&doc).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, repositories.ErrNotFound
		}
		return nil, err
	}
	return &doc, nil
}

func (c collection[T]) insert(ctx context.Context, doc *T) error {
	return c.db.WithContext(ctx).Create(doc).Error
}

// updateFields sets fields on every matching row and returns rows affected
func (c collection[T]) updateFields(ctx context.Context, filter Filter, fields map[string]interface{}) (int64, error) {
	if len(filter) == 0 {
		return 0, errEmptyFilter
	}
	result := c.db.WithContext(ctx).Model(new(T)).Where(map[string]interface{}(filter)).Updates(fields)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func (c collection[T]) delete(ctx context.Context, filter Filter) (int64, error) {
	if len(filter) == 0 {
		return 0, errEmptyFilter
	}
	result := c.db.WithContext(ctx).Where(map[string]interface{}(filter)).Delete(new(T))
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func wrapErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if repositories.IsNotFoundError(err) {
		return err
	}
	return fmt.Errorf("%s: %w", op, err)
}
