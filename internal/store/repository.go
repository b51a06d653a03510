package store

import (
	"context"
	"errors"
	"fmt"

	"project-board-api/internal/apperr"

	"gorm.io/gorm"
)

// Filter is an equality match on column names. Zero values are matched too,
// so Filter{"read": false} selects unread rows.
type Filter map[string]any

// Repository is the gateway for one record kind.
type Repository[T any] struct {
	db   *gorm.DB
	kind string
}

// NewRepository binds a repository for T. kind names the record in errors.
func NewRepository[T any](db *gorm.DB, kind string) *Repository[T] {
	return &Repository[T]{db: db, kind: kind}
}

// Create inserts rec and fills generated fields (id, timestamps) in place.
func (r *Repository[T]) Create(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Create(rec).Error; err != nil {
		return fmt.Errorf("create %s: %w", r.kind, err)
	}
	return nil
}

// FindByID returns apperr.ErrNotFound when no record has the id.
func (r *Repository[T]) FindByID(ctx context.Context, id string) (T, error) {
	var rec T
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return rec, fmt.Errorf("%s %q: %w", r.kind, id, apperr.ErrNotFound)
		}
		return rec, fmt.Errorf("find %s: %w", r.kind, err)
	}
	return rec, nil
}

// FindMany returns every record matching filter; an empty result is an
// empty slice, never an error.
func (r *Repository[T]) FindMany(ctx context.Context, filter Filter, order string) ([]T, error) {
	q := r.scope(ctx, filter)
	if order != "" {
		q = q.Order(order)
	}
	recs := make([]T, 0)
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", r.kind, err)
	}
	return recs, nil
}

// Count returns the number of records matching filter.
func (r *Repository[T]) Count(ctx context.Context, filter Filter) (int64, error) {
	var n int64
	if err := r.scope(ctx, filter).Count(&n).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", r.kind, err)
	}
	return n, nil
}

// UpdateByID applies patch (column -> value) and returns the stored record.
func (r *Repository[T]) UpdateByID(ctx context.Context, id string, patch map[string]any) (T, error) {
	rec, err := r.FindByID(ctx, id)
	if err != nil {
		return rec, err
	}
	if len(patch) == 0 {
		return rec, nil
	}
	if err := r.db.WithContext(ctx).Model(&rec).Updates(patch).Error; err != nil {
		return rec, fmt.Errorf("update %s: %w", r.kind, err)
	}
	return r.FindByID(ctx, id)
}

// Save writes every column of rec.
func (r *Repository[T]) Save(ctx context.Context, rec *T) error {
	if err := r.db.WithContext(ctx).Save(rec).Error; err != nil {
		return fmt.Errorf("save %s: %w", r.kind, err)
	}
	return nil
}

// DeleteByID returns apperr.ErrNotFound when nothing was deleted.
func (r *Repository[T]) DeleteByID(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(new(T))
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", r.kind, res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%s %q: %w", r.kind, id, apperr.ErrNotFound)
	}
	return nil
}

func (r *Repository[T]) scope(ctx context.Context, filter Filter) *gorm.DB {
	q := r.db.WithContext(ctx).Model(new(T))
	if len(filter) > 0 {
		q = q.Where(map[string]any(filter))
	}
	return q
}
