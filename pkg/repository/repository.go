package repository

import (
	"context"

	"github.com/smallbiznis/creditgate/pkg/db/option"
	"gorm.io/gorm"
)

// Repository is a generic gorm-backed store. Zero-value fields of a query
// struct are ignored by the filter.
type Repository[T any] interface {
	WithTrx(tx *gorm.DB) Repository[T]
	Find(ctx context.Context, query *T, opts ...option.QueryOption) ([]*T, error)
	Create(ctx context.Context, resource *T) error
	Count(ctx context.Context, query *T) (int64, error)
	DeleteWhere(ctx context.Context, query *T) (int64, error)
}
