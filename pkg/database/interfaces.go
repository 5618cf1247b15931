package database

import (
	"context"

	"github.com/huynhanx03/go-nosql/pkg/dto"
)

// Repository defines the common interface for all repositories
type Repository[T any, ID any] interface {
	Insert(ctx context.Context, model *T) error
	InsertMany(ctx context.Context, models []*T) error
	Replace(ctx context.Context, id ID, model *T) (bool, error)
	Delete(ctx context.Context, id ID) error
	DeleteMany(ctx context.Context, ids []ID) error
	Get(ctx context.Context, id ID) (*T, error)
	Search(ctx context.Context, opts *dto.QueryOptions) (*dto.Paginated[*T], error)

	Exists(ctx context.Context, id ID) (bool, error)
}

// SequenceGenerator hands out dense, strictly increasing integer identifiers
// per named sequence, starting at 1.
type SequenceGenerator interface {
	Next(ctx context.Context, name string) (int64, error)
}
