package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/huynhanx03/go-nosql/pkg/database/retry"
	"github.com/huynhanx03/go-nosql/pkg/dto"
)

// Get returns the entity with key, or ErrNotFound.
func (r *Repository[T, K]) Get(ctx context.Context, key K) (*T, error) {
	ctx = r.bridge.readContext(ctx)
	return retry.Do(ctx, r.policy, "get", func(ctx context.Context) (*T, error) {
		return r.findOne(ctx, r.keyFilter(key))
	})
}

// GetAll returns every entity of the collection.
func (r *Repository[T, K]) GetAll(ctx context.Context) ([]*T, error) {
	return r.FindMany(ctx, nil)
}

// FindMany returns every entity matching filter, unsorted.
func (r *Repository[T, K]) FindMany(ctx context.Context, filter any) ([]*T, error) {
	ctx = r.bridge.readContext(ctx)
	return retry.Do(ctx, r.policy, "find", func(ctx context.Context) ([]*T, error) {
		return r.find(ctx, orEmpty(filter))
	})
}

// Find returns page pageIndex (zero based) of size entities matching filter
// in order. A non-positive size returns every match.
func (r *Repository[T, K]) Find(ctx context.Context, filter any, order Order, pageIndex, size int64) ([]*T, error) {
	ctx = r.bridge.readContext(ctx)
	opts := pageOptions(order, r.mapping.KeyField, pageIndex, size)
	return retry.Do(ctx, r.policy, "find", func(ctx context.Context) ([]*T, error) {
		return r.find(ctx, orEmpty(filter), opts)
	})
}

// FindAll pages over the whole collection.
func (r *Repository[T, K]) FindAll(ctx context.Context, order Order, pageIndex, size int64) ([]*T, error) {
	return r.Find(ctx, nil, order, pageIndex, size)
}

// First returns the first entity matching filter in order, or ErrNotFound.
func (r *Repository[T, K]) First(ctx context.Context, filter any, order Order) (*T, error) {
	page, err := r.Find(ctx, filter, order, 0, 1)
	if err != nil {
		return nil, err
	}
	if len(page) == 0 {
		return nil, ErrNotFound
	}
	return page[0], nil
}

// Last returns the last entity matching filter in order. It is First with
// the direction reversed.
func (r *Repository[T, K]) Last(ctx context.Context, filter any, order Order) (*T, error) {
	return r.First(ctx, filter, order.Reverse())
}

// Any reports whether some entity matches filter.
func (r *Repository[T, K]) Any(ctx context.Context, filter any) (bool, error) {
	_, err := r.First(ctx, filter, Order{})
	if errors.Is(err, ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// Exists reports whether an entity with key is stored.
func (r *Repository[T, K]) Exists(ctx context.Context, key K) (bool, error) {
	return r.Any(ctx, r.keyFilter(key))
}

// Count returns the exact number of entities matching filter.
func (r *Repository[T, K]) Count(ctx context.Context, filter any) (int64, error) {
	ctx = r.bridge.readContext(ctx)
	return retry.Do(ctx, r.policy, "count", func(ctx context.Context) (int64, error) {
		return r.collection.CountDocuments(ctx, orEmpty(filter))
	})
}

// EstimatedCount returns the approximate size of the collection from its
// metadata.
func (r *Repository[T, K]) EstimatedCount(ctx context.Context, opts ...*options.EstimatedDocumentCountOptions) (int64, error) {
	return retry.Do(ctx, r.policy, "estimated_count", func(ctx context.Context) (int64, error) {
		return r.collection.EstimatedDocumentCount(ctx, opts...)
	})
}

// Search runs a filtered, sorted and paginated listing. Pagination defaults
// are written back into opts, so the caller sees the page and size used.
func (r *Repository[T, K]) Search(ctx context.Context, opts *dto.QueryOptions) (*dto.Paginated[*T], error) {
	if opts == nil {
		opts = &dto.QueryOptions{}
	}
	filter, findOptions := ApplyQueryOptions(opts, r.mapping.KeyField)

	readCtx := r.bridge.readContext(ctx)
	records, err := retry.Do(readCtx, r.policy, "search", func(ctx context.Context) ([]*T, error) {
		return r.find(ctx, filter, findOptions)
	})
	if err != nil {
		return nil, err
	}

	total, err := r.Count(ctx, BuildFilter(opts.Filters))
	if err != nil {
		return nil, err
	}

	return &dto.Paginated[*T]{
		Records:    &records,
		Pagination: dto.CalculatePagination(opts.Pagination.Page, opts.Pagination.PageSize, total),
	}, nil
}

func (r *Repository[T, K]) findOne(ctx context.Context, filter any, opts ...*options.FindOneOptions) (*T, error) {
	var entity T
	if err := r.collection.FindOne(ctx, filter, opts...).Decode(&entity); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &entity, nil
}

func (r *Repository[T, K]) find(ctx context.Context, filter any, opts ...*options.FindOptions) ([]*T, error) {
	cursor, err := r.collection.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}

	entities := make([]*T, 0)
	if err := cursor.All(ctx, &entities); err != nil {
		return nil, err
	}
	return entities, nil
}
