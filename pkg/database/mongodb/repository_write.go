package mongodb

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/huynhanx03/go-nosql/pkg/database/retry"
)

// Insert stores entity.
func (r *Repository[T, K]) Insert(ctx context.Context, entity *T) error {
	ctx = r.bridge.begin(ctx)
	return r.policy.Run(ctx, "insert", func(ctx context.Context) error {
		_, err := r.collection.InsertOne(ctx, entity)
		return err
	})
}

// InsertMany stores entities in one ordered batch.
func (r *Repository[T, K]) InsertMany(ctx context.Context, entities []*T) error {
	if len(entities) == 0 {
		return nil
	}
	ctx = r.bridge.begin(ctx)

	docs := make([]any, len(entities))
	for i, e := range entities {
		docs[i] = e
	}
	return r.policy.Run(ctx, "insert_many", func(ctx context.Context) error {
		_, err := r.collection.InsertMany(ctx, docs)
		return err
	})
}

// Replace overwrites the entity stored under key. The result reports whether
// the write was acknowledged.
func (r *Repository[T, K]) Replace(ctx context.Context, key K, entity *T) (bool, error) {
	ctx = r.bridge.begin(ctx)
	return retry.Do(ctx, r.policy, "replace", func(ctx context.Context) (bool, error) {
		res, err := r.collection.ReplaceOne(ctx, r.keyFilter(key), entity)
		return acknowledged(res, err)
	})
}

// Save replaces entity under the key read by the mapping's Key accessor.
func (r *Repository[T, K]) Save(ctx context.Context, entity *T) (bool, error) {
	if r.mapping.Key == nil {
		return false, ErrNoKeyAccessor
	}
	return r.Replace(ctx, r.mapping.Key(entity), entity)
}

// Update applies the combined updates to the entity stored under key.
func (r *Repository[T, K]) Update(ctx context.Context, key K, updates ...bson.D) (bool, error) {
	return r.updateWhere(ctx, "update", r.keyFilter(key), false, updates...)
}

// UpdateField sets a single field of the entity stored under key.
func (r *Repository[T, K]) UpdateField(ctx context.Context, key K, field string, value any) (bool, error) {
	return r.Update(ctx, key, UpdateBuilder{}.Set(field, value))
}

// UpdateWhere applies the combined updates to every entity matching filter.
func (r *Repository[T, K]) UpdateWhere(ctx context.Context, filter any, updates ...bson.D) (bool, error) {
	return r.updateWhere(ctx, "update_many", orEmpty(filter), true, updates...)
}

// UpdateFieldWhere sets a single field on every entity matching filter.
func (r *Repository[T, K]) UpdateFieldWhere(ctx context.Context, filter any, field string, value any) (bool, error) {
	return r.UpdateWhere(ctx, filter, UpdateBuilder{}.Set(field, value))
}

func (r *Repository[T, K]) updateWhere(ctx context.Context, operation string, filter any, many bool, updates ...bson.D) (bool, error) {
	ctx = r.bridge.begin(ctx)
	update := UpdateBuilder{}.Combine(updates...)

	return retry.Do(ctx, r.policy, operation, func(ctx context.Context) (bool, error) {
		if many {
			return acknowledged(r.collection.UpdateMany(ctx, filter, update))
		}
		return acknowledged(r.collection.UpdateOne(ctx, filter, update))
	})
}

// FindAndUpdate atomically applies update to the first entity matching
// filter, inserting one when none matches, and returns the entity after the
// update. An inserted entity gets reservedKey as its primary key; a matched
// entity keeps its own.
func (r *Repository[T, K]) FindAndUpdate(ctx context.Context, filter any, update bson.D, reservedKey K) (*T, error) {
	ctx = r.bridge.begin(ctx)

	combined := UpdateBuilder{}.Combine(update, UpdateBuilder{}.SetOnInsert(r.mapping.KeyField, reservedKey))
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	return retry.Do(ctx, r.policy, "find_and_update", func(ctx context.Context) (*T, error) {
		var entity T
		if err := r.collection.FindOneAndUpdate(ctx, orEmpty(filter), combined, opts).Decode(&entity); err != nil {
			return nil, err
		}
		return &entity, nil
	})
}

// Delete removes the entity stored under key.
func (r *Repository[T, K]) Delete(ctx context.Context, key K) error {
	return r.deleteWhere(ctx, "delete", r.keyFilter(key))
}

// DeleteMany removes the entities stored under keys.
func (r *Repository[T, K]) DeleteMany(ctx context.Context, keys []K) error {
	if len(keys) == 0 {
		return nil
	}
	return r.deleteWhere(ctx, "delete_many", FilterBuilder{}.In(r.mapping.KeyField, keys))
}

// DeleteWhere removes every entity matching filter.
func (r *Repository[T, K]) DeleteWhere(ctx context.Context, filter any) error {
	return r.deleteWhere(ctx, "delete_many", orEmpty(filter))
}

// DeleteAll empties the collection.
func (r *Repository[T, K]) DeleteAll(ctx context.Context) error {
	return r.deleteWhere(ctx, "delete_all", bson.D{})
}

func (r *Repository[T, K]) deleteWhere(ctx context.Context, operation string, filter any) error {
	ctx = r.bridge.begin(ctx)
	return r.policy.Run(ctx, operation, func(ctx context.Context) error {
		_, err := r.collection.DeleteMany(ctx, filter)
		return err
	})
}

// acknowledged maps an update result to the acknowledgment flag. Writes with
// an unacknowledged write concern report false without an error.
func acknowledged(res *mongo.UpdateResult, err error) (bool, error) {
	if errors.Is(err, mongo.ErrUnacknowledgedWrite) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return res != nil, nil
}
