// Package food is a sample domain repository built on the generic MongoDB
// repository and a sequence generator.
package food

import (
	"context"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-nosql/pkg/database"
	"github.com/huynhanx03/go-nosql/pkg/database/mongodb"
	"github.com/huynhanx03/go-nosql/pkg/logger"
)

// Repository stores foods.
type Repository interface {
	Search(ctx context.Context, req *SearchRequest) ([]*Food, error)
	Get(ctx context.Context, foodID int64) (*Food, error)
	Insert(ctx context.Context, food *Food) error
	InsertMany(ctx context.Context, foods []*Food) error
	Update(ctx context.Context, food *Food) error
	Create(ctx context.Context, foodID int64, name string) (*Food, error)
}

type repository struct {
	base   *mongodb.Repository[Food, int64]
	ids    database.SequenceGenerator
	logger *zap.Logger
}

var _ Repository = (*repository)(nil)

// NewRepository wraps base and ensures the unique index on foodId.
func NewRepository(ctx context.Context, base *mongodb.Repository[Food, int64], ids database.SequenceGenerator, log *zap.Logger) (Repository, error) {
	_, err := base.EnsureIndex(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "foodId", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, err
	}

	return &repository{base: base, ids: ids, logger: logger.OrNop(log)}, nil
}

func (r *repository) Search(ctx context.Context, req *SearchRequest) ([]*Food, error) {
	if req == nil || len(req.FoodIDs) == 0 {
		return r.base.GetAll(ctx)
	}
	return r.base.FindMany(ctx, r.base.Filter().In("foodId", req.FoodIDs))
}

// Get returns the food with the external identifier foodID.
func (r *repository) Get(ctx context.Context, foodID int64) (*Food, error) {
	return r.base.First(ctx, r.base.Filter().Eq("foodId", foodID), mongodb.Order{})
}

func (r *repository) Insert(ctx context.Context, food *Food) error {
	return r.base.Insert(ctx, food)
}

// InsertMany stores foods in order. A batch stopped by an existing food is
// not reported as an error.
func (r *repository) InsertMany(ctx context.Context, foods []*Food) error {
	err := r.base.InsertMany(ctx, foods)
	if mongo.IsDuplicateKeyError(err) {
		r.logger.Debug("skipped existing foods", zap.Error(err))
		return nil
	}
	return err
}

func (r *repository) Update(ctx context.Context, food *Food) error {
	_, err := r.base.Save(ctx, food)
	return err
}

// Create returns the food with foodID, inserting it under a freshly reserved
// key when it does not exist yet. An existing food keeps its key and takes
// the new name.
func (r *repository) Create(ctx context.Context, foodID int64, name string) (*Food, error) {
	id, err := r.ids.Next(ctx, SequenceName)
	if err != nil {
		return nil, err
	}

	return r.base.FindAndUpdate(ctx,
		r.base.Filter().Eq("foodId", foodID),
		r.base.Updater().Set("name", name),
		id,
	)
}
