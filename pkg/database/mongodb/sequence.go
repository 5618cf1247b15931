package mongodb

import (
	"context"
	"sync/atomic"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/huynhanx03/go-nosql/pkg/constraints"
	"github.com/huynhanx03/go-nosql/pkg/database"
	"github.com/huynhanx03/go-nosql/pkg/database/retry"
	"github.com/huynhanx03/go-nosql/pkg/metrics"
)

const (
	// DefaultSequenceCollection holds one counter document per sequence name.
	DefaultSequenceCollection = "IDs"

	sequenceNameField  = "sequenceName"
	sequenceValueField = "value"
	sequenceBackend    = "mongodb"

	indexTimeout = 30 * time.Second
)

type sequenceCounter struct {
	ID           primitive.ObjectID `bson:"_id,omitempty"`
	SequenceName string             `bson:"sequenceName"`
	Value        int64              `bson:"value"`
}

// SequenceGenerator hands out integer identifiers from counter documents.
// Counters are never enlisted in ambient transactions, so a rolled back
// scope leaves a gap rather than reusing a value.
type SequenceGenerator struct {
	collection *mongo.Collection
	policy     *retry.Policy
	logger     *zap.Logger
	metrics    *metrics.Database

	createIndex func(ctx context.Context) error
	group       singleflight.Group
	ready       atomic.Bool
}

var _ database.SequenceGenerator = (*SequenceGenerator)(nil)

// NewSequenceGenerator returns a generator over the counter collection of
// db. The collection name defaults to DefaultSequenceCollection.
func NewSequenceGenerator(db *mongo.Database, collection string, opts ...Option) *SequenceGenerator {
	if collection == "" {
		collection = DefaultSequenceCollection
	}
	o := buildOptions(opts)

	g := &SequenceGenerator{
		collection: db.Collection(collection),
		policy:     o.policy,
		logger:     o.logger.With(zap.String("collection", collection)),
		metrics:    o.metrics,
	}
	g.createIndex = g.createNameIndex
	return g
}

// Next increments the counter of name and returns its new value. The first
// call for a name creates the counter at 1.
func (g *SequenceGenerator) Next(ctx context.Context, name string) (int64, error) {
	if err := g.ensureIndex(ctx); err != nil {
		return 0, err
	}

	filter := bson.D{{Key: sequenceNameField, Value: name}}
	update := bson.D{{Key: "$inc", Value: bson.D{{Key: sequenceValueField, Value: int64(1)}}}}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	value, err := retry.Do(ctx, g.policy, "sequence_next", func(ctx context.Context) (int64, error) {
		var counter sequenceCounter
		if err := g.collection.FindOneAndUpdate(ctx, filter, update, opts).Decode(&counter); err != nil {
			return 0, err
		}
		return counter.Value, nil
	})
	if err != nil {
		return 0, err
	}

	g.metrics.RecordSequence(sequenceBackend)
	return value, nil
}

// ensureIndex creates the unique index on the sequence name once. Concurrent
// first callers share a single creation request that outlives any one
// caller's context; each caller still returns as soon as its own context is
// done. A failed creation is retried by the next call.
func (g *SequenceGenerator) ensureIndex(ctx context.Context) error {
	if g.ready.Load() {
		return nil
	}

	ch := g.group.DoChan("index", func() (any, error) {
		if g.ready.Load() {
			return nil, nil
		}

		shared, cancel := context.WithTimeout(context.WithoutCancel(ctx), indexTimeout)
		defer cancel()

		if err := g.createIndex(shared); err != nil {
			return nil, err
		}

		g.ready.Store(true)
		g.logger.Debug("sequence index ready")
		return nil, nil
	})

	select {
	case res := <-ch:
		return res.Err
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (g *SequenceGenerator) createNameIndex(ctx context.Context) error {
	model := mongo.IndexModel{
		Keys:    bson.D{{Key: sequenceNameField, Value: 1}},
		Options: options.Index().SetUnique(true),
	}
	return g.policy.Run(ctx, "sequence_index", func(ctx context.Context) error {
		_, err := g.collection.Indexes().CreateOne(ctx, model)
		return err
	})
}

// IsEmpty reports whether id is unset.
func IsEmpty[K constraints.Integer](id K) bool {
	return id == 0
}
