package mongodb

import (
	"context"
	"errors"
	"sync"

	pkgerrors "github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-nosql/pkg/database"
	"github.com/huynhanx03/go-nosql/pkg/database/retry"
	"github.com/huynhanx03/go-nosql/pkg/settings"
)

// Repository is a generic data-access layer over one collection. Every
// store call runs through the retry policy and every mutating call joins
// the ambient transaction of its context when the deployment supports it.
//
// A Repository owns one session and must be released with Close.
type Repository[T any, K any] struct {
	client     *mongo.Client
	ownsClient bool
	session    mongo.Session
	collection *mongo.Collection
	mapping    Mapping[T, K]
	bridge     *enlistmentBridge
	policy     *retry.Policy
	logger     *zap.Logger

	closeOnce sync.Once
	closeErr  error
}

var _ database.Repository[struct{}, int64] = (*Repository[struct{}, int64])(nil)

// New connects using cfg and returns a repository over mapping.Collection
// in cfg.Database. The client is disconnected by Close.
func New[T any, K any](ctx context.Context, cfg *settings.MongoDB, mapping Mapping[T, K], opts ...Option) (*Repository[T, K], error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}

	client, err := NewClient(ctx, cfg)
	if err != nil {
		return nil, err
	}

	repo, err := NewWithClient(ctx, client, cfg.Database, mapping, opts...)
	if err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, err
	}
	repo.ownsClient = true
	return repo, nil
}

// NewWithClient returns a repository sharing client. Close leaves the
// client connected.
func NewWithClient[T any, K any](ctx context.Context, client *mongo.Client, databaseName string, mapping Mapping[T, K], opts ...Option) (*Repository[T, K], error) {
	if err := mapping.Validate(); err != nil {
		return nil, err
	}
	o := buildOptions(opts)
	logger := o.logger.With(zap.String("collection", mapping.Collection))

	db := client.Database(databaseName)
	if err := ensureCollection(ctx, db, mapping.Collection, o.policy, logger); err != nil {
		return nil, err
	}

	session, err := client.StartSession()
	if err != nil {
		return nil, pkgerrors.Wrapf(ErrSessionFailed, "%v", err)
	}

	replicaSet, err := IsReplicaSet(ctx, client)
	if err != nil {
		logger.Warn("replica set probe failed, session transactions disabled", zap.Error(err))
		replicaSet = false
	}

	bind := func(ctx context.Context) context.Context {
		return mongo.NewSessionContext(ctx, session)
	}

	return &Repository[T, K]{
		client:     client,
		session:    session,
		collection: db.Collection(mapping.Collection),
		mapping:    mapping,
		bridge:     newEnlistmentBridge(session, bind, replicaSet, o.txOptions, logger, o.metrics),
		policy:     o.policy,
		logger:     logger,
	}, nil
}

// ensureCollection attaches to the collection or creates it. Creation
// failures, such as a concurrent creator winning the race, are ignored.
func ensureCollection(ctx context.Context, db *mongo.Database, name string, policy *retry.Policy, logger *zap.Logger) error {
	names, err := retry.Do(ctx, policy, "list_collections", func(ctx context.Context) ([]string, error) {
		return db.ListCollectionNames(ctx, bson.D{{Key: "name", Value: name}})
	})
	if err != nil {
		return err
	}
	if len(names) > 0 {
		return nil
	}

	if err := db.CreateCollection(ctx, name); err != nil {
		logger.Debug("create collection failed, using existing", zap.Error(err))
	}
	return nil
}

// Close aborts an uncommitted session transaction, ends the session and,
// for repositories created with New, disconnects the client. Close is safe
// to call more than once.
func (r *Repository[T, K]) Close(ctx context.Context) error {
	r.closeOnce.Do(func() {
		var errs []error
		if err := r.bridge.close(ctx); err != nil {
			errs = append(errs, err)
		}
		r.session.EndSession(ctx)
		if r.ownsClient {
			if err := r.client.Disconnect(ctx); err != nil {
				errs = append(errs, err)
			}
		}
		r.closeErr = errors.Join(errs...)
	})
	return r.closeErr
}

// EnsureIndex creates model on the collection under the retry policy and
// returns the index name. Creating an existing identical index is a no-op.
func (r *Repository[T, K]) EnsureIndex(ctx context.Context, model mongo.IndexModel) (string, error) {
	return retry.Do(ctx, r.policy, "create_index", func(ctx context.Context) (string, error) {
		return r.collection.Indexes().CreateOne(ctx, model)
	})
}

// Collection returns the underlying collection.
func (r *Repository[T, K]) Collection() *mongo.Collection {
	return r.collection
}

// KeyField returns the element name of the primary key.
func (r *Repository[T, K]) KeyField() string {
	return r.mapping.KeyField
}

// InTransaction reports whether the session has an open transaction.
func (r *Repository[T, K]) InTransaction() bool {
	return r.bridge.inTransaction()
}

// Filter returns the filter builder.
func (r *Repository[T, K]) Filter() FilterBuilder {
	return FilterBuilder{}
}

// Updater returns the update builder.
func (r *Repository[T, K]) Updater() UpdateBuilder {
	return UpdateBuilder{}
}

// Projection returns the projection builder.
func (r *Repository[T, K]) Projection() ProjectionBuilder {
	return ProjectionBuilder{}
}

func (r *Repository[T, K]) keyFilter(key K) bson.D {
	return bson.D{{Key: r.mapping.KeyField, Value: key}}
}

func orEmpty(filter any) any {
	if filter == nil {
		return bson.D{}
	}
	return filter
}
