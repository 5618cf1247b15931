package mongodb

import (
	"context"
	"sync"

	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-nosql/pkg/logger"
	"github.com/huynhanx03/go-nosql/pkg/metrics"
	"github.com/huynhanx03/go-nosql/pkg/transaction"
)

// transactor is the part of mongo.Session driven by the bridge.
type transactor interface {
	StartTransaction(opts ...*options.TransactionOptions) error
	CommitTransaction(ctx context.Context) error
	AbortTransaction(ctx context.Context) error
}

// enlistmentBridge joins the repository session to the ambient transaction
// carried by a context. The first mutating call in a scope starts a session
// transaction and enlists it exactly once; the ambient outcome then commits
// or aborts it.
//
// One bridge serves one repository. Distinct ambient scopes are expected to
// use the repository one after another, not at the same time.
type enlistmentBridge struct {
	session    transactor
	bind       func(ctx context.Context) context.Context
	replicaSet bool
	txOptions  *options.TransactionOptions
	logger     *zap.Logger
	metrics    *metrics.Database

	mu       sync.Mutex
	inTx     bool
	scope    *transaction.Transaction
	enlisted bool
}

func newEnlistmentBridge(
	session transactor,
	bind func(ctx context.Context) context.Context,
	replicaSet bool,
	txOptions *options.TransactionOptions,
	log *zap.Logger,
	m *metrics.Database,
) *enlistmentBridge {
	return &enlistmentBridge{
		session:    session,
		bind:       bind,
		replicaSet: replicaSet,
		txOptions:  txOptions,
		logger:     logger.OrNop(log),
		metrics:    m,
	}
}

// begin prepares ctx for a mutating call. Inside an active ambient
// transaction on a replica set it returns ctx bound to the session
// transaction; otherwise ctx is returned unchanged and the write runs on its
// own. Failures to start or enlist are logged and never fail the write.
func (b *enlistmentBridge) begin(ctx context.Context) context.Context {
	if !b.replicaSet {
		return ctx
	}
	tx, ok := transaction.FromContext(ctx)
	if !ok {
		return ctx
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.scope != tx {
		b.scope = tx
		b.enlisted = false
	}

	started := false
	if !b.inTx {
		if err := b.session.StartTransaction(b.startOptions()...); err != nil {
			b.logger.Warn("failed to start session transaction", zap.Stringer("transaction_id", tx.ID()), zap.Error(err))
			return ctx
		}
		b.inTx = true
		started = true
		b.metrics.RecordTransaction(metrics.OutcomeStarted)
		b.logger.Debug("session transaction started", zap.Stringer("transaction_id", tx.ID()))
	}

	if !b.enlisted {
		if err := tx.Enlist(&resourceManager{bridge: b}); err != nil {
			b.logger.Warn("failed to enlist session transaction", zap.Stringer("transaction_id", tx.ID()), zap.Error(err))
			if started {
				_ = b.abortLocked(ctx)
			}
			return ctx
		}
		b.enlisted = true
		b.metrics.RecordEnlistment()
	}

	return b.bind(ctx)
}

// readContext binds reads to the session only while the ambient scope of ctx
// owns the open session transaction, so they observe its uncommitted writes.
func (b *enlistmentBridge) readContext(ctx context.Context) context.Context {
	if !b.replicaSet {
		return ctx
	}
	tx, ok := transaction.FromContext(ctx)
	if !ok {
		return ctx
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if b.inTx && b.enlisted && b.scope == tx {
		return b.bind(ctx)
	}
	return ctx
}

// inTransaction reports whether a session transaction is open.
func (b *enlistmentBridge) inTransaction() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inTx
}

func (b *enlistmentBridge) commit(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inTx {
		return nil
	}
	b.inTx = false

	if err := b.session.CommitTransaction(ctx); err != nil {
		b.logger.Warn("failed to commit session transaction", zap.Error(err))
		return err
	}
	b.metrics.RecordTransaction(metrics.OutcomeCommitted)
	b.logger.Debug("session transaction committed")
	return nil
}

func (b *enlistmentBridge) abort(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inTx {
		return nil
	}
	return b.abortLocked(ctx)
}

func (b *enlistmentBridge) abortLocked(ctx context.Context) error {
	b.inTx = false

	if err := b.session.AbortTransaction(ctx); err != nil {
		b.logger.Warn("failed to abort session transaction", zap.Error(err))
		return err
	}
	b.metrics.RecordTransaction(metrics.OutcomeAborted)
	b.logger.Debug("session transaction aborted")
	return nil
}

// close aborts a session transaction that was never committed.
func (b *enlistmentBridge) close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.inTx {
		return nil
	}
	b.logger.Info("aborting uncommitted session transaction on close")
	return b.abortLocked(ctx)
}

func (b *enlistmentBridge) startOptions() []*options.TransactionOptions {
	if b.txOptions == nil {
		return nil
	}
	return []*options.TransactionOptions{b.txOptions}
}

// resourceManager relays ambient outcomes to the session transaction. It
// votes prepared unconditionally, so the session transaction is only safe as
// the single durable participant of the ambient transaction.
type resourceManager struct {
	bridge *enlistmentBridge
}

var _ transaction.Resource = (*resourceManager)(nil)

func (r *resourceManager) Prepare(context.Context) error {
	return nil
}

func (r *resourceManager) Commit(ctx context.Context) error {
	return r.bridge.commit(ctx)
}

func (r *resourceManager) Rollback(ctx context.Context) error {
	return r.bridge.abort(ctx)
}

func (r *resourceManager) InDoubt(context.Context) error {
	return nil
}
