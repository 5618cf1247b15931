// Package transaction provides an ambient transaction that independent
// resources can enlist in, so that their outcome follows a single
// commit or rollback decision. The transaction travels in a context.Context.
package transaction

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Status is the lifecycle state of a Transaction.
type Status int

const (
	StatusActive Status = iota
	StatusPreparing
	StatusCommitted
	StatusAborted
	StatusInDoubt
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusPreparing:
		return "preparing"
	case StatusCommitted:
		return "committed"
	case StatusAborted:
		return "aborted"
	case StatusInDoubt:
		return "in_doubt"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Resource receives the outcome notifications of the transaction it is
// enlisted in.
type Resource interface {
	// Prepare votes on the outcome. A non-nil error aborts the transaction.
	Prepare(ctx context.Context) error
	Commit(ctx context.Context) error
	Rollback(ctx context.Context) error
	// InDoubt is called when the decision could not be delivered.
	InDoubt(ctx context.Context) error
}

// Transaction is an ambient unit of work coordinating enlisted resources.
type Transaction struct {
	id     uuid.UUID
	logger *zap.Logger

	mu        sync.Mutex
	status    Status
	resources []Resource
}

// Option configures a Transaction.
type Option func(*Transaction)

// WithLogger sets the logger used for outcome notifications.
func WithLogger(l *zap.Logger) Option {
	return func(t *Transaction) {
		if l != nil {
			t.logger = l
		}
	}
}

// New begins a new active transaction.
func New(opts ...Option) *Transaction {
	t := &Transaction{
		id:     uuid.New(),
		logger: zap.NewNop(),
		status: StatusActive,
	}
	for _, opt := range opts {
		opt(t)
	}
	t.logger = t.logger.With(zap.Stringer("transaction_id", t.id))
	return t
}

// ID returns the transaction identifier.
func (t *Transaction) ID() uuid.UUID {
	return t.id
}

// Status returns the current lifecycle state.
func (t *Transaction) Status() Status {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.status
}

// Active reports whether resources may still enlist.
func (t *Transaction) Active() bool {
	return t.Status() == StatusActive
}

// Enlistments returns the number of enlisted resources.
func (t *Transaction) Enlistments() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.resources)
}

// Enlist registers r for the outcome notifications of t.
func (t *Transaction) Enlist(r Resource) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusActive {
		return ErrNotActive
	}
	t.resources = append(t.resources, r)
	return nil
}

// Commit runs the prepare phase on every resource and, if all of them are
// prepared, commits them. A failed prepare rolls every resource back.
func (t *Transaction) Commit(ctx context.Context) error {
	resources, err := t.finish(StatusPreparing)
	if err != nil {
		return err
	}

	for _, r := range resources {
		if err := r.Prepare(ctx); err != nil {
			t.logger.Warn("resource failed to prepare, rolling back", zap.Error(err))
			rollbackErr := t.notify(ctx, resources, Resource.Rollback)
			t.setStatus(StatusAborted)
			return errors.Join(fmt.Errorf("%w: %w", ErrPrepareFailed, err), rollbackErr)
		}
	}

	// The decision is commit, but it can no longer be delivered.
	if ctx.Err() != nil {
		t.setStatus(StatusInDoubt)
		t.logger.Warn("context done before commit could be delivered", zap.Error(ctx.Err()))
		return errors.Join(ErrInDoubt, t.notify(context.WithoutCancel(ctx), resources, Resource.InDoubt))
	}

	err = t.notify(ctx, resources, Resource.Commit)
	t.setStatus(StatusCommitted)
	t.logger.Debug("transaction committed", zap.Int("resources", len(resources)), zap.Error(err))
	return err
}

// Rollback aborts the transaction and notifies every resource.
func (t *Transaction) Rollback(ctx context.Context) error {
	resources, err := t.finish(StatusAborted)
	if err != nil {
		return err
	}

	err = t.notify(ctx, resources, Resource.Rollback)
	t.logger.Debug("transaction rolled back", zap.Int("resources", len(resources)), zap.Error(err))
	return err
}

// finish moves an active transaction to next and returns a snapshot of its
// resources.
func (t *Transaction) finish(next Status) ([]Resource, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.status != StatusActive {
		return nil, ErrNotActive
	}
	t.status = next

	resources := make([]Resource, len(t.resources))
	copy(resources, t.resources)
	return resources, nil
}

func (t *Transaction) setStatus(s Status) {
	t.mu.Lock()
	t.status = s
	t.mu.Unlock()
}

// notify delivers fn to every resource, continuing past failures.
func (t *Transaction) notify(ctx context.Context, resources []Resource, fn func(Resource, context.Context) error) error {
	var errs []error
	for _, r := range resources {
		if err := fn(r, ctx); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
