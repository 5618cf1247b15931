// Package retry masks short-lived connectivity failures by re-executing
// store operations a bounded number of times.
package retry

import (
	"context"
	"time"

	goretry "github.com/sethvargo/go-retry"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-nosql/pkg/metrics"
	"github.com/huynhanx03/go-nosql/pkg/settings"
)

const (
	DefaultMaxAttempts = 3
	DefaultBackoff     = 100 * time.Millisecond
	maxBackoff         = 2 * time.Second
)

// Policy re-executes an operation while it fails with a transient fault,
// up to a fixed number of total attempts. It holds no lock; every attempt is
// an independent call.
type Policy struct {
	maxAttempts uint64
	backoff     func() goretry.Backoff
	classify    Classifier
	logger      *zap.Logger
	metrics     *metrics.Database
}

// Option configures a Policy.
type Option func(*Policy)

// WithMaxAttempts sets the total number of attempts, including the first.
func WithMaxAttempts(n uint64) Option {
	return func(p *Policy) {
		if n > 0 {
			p.maxAttempts = n
		}
	}
}

// WithBackoff sets the factory for the wait between attempts. A fresh
// backoff is built for every operation.
func WithBackoff(fn func() goretry.Backoff) Option {
	return func(p *Policy) {
		if fn != nil {
			p.backoff = fn
		}
	}
}

// WithClassifier sets the predicate selecting retryable errors.
func WithClassifier(c Classifier) Option {
	return func(p *Policy) {
		if c != nil {
			p.classify = c
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(p *Policy) {
		if l != nil {
			p.logger = l
		}
	}
}

// WithMetrics sets the collectors counting re-executions.
func WithMetrics(m *metrics.Database) Option {
	return func(p *Policy) {
		p.metrics = m
	}
}

// New creates a policy with three attempts, a capped exponential backoff
// and the connectivity classifier, adjusted by opts.
func New(opts ...Option) *Policy {
	p := &Policy{
		maxAttempts: DefaultMaxAttempts,
		backoff:     exponential(DefaultBackoff),
		classify:    IsConnectivityError,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromSettings creates a policy from configuration. Explicit opts win.
func NewFromSettings(cfg settings.Retry, opts ...Option) *Policy {
	base := make([]Option, 0, 2+len(opts))
	if cfg.MaxAttempts > 0 {
		base = append(base, WithMaxAttempts(uint64(cfg.MaxAttempts)))
	}
	if cfg.BackoffMs > 0 {
		base = append(base, WithBackoff(exponential(time.Duration(cfg.BackoffMs)*time.Millisecond)))
	}
	return New(append(base, opts...)...)
}

// MaxAttempts returns the total number of attempts.
func (p *Policy) MaxAttempts() uint64 {
	return p.maxAttempts
}

// Retryable reports whether the policy would re-execute after err.
func (p *Policy) Retryable(err error) bool {
	return p.classify(err)
}

// Run executes fn under the policy. Non-transient errors are returned on
// first occurrence; after the last attempt the final error is returned
// unchanged.
func (p *Policy) Run(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var attempt uint64
	b := goretry.WithMaxRetries(p.maxAttempts-1, p.backoff())

	return goretry.Do(ctx, b, func(ctx context.Context) error {
		attempt++

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if !p.classify(err) {
			return err
		}

		if attempt < p.maxAttempts {
			p.logger.Warn("transient store fault, retrying",
				zap.String("operation", operation),
				zap.Uint64("attempt", attempt),
				zap.Uint64("max_attempts", p.maxAttempts),
				zap.Error(err),
			)
			p.metrics.RecordRetry(operation)
		}
		return goretry.RetryableError(err)
	})
}

// Do executes fn under p and returns its result.
func Do[T any](ctx context.Context, p *Policy, operation string, fn func(ctx context.Context) (T, error)) (T, error) {
	var result T
	err := p.Run(ctx, operation, func(ctx context.Context) error {
		var err error
		result, err = fn(ctx)
		return err
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return result, nil
}

func exponential(base time.Duration) func() goretry.Backoff {
	return func() goretry.Backoff {
		return goretry.WithCappedDuration(maxBackoff, goretry.NewExponential(base))
	}
}
