package mongodb

import (
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-nosql/pkg/database/retry"
	"github.com/huynhanx03/go-nosql/pkg/metrics"
	"github.com/huynhanx03/go-nosql/pkg/settings"
)

type repositoryOptions struct {
	logger    *zap.Logger
	policy    *retry.Policy
	metrics   *metrics.Database
	retry     settings.Retry
	txOptions *options.TransactionOptions
}

// Option configures a Repository or a SequenceGenerator.
type Option func(*repositoryOptions)

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(o *repositoryOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// WithRetryPolicy replaces the default transient-fault policy.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(o *repositoryOptions) {
		o.policy = p
	}
}

// WithRetrySettings configures the default policy from settings.
func WithRetrySettings(cfg settings.Retry) Option {
	return func(o *repositoryOptions) {
		o.retry = cfg
	}
}

// WithMetrics sets the collectors.
func WithMetrics(m *metrics.Database) Option {
	return func(o *repositoryOptions) {
		o.metrics = m
	}
}

// WithTransactionOptions sets the options of session transactions started
// for ambient scopes.
func WithTransactionOptions(opts *options.TransactionOptions) Option {
	return func(o *repositoryOptions) {
		o.txOptions = opts
	}
}

func buildOptions(opts []Option) *repositoryOptions {
	o := &repositoryOptions{logger: zap.NewNop()}
	for _, opt := range opts {
		opt(o)
	}
	if o.policy == nil {
		o.policy = NewRetryPolicy(o.retry, o.logger, o.metrics)
	}
	return o
}
