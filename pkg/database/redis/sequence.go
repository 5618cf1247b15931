package redis

import (
	"context"

	redisV9 "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-nosql/pkg/database"
	"github.com/huynhanx03/go-nosql/pkg/database/retry"
	"github.com/huynhanx03/go-nosql/pkg/metrics"
)

const sequenceBackend = "redis"

// SequenceGenerator hands out integer identifiers from Redis counters, one
// key per sequence name. INCR is atomic, so concurrent callers never share a
// value.
type SequenceGenerator struct {
	client  redisV9.Cmdable
	prefix  string
	policy  *retry.Policy
	metrics *metrics.Database
}

var _ database.SequenceGenerator = (*SequenceGenerator)(nil)

type sequenceOptions struct {
	logger  *zap.Logger
	policy  *retry.Policy
	metrics *metrics.Database
}

// Option configures a SequenceGenerator.
type Option func(*sequenceOptions)

// WithLogger sets the logger of the default retry policy.
func WithLogger(l *zap.Logger) Option {
	return func(o *sequenceOptions) {
		o.logger = l
	}
}

// WithRetryPolicy replaces the default retry policy.
func WithRetryPolicy(p *retry.Policy) Option {
	return func(o *sequenceOptions) {
		o.policy = p
	}
}

// WithMetrics sets the collectors.
func WithMetrics(m *metrics.Database) Option {
	return func(o *sequenceOptions) {
		o.metrics = m
	}
}

// NewSequenceGenerator returns a generator storing counters under prefix.
func NewSequenceGenerator(client redisV9.Cmdable, prefix string, opts ...Option) *SequenceGenerator {
	o := &sequenceOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.policy == nil {
		o.policy = retry.New(retry.WithLogger(o.logger), retry.WithMetrics(o.metrics))
	}

	return &SequenceGenerator{
		client:  client,
		prefix:  prefix,
		policy:  o.policy,
		metrics: o.metrics,
	}
}

// Next increments the counter of name and returns its new value, starting
// at 1.
func (g *SequenceGenerator) Next(ctx context.Context, name string) (int64, error) {
	key := g.Key(name)

	value, err := retry.Do(ctx, g.policy, "sequence_next", func(ctx context.Context) (int64, error) {
		return g.client.Incr(ctx, key).Result()
	})
	if err != nil {
		return 0, err
	}

	g.metrics.RecordSequence(sequenceBackend)
	return value, nil
}

// Key returns the Redis key holding the counter of name.
func (g *SequenceGenerator) Key(name string) string {
	return g.prefix + name
}
