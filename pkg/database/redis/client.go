package redis

import (
	"context"
	"fmt"
	"time"

	redisV9 "github.com/redis/go-redis/v9"

	"github.com/huynhanx03/go-nosql/pkg/settings"
	"github.com/huynhanx03/go-nosql/pkg/utils"
)

const (
	defaultHost            = "localhost"
	defaultPoolSize        = 10
	defaultMinIdleConns    = 5
	defaultPoolTimeout     = 5
	defaultDialTimeout     = 5
	defaultReadTimeout     = 3
	defaultWriteTimeout    = 3
	defaultMaxRetries      = 3
	defaultMinRetryBackoff = 300 // millis
	defaultMaxRetryBackoff = 500 // millis
	pingTimeout            = 5 * time.Second
)

// Engine owns a Redis client built from settings.
type Engine struct {
	client *redisV9.Client
	config *settings.Redis
}

// connect initializes the Redis client
func (r *Engine) connect(ctx context.Context) error {
	r.setDefaultConfig()

	r.client = redisV9.NewClient(r.options())

	// Ping test
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := r.client.Ping(ctx).Err(); err != nil {
		_ = r.client.Close()
		return fmt.Errorf("%w: %v", ErrPingFailed, err)
	}

	return nil
}

func (r *Engine) options() *redisV9.Options {
	return &redisV9.Options{
		Addr:            r.addr(),
		Password:        r.config.Password,
		DB:              r.config.Database,
		PoolSize:        r.config.PoolSize,
		MinIdleConns:    r.config.MinIdleConns,
		MaxRetries:      r.config.MaxRetries,
		DialTimeout:     utils.ToDuration(r.config.DialTimeout),
		ReadTimeout:     utils.ToDuration(r.config.ReadTimeout),
		WriteTimeout:    utils.ToDuration(r.config.WriteTimeout),
		PoolTimeout:     utils.ToDuration(r.config.PoolTimeout),
		MinRetryBackoff: utils.ToDurationMs(r.config.MinRetryBackoff),
		MaxRetryBackoff: utils.ToDurationMs(r.config.MaxRetryBackoff),
	}
}

func (r *Engine) addr() string {
	host := r.config.Host
	if host == "" {
		host = defaultHost
	}
	if r.config.Port > 0 {
		return fmt.Sprintf("%s:%d", host, r.config.Port)
	}
	return host
}

// setDefaultConfig sets default values for Redis configuration
func (r *Engine) setDefaultConfig() {
	if r.config.PoolSize == 0 {
		r.config.PoolSize = defaultPoolSize
	}
	if r.config.MinIdleConns == 0 {
		r.config.MinIdleConns = defaultMinIdleConns
	}
	if r.config.PoolTimeout == 0 {
		r.config.PoolTimeout = defaultPoolTimeout
	}
	if r.config.DialTimeout == 0 {
		r.config.DialTimeout = defaultDialTimeout
	}
	if r.config.ReadTimeout == 0 {
		r.config.ReadTimeout = defaultReadTimeout
	}
	if r.config.WriteTimeout == 0 {
		r.config.WriteTimeout = defaultWriteTimeout
	}
	if r.config.MaxRetries == 0 {
		r.config.MaxRetries = defaultMaxRetries
	}
	if r.config.MinRetryBackoff == 0 {
		r.config.MinRetryBackoff = defaultMinRetryBackoff
	}
	if r.config.MaxRetryBackoff == 0 {
		r.config.MaxRetryBackoff = defaultMaxRetryBackoff
	}
}

// Close closes the Redis client
func (r *Engine) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// Client returns the underlying redis client (Escape hatch)
func (r *Engine) Client() *redisV9.Client {
	return r.client
}

// Sequences returns a generator storing its counters under the configured
// key prefix.
func (r *Engine) Sequences(opts ...Option) *SequenceGenerator {
	return NewSequenceGenerator(r.client, r.config.KeyPrefix, opts...)
}
