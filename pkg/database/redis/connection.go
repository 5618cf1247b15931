package redis

import (
	"context"
	"fmt"

	"github.com/huynhanx03/go-nosql/pkg/settings"
)

// NewConnection creates and returns a new Redis client
func NewConnection(ctx context.Context, cfg *settings.Redis) (*Engine, error) {
	engine := &Engine{
		config: cfg,
	}

	if err := engine.connect(ctx); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return engine, nil
}
