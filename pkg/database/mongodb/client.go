package mongodb

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/huynhanx03/go-nosql/pkg/settings"
)

const (
	defaultHost            = "localhost"
	defaultPort            = 27017
	defaultTimeout         = 10
	defaultMaxPoolSize     = 100
	defaultMaxConnIdleTime = 60
)

// NewClient connects to MongoDB using cfg and verifies the connection.
func NewClient(ctx context.Context, cfg *settings.MongoDB) (*mongo.Client, error) {
	setDefaultConfig(cfg)

	client, err := mongo.Connect(ctx, clientOptions(cfg))
	if err != nil {
		return nil, errors.Wrapf(ErrConnectFailed, "%v", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, time.Duration(cfg.Timeout)*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx))
		return nil, errors.Wrapf(ErrPingFailed, "%v", err)
	}

	return client, nil
}

// URI returns the connection string described by cfg.
func URI(cfg *settings.MongoDB) string {
	if cfg.URI != "" {
		return cfg.URI
	}
	host, port := cfg.Host, cfg.Port
	if host == "" {
		host = defaultHost
	}
	if port == 0 {
		port = defaultPort
	}
	return fmt.Sprintf("mongodb://%s:%d", host, port)
}

func clientOptions(cfg *settings.MongoDB) *options.ClientOptions {
	timeout := time.Duration(cfg.Timeout) * time.Second

	opts := options.Client().
		ApplyURI(URI(cfg)).
		SetMaxPoolSize(cfg.MaxPoolSize).
		SetMinPoolSize(cfg.MinPoolSize).
		SetMaxConnIdleTime(time.Duration(cfg.MaxConnIdleTime) * time.Second).
		SetConnectTimeout(timeout).
		SetServerSelectionTimeout(timeout)

	if cfg.Username != "" {
		opts.SetAuth(options.Credential{
			Username: cfg.Username,
			Password: cfg.Password,
		})
	}
	return opts
}

// setDefaultConfig sets default values for MongoDB configuration
func setDefaultConfig(cfg *settings.MongoDB) {
	if cfg.Timeout == 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxPoolSize == 0 {
		cfg.MaxPoolSize = defaultMaxPoolSize
	}
	if cfg.MinPoolSize > cfg.MaxPoolSize {
		cfg.MinPoolSize = cfg.MaxPoolSize
	}
	if cfg.MaxConnIdleTime == 0 {
		cfg.MaxConnIdleTime = defaultMaxConnIdleTime
	}
}
