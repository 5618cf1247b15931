package mongodb

import (
	"errors"

	"go.mongodb.org/mongo-driver/x/mongo/driver/topology"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-nosql/pkg/database/retry"
	"github.com/huynhanx03/go-nosql/pkg/metrics"
	"github.com/huynhanx03/go-nosql/pkg/settings"
)

// IsTransient reports whether err is a connection-level failure whose cause
// is an I/O or socket error. Command errors, write errors and the like are
// not transient.
func IsTransient(err error) bool {
	var connErr topology.ConnectionError
	if !errors.As(err, &connErr) {
		return false
	}
	return retry.IsConnectivityError(connErr.Wrapped)
}

// NewRetryPolicy returns the policy shared by every repository and sequence
// operation: bounded attempts, retrying only transient connection faults.
func NewRetryPolicy(cfg settings.Retry, logger *zap.Logger, m *metrics.Database) *retry.Policy {
	return retry.NewFromSettings(cfg,
		retry.WithClassifier(IsTransient),
		retry.WithLogger(logger),
		retry.WithMetrics(m),
	)
}
