package mongodb

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	goretry "github.com/sethvargo/go-retry"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/huynhanx03/go-nosql/pkg/database/retry"
	"github.com/huynhanx03/go-nosql/pkg/metrics"
)

func TestRepository_EnsureIndexUsesRetryPolicy(t *testing.T) {
	ctx := context.Background()

	client, err := mongo.Connect(ctx, options.Client().
		ApplyURI("mongodb://127.0.0.1:1").
		SetServerSelectionTimeout(50*time.Millisecond))
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = client.Disconnect(context.Background())
	})

	reg := prometheus.NewRegistry()
	m := metrics.NewDatabase(reg)
	repo := &Repository[testEntity, int64]{
		collection: client.Database("unreachable").Collection("entities"),
		policy: retry.New(
			retry.WithBackoff(func() goretry.Backoff { return goretry.NewConstant(time.Millisecond) }),
			retry.WithClassifier(func(error) bool { return true }),
			retry.WithMetrics(m),
		),
	}

	_, err = repo.EnsureIndex(ctx, mongo.IndexModel{Keys: bson.D{{Key: "name", Value: 1}}})
	require.Error(t, err)

	expected := `
# HELP nosql_retry_attempts_total Total number of store operations re-executed after a transient fault
# TYPE nosql_retry_attempts_total counter
nosql_retry_attempts_total{operation="create_index"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "nosql_retry_attempts_total"))
}
