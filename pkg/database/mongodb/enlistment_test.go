package mongodb

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-nosql/pkg/metrics"
	"github.com/huynhanx03/go-nosql/pkg/transaction"
)

type fakeSession struct {
	mu       sync.Mutex
	starts   int
	commits  int
	aborts   int
	startErr error
}

func (f *fakeSession) StartTransaction(...*options.TransactionOptions) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.startErr != nil {
		return f.startErr
	}
	f.starts++
	return nil
}

func (f *fakeSession) CommitTransaction(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.commits++
	return nil
}

func (f *fakeSession) AbortTransaction(context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.aborts++
	return nil
}

type boundKey struct{}

func isBound(ctx context.Context) bool {
	_, ok := ctx.Value(boundKey{}).(bool)
	return ok
}

func newTestBridge(session *fakeSession, replicaSet bool, m *metrics.Database) *enlistmentBridge {
	bind := func(ctx context.Context) context.Context {
		return context.WithValue(ctx, boundKey{}, true)
	}
	return newEnlistmentBridge(session, bind, replicaSet, nil, zap.NewNop(), m)
}

// ==========================================
// Activation
// ==========================================

func TestBridge_NoAmbientTransaction(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, true, nil)

	ctx := b.begin(context.Background())

	assert.False(t, isBound(ctx))
	assert.Zero(t, session.starts)
	assert.False(t, b.inTransaction())
}

func TestBridge_NotReplicaSet(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, false, nil)
	tx := transaction.New()

	ctx := b.begin(transaction.NewContext(context.Background(), tx))

	assert.False(t, isBound(ctx))
	assert.Zero(t, session.starts)
	assert.Zero(t, tx.Enlistments())
}

func TestBridge_StartFailureDoesNotBlockWrite(t *testing.T) {
	session := &fakeSession{startErr: errors.New("transactions not supported")}
	b := newTestBridge(session, true, nil)
	tx := transaction.New()

	ctx := b.begin(transaction.NewContext(context.Background(), tx))

	assert.False(t, isBound(ctx))
	assert.Zero(t, tx.Enlistments())
	assert.False(t, b.inTransaction())
}

// ==========================================
// Enlistment
// ==========================================

func TestBridge_EnlistsOncePerScope(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := metrics.NewDatabase(reg)
	session := &fakeSession{}
	b := newTestBridge(session, true, m)

	tx := transaction.New()
	ctx := transaction.NewContext(context.Background(), tx)

	for i := 0; i < 5; i++ {
		assert.True(t, isBound(b.begin(ctx)))
	}

	assert.Equal(t, 1, session.starts)
	assert.Equal(t, 1, tx.Enlistments())
	assert.True(t, b.inTransaction())

	expected := `
# HELP nosql_enlistments_total Total number of session transactions enlisted in an ambient transaction
# TYPE nosql_enlistments_total counter
nosql_enlistments_total 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "nosql_enlistments_total"))
}

func TestBridge_CommitFollowsAmbientOutcome(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, true, nil)

	tx := transaction.New()
	b.begin(transaction.NewContext(context.Background(), tx))

	require.NoError(t, tx.Commit(context.Background()))

	assert.Equal(t, 1, session.commits)
	assert.Zero(t, session.aborts)
	assert.False(t, b.inTransaction())
}

func TestBridge_RollbackFollowsAmbientOutcome(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, true, nil)

	tx := transaction.New()
	b.begin(transaction.NewContext(context.Background(), tx))

	require.NoError(t, tx.Rollback(context.Background()))

	assert.Zero(t, session.commits)
	assert.Equal(t, 1, session.aborts)
	assert.False(t, b.inTransaction())
}

func TestBridge_InDoubtLeavesSessionOpen(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, true, nil)

	tx := transaction.New()
	b.begin(transaction.NewContext(context.Background(), tx))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := tx.Commit(ctx)

	assert.ErrorIs(t, err, transaction.ErrInDoubt)
	assert.Zero(t, session.commits)
	assert.True(t, b.inTransaction())

	require.NoError(t, b.close(context.Background()))
	assert.Equal(t, 1, session.aborts)
}

func TestBridge_NewScopeEnlistsAgain(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, true, nil)

	first := transaction.New()
	b.begin(transaction.NewContext(context.Background(), first))
	require.NoError(t, first.Commit(context.Background()))

	second := transaction.New()
	ctx := transaction.NewContext(context.Background(), second)
	b.begin(ctx)
	b.begin(ctx)

	assert.Equal(t, 2, session.starts)
	assert.Equal(t, 1, second.Enlistments())

	require.NoError(t, second.Rollback(context.Background()))
	assert.Equal(t, 1, session.commits)
	assert.Equal(t, 1, session.aborts)
}

func TestBridge_ConcurrentBeginEnlistsOnce(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, true, nil)

	tx := transaction.New()
	ctx := transaction.NewContext(context.Background(), tx)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			b.begin(ctx)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, session.starts)
	assert.Equal(t, 1, tx.Enlistments())
}

// ==========================================
// Reads
// ==========================================

func TestBridge_ReadContext(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, true, nil)

	tx := transaction.New()
	ctx := transaction.NewContext(context.Background(), tx)

	assert.False(t, isBound(b.readContext(ctx)), "no session transaction before the first write")

	b.begin(ctx)
	assert.True(t, isBound(b.readContext(ctx)))

	other := transaction.NewContext(context.Background(), transaction.New())
	assert.False(t, isBound(b.readContext(other)))
	assert.False(t, isBound(b.readContext(context.Background())))
	assert.Equal(t, 1, session.starts, "reads never start a transaction")
}

// ==========================================
// Close
// ==========================================

func TestBridge_CloseAbortsUncommitted(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, true, nil)

	tx := transaction.New()
	b.begin(transaction.NewContext(context.Background(), tx))

	require.NoError(t, b.close(context.Background()))
	assert.Equal(t, 1, session.aborts)

	// The ambient outcome arrives after the session was released.
	require.NoError(t, tx.Commit(context.Background()))
	assert.Zero(t, session.commits)
}

func TestBridge_CloseWithoutTransaction(t *testing.T) {
	session := &fakeSession{}
	b := newTestBridge(session, true, nil)

	require.NoError(t, b.close(context.Background()))
	assert.Zero(t, session.aborts)
}
