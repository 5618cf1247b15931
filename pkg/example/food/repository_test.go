package food

import (
	"context"
	"errors"
	"testing"

	"github.com/alicebob/miniredis/v2"
	redisV9 "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/huynhanx03/go-nosql/pkg/database/mongodb"
	"github.com/huynhanx03/go-nosql/pkg/database/mongodb/mongotest"
	"github.com/huynhanx03/go-nosql/pkg/database/redis"
	"github.com/huynhanx03/go-nosql/pkg/transaction"
)

type failingSequence struct{ err error }

func (f failingSequence) Next(context.Context, string) (int64, error) {
	return 0, f.err
}

func TestCreate_SequenceFailure(t *testing.T) {
	want := errors.New("sequence unavailable")
	repo := &repository{ids: failingSequence{err: want}, logger: zap.NewNop()}

	_, err := repo.Create(context.Background(), 1, "rice")
	assert.ErrorIs(t, err, want)
}

func TestRepository_Integration(t *testing.T) {
	srv := mongotest.Start(t)
	ctx := context.Background()

	base, err := mongodb.New(ctx, srv.Settings("food"), Mapping())
	require.NoError(t, err)
	t.Cleanup(func() {
		_ = base.Close(context.Background())
	})

	t.Run("MongoSequence", func(t *testing.T) {
		ids := mongodb.NewSequenceGenerator(srv.Client.Database("food"), "")
		repo, err := NewRepository(ctx, base, ids, nil)
		require.NoError(t, err)

		testFoods(t, ctx, repo)
	})

	t.Run("RedisSequence", func(t *testing.T) {
		require.NoError(t, base.DeleteAll(ctx))

		mr := miniredis.RunT(t)
		client := redisV9.NewClient(&redisV9.Options{Addr: mr.Addr()})
		t.Cleanup(func() {
			_ = client.Close()
		})

		repo, err := NewRepository(ctx, base, redis.NewSequenceGenerator(client, "seq:"), nil)
		require.NoError(t, err)

		testFoods(t, ctx, repo)
	})
}

func testFoods(t *testing.T, ctx context.Context, repo Repository) {
	apple, err := repo.Create(ctx, 7, "apple")
	require.NoError(t, err)
	assert.Equal(t, int64(7), apple.FoodID)
	assert.Equal(t, "apple", apple.Name)

	renamed, err := repo.Create(ctx, 7, "green apple")
	require.NoError(t, err)
	assert.Equal(t, apple.ID, renamed.ID, "existing food keeps its key")
	assert.Equal(t, "green apple", renamed.Name)

	pear, err := repo.Create(ctx, 8, "pear")
	require.NoError(t, err)
	assert.Greater(t, pear.ID, renamed.ID)

	fetched, err := repo.Get(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, renamed, fetched)

	_, err = repo.Get(ctx, 404)
	assert.ErrorIs(t, err, mongodb.ErrNotFound)

	require.NoError(t, repo.Insert(ctx, &Food{ID: 100, FoodID: 9, Name: "plum"}))
	assert.Error(t, repo.Insert(ctx, &Food{ID: 101, FoodID: 9, Name: "plum again"}), "foodId is unique")

	require.NoError(t, repo.InsertMany(ctx, []*Food{
		{ID: 100, FoodID: 9, Name: "plum"},
	}), "existing foods are skipped")

	fetched.Name = "granny smith"
	require.NoError(t, repo.Update(ctx, fetched))

	found, err := repo.Search(ctx, &SearchRequest{FoodIDs: []int64{7, 9}})
	require.NoError(t, err)
	require.Len(t, found, 2)

	names := []string{found[0].Name, found[1].Name}
	assert.ElementsMatch(t, []string{"granny smith", "plum"}, names)

	all, err := repo.Search(ctx, nil)
	require.NoError(t, err)
	assert.Len(t, all, 3)

	err = transaction.Run(ctx, func(ctx context.Context) error {
		if err := repo.Insert(ctx, &Food{ID: 200, FoodID: 20, Name: "kiwi"}); err != nil {
			return err
		}
		return errors.New("cancelled order")
	})
	require.Error(t, err)

	_, err = repo.Get(ctx, 20)
	assert.ErrorIs(t, err, mongodb.ErrNotFound, "rolled back insert is discarded")
}
