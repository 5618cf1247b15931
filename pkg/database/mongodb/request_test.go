package mongodb

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/huynhanx03/go-nosql/pkg/dto"
)

func TestOrder(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, Order{}.sort("_id"))
	assert.Equal(t, bson.D{{Key: "name", Value: -1}}, Desc("name").sort("_id"))
	assert.Equal(t, Asc("name"), Desc("name").Reverse())
	assert.Equal(t, bson.D{{Key: "_id", Value: -1}}, Order{}.Reverse().sort("_id"))
}

func TestPageOptions(t *testing.T) {
	opts := pageOptions(Order{}, "_id", 2, 10)
	require.NotNil(t, opts.Skip)
	require.NotNil(t, opts.Limit)
	assert.Equal(t, int64(20), *opts.Skip)
	assert.Equal(t, int64(10), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, opts.Sort)

	unbounded := pageOptions(Desc("value"), "_id", 3, 0)
	assert.Nil(t, unbounded.Skip)
	assert.Nil(t, unbounded.Limit)
	assert.Equal(t, bson.D{{Key: "value", Value: -1}}, unbounded.Sort)

	negative := pageOptions(Order{}, "_id", -1, 5)
	assert.Equal(t, int64(0), *negative.Skip)
}

func TestApplyQueryOptions_Defaults(t *testing.T) {
	filter, opts := ApplyQueryOptions(nil, "_id")

	assert.Equal(t, bson.D{}, filter)
	assert.Equal(t, int64(dto.DefaultPageSize), *opts.Limit)
	assert.Equal(t, int64(0), *opts.Skip)
	assert.Equal(t, bson.D{{Key: "_id", Value: 1}}, opts.Sort)
}

func TestApplyQueryOptions_WritesPaginationDefaults(t *testing.T) {
	q := &dto.QueryOptions{}

	ApplyQueryOptions(q, "_id")

	require.NotNil(t, q.Pagination)
	assert.Equal(t, dto.DefaultPage, q.Pagination.Page)
	assert.Equal(t, dto.DefaultPageSize, q.Pagination.PageSize)
}

func TestApplyQueryOptions_Page(t *testing.T) {
	q := &dto.QueryOptions{
		Filters: []dto.SearchFilter{
			{Key: "name", Value: "rice", Type: dto.FilterSearch},
			{Key: "foodId", Value: 4, Type: dto.FilterExact},
		},
		Sort:       []dto.SortOption{{Key: "name", Order: -1}},
		Pagination: &dto.PaginationOptions{Page: 3, PageSize: 5},
	}

	filter, opts := ApplyQueryOptions(q, "_id")

	assert.Equal(t, bson.D{
		{Key: "name", Value: primitive.Regex{Pattern: "rice", Options: "i"}},
		{Key: "foodId", Value: 4},
	}, filter)
	assert.Equal(t, int64(10), *opts.Skip)
	assert.Equal(t, int64(5), *opts.Limit)
	assert.Equal(t, bson.D{{Key: "name", Value: -1}}, opts.Sort)
}

func TestApplyQueryOptions_Cursor(t *testing.T) {
	oid := primitive.NewObjectID()

	t.Run("ascending", func(t *testing.T) {
		q := &dto.QueryOptions{Pagination: &dto.PaginationOptions{Cursor: oid.Hex()}}
		filter, opts := ApplyQueryOptions(q, "_id")

		assert.Equal(t, bson.D{{Key: "_id", Value: bson.D{{Key: "$gt", Value: oid}}}}, filter)
		assert.Nil(t, opts.Skip)
	})

	t.Run("descending", func(t *testing.T) {
		q := &dto.QueryOptions{
			Sort:       []dto.SortOption{{Key: "foodId", Order: -1}},
			Pagination: &dto.PaginationOptions{Cursor: int64(42)},
		}
		filter, _ := ApplyQueryOptions(q, "foodId")

		assert.Equal(t, bson.D{{Key: "foodId", Value: bson.D{{Key: "$lt", Value: int64(42)}}}}, filter)
	})

	t.Run("key already filtered", func(t *testing.T) {
		q := &dto.QueryOptions{
			Filters:    []dto.SearchFilter{{Key: "_id", Value: []int64{1, 2, 3}, Type: dto.FilterIn}},
			Pagination: &dto.PaginationOptions{Cursor: int64(1)},
		}
		filter, _ := ApplyQueryOptions(q, "_id")

		require.Len(t, filter, 1)
		assert.Equal(t, "$and", filter[0].Key)
	})
}

func TestBuildFilter(t *testing.T) {
	oid := primitive.NewObjectID()

	tests := []struct {
		name    string
		filters []dto.SearchFilter
		want    bson.D
	}{
		{
			name:    "skips incomplete filters",
			filters: []dto.SearchFilter{{Key: "", Value: 1}, {Key: "a", Value: nil}},
			want:    bson.D{},
		},
		{
			name:    "empty search is ignored",
			filters: []dto.SearchFilter{{Key: "name", Value: "", Type: dto.FilterSearch}},
			want:    bson.D{},
		},
		{
			name:    "in with hex string",
			filters: []dto.SearchFilter{{Key: "owner", Value: oid.Hex(), Type: dto.FilterIn}},
			want:    bson.D{{Key: "owner", Value: bson.D{{Key: "$in", Value: bson.A{oid}}}}},
		},
		{
			name:    "in with slice",
			filters: []dto.SearchFilter{{Key: "foodId", Value: []int64{1, 2}, Type: dto.FilterIn}},
			want:    bson.D{{Key: "foodId", Value: bson.D{{Key: "$in", Value: []int64{1, 2}}}}},
		},
		{
			name:    "in with scalar",
			filters: []dto.SearchFilter{{Key: "foodId", Value: 9, Type: dto.FilterIn}},
			want:    bson.D{{Key: "foodId", Value: bson.D{{Key: "$in", Value: bson.A{9}}}}},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, BuildFilter(tt.filters))
		})
	}
}

func TestBuildSort(t *testing.T) {
	assert.Equal(t, bson.D{{Key: "foodId", Value: 1}}, BuildSort(nil, "foodId"))
	assert.Equal(t,
		bson.D{{Key: "name", Value: 1}, {Key: "price", Value: -1}},
		BuildSort([]dto.SortOption{{Key: "name", Order: 0}, {Key: ""}, {Key: "price", Order: -1}}, "_id"),
	)
}
