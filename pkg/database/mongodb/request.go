package mongodb

import (
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/huynhanx03/go-nosql/pkg/dto"
)

// Order selects the sort key and direction of a read. The zero value sorts
// ascending by the primary key.
type Order struct {
	Field      string
	Descending bool
}

// Asc sorts ascending by field.
func Asc(field string) Order {
	return Order{Field: field}
}

// Desc sorts descending by field.
func Desc(field string) Order {
	return Order{Field: field, Descending: true}
}

// Reverse returns the order with its direction inverted.
func (o Order) Reverse() Order {
	o.Descending = !o.Descending
	return o
}

func (o Order) sort(keyField string) bson.D {
	field := o.Field
	if field == "" {
		field = keyField
	}
	direction := 1
	if o.Descending {
		direction = -1
	}
	return bson.D{{Key: field, Value: direction}}
}

// pageOptions builds offset paging: skip pageIndex*size, limit size. A
// non-positive size reads without a limit.
func pageOptions(order Order, keyField string, pageIndex, size int64) *options.FindOptions {
	opts := options.Find().SetSort(order.sort(keyField))
	if size > 0 {
		if pageIndex < 0 {
			pageIndex = 0
		}
		opts.SetSkip(pageIndex * size).SetLimit(size)
	}
	return opts
}

// ApplyQueryOptions builds MongoDB filter and options from QueryOptions.
// It fills in the defaults of opts.Pagination in place.
func ApplyQueryOptions(opts *dto.QueryOptions, keyField string) (bson.D, *options.FindOptions) {
	if opts == nil {
		opts = &dto.QueryOptions{}
	}
	if opts.Pagination == nil {
		opts.Pagination = &dto.PaginationOptions{}
	}
	opts.Pagination.SetDefaults()

	filter := BuildFilter(opts.Filters)
	sort := BuildSort(opts.Sort, keyField)

	limit := int64(opts.Pagination.PageSize)
	findOptions := options.Find().SetLimit(limit).SetSort(sort)

	if opts.Pagination.Cursor == nil || opts.Pagination.Cursor == "" {
		skip := int64((opts.Pagination.Page - 1) * opts.Pagination.PageSize)
		findOptions.SetSkip(skip)
		return filter, findOptions
	}

	// Keyset pagination continues after the cursor in the key's sort direction.
	var cursorVal any = opts.Pagination.Cursor
	if str, ok := cursorVal.(string); ok {
		if oid, err := primitive.ObjectIDFromHex(str); err == nil {
			cursorVal = oid
		}
	}

	operator := "$gt"
	for _, s := range sort {
		if s.Key == keyField {
			if s.Value == -1 {
				operator = "$lt"
			}
			break
		}
	}

	cursorFilter := bson.E{Key: keyField, Value: bson.D{{Key: operator, Value: cursorVal}}}
	if hasKey(filter, keyField) {
		filter = bson.D{{Key: "$and", Value: bson.A{filter, bson.D{cursorFilter}}}}
	} else {
		filter = append(filter, cursorFilter)
	}

	return filter, findOptions
}

// BuildFilter creates MongoDB filter from SearchFilter slice
func BuildFilter(filters []dto.SearchFilter) bson.D {
	filter := bson.D{}

	for i := range filters {
		f := &filters[i]
		if f.Key == "" || f.Value == nil {
			continue
		}

		switch f.Type {
		case dto.FilterSearch:
			// Case-insensitive text search
			if str, ok := f.Value.(string); ok && str != "" {
				filter = append(filter, bson.E{Key: f.Key, Value: primitive.Regex{Pattern: str, Options: "i"}})
			}
		case dto.FilterIn:
			if str, ok := f.Value.(string); ok {
				// Hex strings are matched as ObjectIDs
				if objectID, err := primitive.ObjectIDFromHex(str); err == nil {
					filter = append(filter, bson.E{Key: f.Key, Value: bson.D{{Key: "$in", Value: bson.A{objectID}}}})
					continue
				}
			}
			filter = append(filter, bson.E{Key: f.Key, Value: bson.D{{Key: "$in", Value: asArray(f.Value)}}})
		default:
			filter = append(filter, bson.E{Key: f.Key, Value: f.Value})
		}
	}

	return filter
}

// BuildSort creates MongoDB sort from SortOption slice, defaulting to the
// primary key ascending.
func BuildSort(sorts []dto.SortOption, keyField string) bson.D {
	sort := bson.D{}

	for i := range sorts {
		s := &sorts[i]
		if s.Key == "" {
			continue
		}

		order := s.Order
		if order != 1 && order != -1 {
			order = 1
		}
		sort = append(sort, bson.E{Key: s.Key, Value: order})
	}

	if len(sort) == 0 {
		sort = append(sort, bson.E{Key: keyField, Value: 1})
	}

	return sort
}

func hasKey(doc bson.D, key string) bool {
	for _, e := range doc {
		if e.Key == key {
			return true
		}
	}
	return false
}

func asArray(v any) any {
	switch v.(type) {
	case bson.A, []any, []string, []int, []int32, []int64, []float64, []primitive.ObjectID:
		return v
	default:
		return bson.A{v}
	}
}
