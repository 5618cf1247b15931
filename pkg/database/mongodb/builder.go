package mongodb

import (
	"sort"

	"go.mongodb.org/mongo-driver/bson"
)

// FilterBuilder composes query filters.
type FilterBuilder struct{}

// Empty matches every document.
func (FilterBuilder) Empty() bson.D {
	return bson.D{}
}

// Eq matches documents whose field equals value.
func (FilterBuilder) Eq(field string, value any) bson.D {
	return bson.D{{Key: field, Value: value}}
}

// In matches documents whose field is one of values.
func (FilterBuilder) In(field string, values any) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: "$in", Value: values}}}}
}

// Gt matches documents whose field is greater than value.
func (FilterBuilder) Gt(field string, value any) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: "$gt", Value: value}}}}
}

// Lt matches documents whose field is less than value.
func (FilterBuilder) Lt(field string, value any) bson.D {
	return bson.D{{Key: field, Value: bson.D{{Key: "$lt", Value: value}}}}
}

// And matches documents satisfying every filter.
func (FilterBuilder) And(filters ...any) bson.D {
	return bson.D{{Key: "$and", Value: filters}}
}

// Or matches documents satisfying any filter.
func (FilterBuilder) Or(filters ...any) bson.D {
	return bson.D{{Key: "$or", Value: filters}}
}

// UpdateBuilder composes update definitions.
type UpdateBuilder struct{}

// Set assigns value to field.
func (UpdateBuilder) Set(field string, value any) bson.D {
	return bson.D{{Key: "$set", Value: bson.D{{Key: field, Value: value}}}}
}

// Inc increments field by delta.
func (UpdateBuilder) Inc(field string, delta any) bson.D {
	return bson.D{{Key: "$inc", Value: bson.D{{Key: field, Value: delta}}}}
}

// SetOnInsert assigns value to field only when an upsert inserts.
func (UpdateBuilder) SetOnInsert(field string, value any) bson.D {
	return bson.D{{Key: "$setOnInsert", Value: bson.D{{Key: field, Value: value}}}}
}

// Unset removes field.
func (UpdateBuilder) Unset(field string) bson.D {
	return bson.D{{Key: "$unset", Value: bson.D{{Key: field, Value: ""}}}}
}

// CurrentDate sets field to the server's current date.
func (UpdateBuilder) CurrentDate(field string) bson.D {
	return bson.D{{Key: "$currentDate", Value: bson.D{{Key: field, Value: true}}}}
}

// Combine merges update definitions into one, grouping the fields of
// repeated operators. Operator bodies that are not documents are taken from
// the last definition naming them.
func (UpdateBuilder) Combine(updates ...bson.D) bson.D {
	combined := bson.D{}
	index := make(map[string]int)

	for _, update := range updates {
		for _, op := range update {
			fields, mergeable := toDocument(op.Value)

			i, seen := index[op.Key]
			if !seen {
				index[op.Key] = len(combined)
				if mergeable {
					combined = append(combined, bson.E{Key: op.Key, Value: fields})
				} else {
					combined = append(combined, op)
				}
				continue
			}

			existing, ok := combined[i].Value.(bson.D)
			if !mergeable || !ok {
				combined[i] = op
				continue
			}
			combined[i].Value = append(existing, fields...)
		}
	}

	return combined
}

// ProjectionBuilder composes projections.
type ProjectionBuilder struct{}

// Include projects only fields (plus _id).
func (ProjectionBuilder) Include(fields ...string) bson.D {
	projection := make(bson.D, 0, len(fields))
	for _, f := range fields {
		projection = append(projection, bson.E{Key: f, Value: 1})
	}
	return projection
}

// Exclude projects every field except fields.
func (ProjectionBuilder) Exclude(fields ...string) bson.D {
	projection := make(bson.D, 0, len(fields))
	for _, f := range fields {
		projection = append(projection, bson.E{Key: f, Value: 0})
	}
	return projection
}

// toDocument copies an operator body into an ordered document.
func toDocument(v any) (bson.D, bool) {
	switch doc := v.(type) {
	case bson.D:
		return append(bson.D(nil), doc...), true
	case bson.M:
		return mapToDocument(doc), true
	case map[string]any:
		return mapToDocument(doc), true
	default:
		return nil, false
	}
}

func mapToDocument(m map[string]any) bson.D {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	doc := make(bson.D, 0, len(keys))
	for _, k := range keys {
		doc = append(doc, bson.E{Key: k, Value: m[k]})
	}
	return doc
}
