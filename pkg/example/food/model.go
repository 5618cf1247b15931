package food

import "github.com/huynhanx03/go-nosql/pkg/database/mongodb"

const (
	Collection   = "foods"
	SequenceName = "foods"
)

// Food is a catalogue entry. ID is a dense key drawn from the foods
// sequence; FoodID is the external identifier.
type Food struct {
	ID     int64  `bson:"_id" json:"id"`
	FoodID int64  `bson:"foodId" json:"food_id"`
	Name   string `bson:"name" json:"name"`
}

// SearchRequest selects foods by external identifier. An empty request
// selects every food.
type SearchRequest struct {
	FoodIDs []int64 `json:"food_ids"`
}

// Mapping binds Food to its collection.
func Mapping() mongodb.Mapping[Food, int64] {
	return mongodb.Mapping[Food, int64]{
		Collection: Collection,
		KeyField:   "_id",
		Key:        func(f *Food) int64 { return f.ID },
	}
}
