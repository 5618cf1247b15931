package mongodb

import (
	"github.com/pkg/errors"

	"github.com/huynhanx03/go-nosql/pkg/settings"
)

// Mapping binds an entity type to its collection and primary key.
type Mapping[T any, K any] struct {
	// Collection is the physical collection name.
	Collection string `validate:"required,excludesall=$"`
	// KeyField is the BSON element name of the primary key, usually "_id".
	KeyField string `validate:"required,excludesall=$"`
	// Key reads the primary key of an entity. Optional; required by Save.
	Key func(*T) K `validate:"-"`
}

// Validate reports a configuration error when the mapping is incomplete.
func (m Mapping[T, K]) Validate() error {
	if err := settings.Validator().Struct(m); err != nil {
		return errors.Wrapf(ErrInvalidMapping, "%v", err)
	}
	return nil
}
