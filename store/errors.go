package store

import "errors"

// ErrDuplicateID is returned by Create when a record with the same id
// already exists in the collection.
var ErrDuplicateID = errors.New("record id already exists")
