package store

import (
	"context"
	"errors"
	"time"
)

var (
	ErrNotFound   = errors.New("not found")
	ErrValidation = errors.New("invalid input")
)

const (
	CollectionCustomer    = "Customer"
	CollectionDailyRecord = "DailyRecord"
)

// Fields is the schemaless payload of a document. Values are restricted to
// what survives a JSON round-trip: strings, float64, int and bool.
type Fields map[string]any

// Document is one stored object. ID and CreatedAt are assigned by the store
// on insert and never appear inside Fields.
type Document struct {
	ID        string
	CreatedAt time.Time
	Fields    Fields
}

// Query selects documents within a collection. Equal filters match field
// values exactly; Less filters match fields strictly below the given value
// (lexicographic for strings, numeric for numbers). OrderBy names a field,
// or the pseudo-field "createdAt" for insertion time.
type Query struct {
	Equal      map[string]any
	Less       map[string]any
	OrderBy    string
	Descending bool
}

// Store is the document persistence collaborator. Implementations return
// ErrNotFound for missing ids; any other error is a storage failure.
type Store interface {
	Insert(ctx context.Context, collection string, fields Fields) (*Document, error)
	Get(ctx context.Context, collection string, id string) (*Document, error)
	Query(ctx context.Context, collection string, q Query) ([]Document, error)
	Update(ctx context.Context, collection string, id string, fields Fields) (*Document, error)
	Delete(ctx context.Context, collection string, id string) error
}

// Clone returns a deep copy so callers can mutate results freely.
func (d Document) Clone() Document {
	dup := d
	dup.Fields = make(Fields, len(d.Fields))
	for k, v := range d.Fields {
		dup.Fields[k] = v
	}
	return dup
}

// String reads a string field, defaulting to "" for missing or non-string
// values. Optional fields are always materialized as empty strings.
func (f Fields) String(key string) string {
	s, _ := f[key].(string)
	return s
}

// Float reads a numeric field. Stored numbers may come back as float64
// (JSON round-trip) or as the native int they were written with.
func (f Fields) Float(key string) float64 {
	switch v := f[key].(type) {
	case float64:
		return v
	case float32:
		return float64(v)
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func (f Fields) Int(key string) int {
	return int(f.Float(key))
}
