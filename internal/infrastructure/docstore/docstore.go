// Package docstore is the record-store port: a remote document database
// reduced to generic collection/document operations. Everything above it
// (customers, loans, monthly reports) speaks this interface only.
package docstore

import (
	"context"
	"time"
)

type Operator string

const (
	OpEqual          Operator = "=="
	OpGreater        Operator = ">"
	OpGreaterOrEqual Operator = ">="
	OpLess           Operator = "<"
	OpLessOrEqual    Operator = "<="
)

func (op Operator) IsRange() bool {
	return op != OpEqual
}

type Filter struct {
	Field string
	Op    Operator
	Value any
}

type Order struct {
	Field      string
	Descending bool
}

// Document is a stored record: an opaque id and a JSON-shaped body.
// Numbers decode as float64, exactly as encoding/json delivers them.
type Document struct {
	ID   string
	Data map[string]any
}

func (d Document) GetString(field string) string {
	if v, ok := d.Data[field].(string); ok {
		return v
	}
	return ""
}

func (d Document) GetFloat(field string) float64 {
	switch v := d.Data[field].(type) {
	case float64:
		return v
	case int:
		return float64(v)
	case int64:
		return float64(v)
	}
	return 0
}

func (d Document) GetTime(field string) time.Time {
	if v, ok := d.Data[field].(string); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Batch queues update and delete operations that commit atomically:
// either every queued operation applies or none does.
type Batch interface {
	Update(collection, id string, fields map[string]any)
	Delete(collection, id string)
	Commit(ctx context.Context) error
}

// Store is the document collection abstraction. Query applies every filter
// (AND semantics) and then the requested ordering; implementations backed
// by stores without composite indexes return
// apperrors.ErrMissingIndex for range+order combinations they cannot
// serve, and callers fall back to an unfiltered fetch.
type Store interface {
	Add(ctx context.Context, collection string, data map[string]any) (string, error)
	Get(ctx context.Context, collection, id string) (Document, error)
	// Set writes a full document under a caller-chosen id, creating or
	// replacing it (upsert).
	Set(ctx context.Context, collection, id string, data map[string]any) error
	Update(ctx context.Context, collection, id string, fields map[string]any) error
	Delete(ctx context.Context, collection, id string) error
	Query(ctx context.Context, collection string, filters []Filter, orders ...Order) ([]Document, error)
	Batch() Batch
}
