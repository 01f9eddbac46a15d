// Package store defines the vector storage contract for memories.
//
// Implementations:
//   - store/chromem: embedded, in-process (local development and tests)
//   - store/qdrant: Qdrant over HTTP (production)
package store

import (
	"context"
	"errors"

	"github.com/feb-co/mem0-avater/core"
)

// ErrNotFound is returned by Get when no record has the given id.
var ErrNotFound = errors.New("memory not found")

// Record is one stored vector with its payload. Score is only set on
// results returned from Search.
type Record struct {
	ID      string
	Score   float32
	Payload map[string]interface{}
}

// Data returns the fact text stored under the reserved "data" key.
func (r *Record) Data() string {
	if r == nil {
		return ""
	}
	s, _ := r.Payload["data"].(string)
	return s
}

// VectorStore is the nearest-neighbor storage backend.
// All search and list operations are restricted by owner-scope filters;
// implementations must never return records from another partition.
type VectorStore interface {
	// Insert stores vectors with ids and payloads.
	Insert(ctx context.Context, vectors [][]float32, ids []string, payloads []map[string]interface{}) error

	// Update replaces the vector and payload for an existing id.
	Update(ctx context.Context, id string, vector []float32, payload map[string]interface{}) error

	// Delete removes a record permanently.
	Delete(ctx context.Context, id string) error

	// Get retrieves a record by id; ErrNotFound when absent.
	Get(ctx context.Context, id string) (*Record, error)

	// Search returns up to limit records ranked by similarity,
	// restricted to the filter partition.
	Search(ctx context.Context, vector []float32, limit int, filters core.Filters) ([]Record, error)

	// List returns up to limit records matching the filters.
	List(ctx context.Context, filters core.Filters, limit int) ([]Record, error)

	// DeleteCollection drops the whole store. Used only by Reset.
	DeleteCollection(ctx context.Context) error
}
