// Package graph defines the optional knowledge-graph side of the
// memory layer. The facade fans out to a Store alongside the vector
// path when one is configured; Noop stands in when none is.
package graph

import (
	"context"

	"github.com/feb-co/mem0-avater/core"
)

// Relation is one extracted (source, relationship, target) edge.
type Relation struct {
	Source       string `json:"source"`
	Relationship string `json:"relationship"`
	Target       string `json:"target"`
}

// Store is the knowledge-graph backend contract. All operations are
// scoped by the same owner filters as the vector store.
type Store interface {
	// Add extracts entities and relations from raw text and persists
	// them, returning the edges it touched.
	Add(ctx context.Context, data string, filters core.Filters) ([]Relation, error)

	// Search returns relations relevant to the query.
	Search(ctx context.Context, query string, filters core.Filters, limit int) ([]Relation, error)

	// GetAll lists relations in the owner partition.
	GetAll(ctx context.Context, filters core.Filters, limit int) ([]Relation, error)

	// DeleteAll removes every relation in the owner partition.
	DeleteAll(ctx context.Context, filters core.Filters) error
}

// Noop is a Store that stores nothing and finds nothing.
type Noop struct{}

func (Noop) Add(ctx context.Context, data string, filters core.Filters) ([]Relation, error) {
	return nil, nil
}

func (Noop) Search(ctx context.Context, query string, filters core.Filters, limit int) ([]Relation, error) {
	return nil, nil
}

func (Noop) GetAll(ctx context.Context, filters core.Filters, limit int) ([]Relation, error) {
	return nil, nil
}

func (Noop) DeleteAll(ctx context.Context, filters core.Filters) error {
	return nil
}
