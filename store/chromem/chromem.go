// Package chromem implements store.VectorStore on chromem-go, a pure
// Go embedded vector database. Suitable for local development and
// tests; everything lives in process memory.
package chromem

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	chromem "github.com/philippgille/chromem-go"

	"github.com/feb-co/mem0-avater/core"
	"github.com/feb-co/mem0-avater/store"
)

const collectionName = "memories"

// Store keeps one chromem collection for similarity search plus a
// payload index for id lookups and filtered listing, which chromem
// does not expose directly.
type Store struct {
	db  *chromem.DB
	col *chromem.Collection

	mu       sync.RWMutex
	payloads map[string]map[string]interface{}
	vectors  map[string][]float32
}

// New creates an empty chromem-backed store.
func New() (*Store, error) {
	db := chromem.NewDB()
	col, err := db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("create collection: %w", err)
	}
	return &Store{
		db:       db,
		col:      col,
		payloads: make(map[string]map[string]interface{}),
		vectors:  make(map[string][]float32),
	}, nil
}

// Insert stores vectors with ids and payloads.
func (s *Store) Insert(ctx context.Context, vectors [][]float32, ids []string, payloads []map[string]interface{}) error {
	if len(vectors) != len(ids) || len(ids) != len(payloads) {
		return fmt.Errorf("insert: mismatched lengths (%d vectors, %d ids, %d payloads)", len(vectors), len(ids), len(payloads))
	}

	for i, id := range ids {
		doc := chromem.Document{
			ID:        id,
			Content:   dataOf(payloads[i]),
			Embedding: vectors[i],
			Metadata:  scopeMetadata(payloads[i]),
		}
		if err := s.col.AddDocument(ctx, doc); err != nil {
			return fmt.Errorf("add document: %w", err)
		}

		s.mu.Lock()
		s.payloads[id] = clonePayload(payloads[i])
		s.vectors[id] = vectors[i]
		s.mu.Unlock()
	}
	return nil
}

// Update replaces the vector and payload for an existing id.
func (s *Store) Update(ctx context.Context, id string, vector []float32, payload map[string]interface{}) error {
	s.mu.RLock()
	_, exists := s.payloads[id]
	s.mu.RUnlock()
	if !exists {
		return store.ErrNotFound
	}

	// chromem has no in-place update; delete and re-add.
	if err := s.col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	doc := chromem.Document{
		ID:        id,
		Content:   dataOf(payload),
		Embedding: vector,
		Metadata:  scopeMetadata(payload),
	}
	if err := s.col.AddDocument(ctx, doc); err != nil {
		return fmt.Errorf("re-add document: %w", err)
	}

	s.mu.Lock()
	s.payloads[id] = clonePayload(payload)
	s.vectors[id] = vector
	s.mu.Unlock()
	return nil
}

// Delete removes a record permanently. The collection is cleared
// before the index so a failed collection delete leaves both sides
// still agreeing on the record; the caller can retry.
func (s *Store) Delete(ctx context.Context, id string) error {
	s.mu.RLock()
	_, exists := s.payloads[id]
	s.mu.RUnlock()
	if !exists {
		return store.ErrNotFound
	}

	if err := s.col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	s.mu.Lock()
	delete(s.payloads, id)
	delete(s.vectors, id)
	s.mu.Unlock()
	return nil
}

// Get retrieves a record by id.
func (s *Store) Get(ctx context.Context, id string) (*store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	payload, ok := s.payloads[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &store.Record{ID: id, Payload: clonePayload(payload)}, nil
}

// Search returns up to limit records ranked by similarity, restricted
// to the filter partition.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, filters core.Filters) ([]store.Record, error) {
	where := make(map[string]string, len(filters))
	for k, v := range filters {
		where[k] = v
	}

	// chromem rejects nResults larger than the candidate set, so back
	// off until the query succeeds or the set is provably empty.
	var results []chromem.Result
	for n := limit; n >= 1; n-- {
		var err error
		results, err = s.col.QueryEmbedding(ctx, vector, n, where, nil)
		if err == nil {
			break
		}
		if isInsufficientDocsError(err) {
			if n == 1 {
				return nil, nil
			}
			continue
		}
		return nil, fmt.Errorf("chromem query: %w", err)
	}

	records := make([]store.Record, 0, len(results))
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, res := range results {
		payload, ok := s.payloads[res.ID]
		if !ok {
			log.Printf("[CHROMEM] Skipping stale result %s", res.ID)
			continue
		}
		records = append(records, store.Record{
			ID:      res.ID,
			Score:   res.Similarity,
			Payload: clonePayload(payload),
		})
	}
	return records, nil
}

// List returns up to limit records matching the filters, using the
// payload index rather than a similarity query.
func (s *Store) List(ctx context.Context, filters core.Filters, limit int) ([]store.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []store.Record
	for id, payload := range s.payloads {
		if !filters.Matches(payload) {
			continue
		}
		records = append(records, store.Record{ID: id, Payload: clonePayload(payload)})
		if limit > 0 && len(records) >= limit {
			break
		}
	}
	return records, nil
}

// DeleteCollection drops the whole store.
func (s *Store) DeleteCollection(ctx context.Context) error {
	if err := s.db.DeleteCollection(collectionName); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	col, err := s.db.CreateCollection(collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("recreate collection: %w", err)
	}

	s.mu.Lock()
	s.col = col
	s.payloads = make(map[string]map[string]interface{})
	s.vectors = make(map[string][]float32)
	s.mu.Unlock()
	return nil
}

// dataOf extracts the fact text for chromem's document content.
func dataOf(payload map[string]interface{}) string {
	s, _ := payload["data"].(string)
	return s
}

// scopeMetadata flattens string payload values into chromem metadata
// so owner filters work as where clauses.
func scopeMetadata(payload map[string]interface{}) map[string]string {
	meta := make(map[string]string)
	for k, v := range payload {
		if s, ok := v.(string); ok {
			meta[k] = s
		}
	}
	return meta
}

func clonePayload(payload map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(payload))
	for k, v := range payload {
		out[k] = v
	}
	return out
}

// isInsufficientDocsError checks if the query failed because nResults
// exceeded the collection size.
func isInsufficientDocsError(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "nResults must be") || strings.Contains(msg, "number of documents")
}
