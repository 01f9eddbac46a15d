// Package qdrant implements store.VectorStore against a Qdrant server
// over its HTTP API.
package qdrant

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/feb-co/mem0-avater/core"
	"github.com/feb-co/mem0-avater/store"
)

// Config configures the Qdrant store.
type Config struct {
	// URL is the Qdrant HTTP endpoint, e.g. "http://localhost:6333".
	URL string

	// APIKey is sent as the api-key header when set.
	APIKey string

	// Collection is the collection name. Defaults to "memories".
	Collection string

	// VectorSize is the embedding dimension. Required.
	VectorSize int

	// Distance is the similarity metric. Defaults to "Cosine".
	Distance string

	// Timeout bounds each HTTP request. Defaults to 30s.
	Timeout time.Duration
}

// Store talks to one Qdrant collection.
type Store struct {
	cfg    Config
	client *http.Client
}

// New creates a Qdrant store and ensures the collection exists.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("URL is required")
	}
	if cfg.VectorSize <= 0 {
		return nil, fmt.Errorf("VectorSize is required")
	}
	if cfg.Collection == "" {
		cfg.Collection = "memories"
	}
	if cfg.Distance == "" {
		cfg.Distance = "Cosine"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}

	s := &Store{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.Timeout},
	}
	if err := s.ensureCollection(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) ensureCollection(ctx context.Context) error {
	// Existence probe; a 404 means we need to create it.
	if _, err := s.do(ctx, http.MethodGet, "/collections/"+s.cfg.Collection, nil); err == nil {
		return nil
	}

	body := map[string]interface{}{
		"vectors": map[string]interface{}{
			"size":     s.cfg.VectorSize,
			"distance": s.cfg.Distance,
		},
	}
	if _, err := s.do(ctx, http.MethodPut, "/collections/"+s.cfg.Collection, body); err != nil {
		return fmt.Errorf("create collection: %w", err)
	}
	log.Printf("[QDRANT] Created collection %s (dim=%d)", s.cfg.Collection, s.cfg.VectorSize)
	return nil
}

func (s *Store) do(ctx context.Context, method, path string, body interface{}) ([]byte, error) {
	var reqBody io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		reqBody = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.cfg.URL+path, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if s.cfg.APIKey != "" {
		req.Header.Set("api-key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("qdrant %s %s: status %d: %s", method, path, resp.StatusCode, respBody)
	}
	return respBody, nil
}

// qdrantFilter converts owner-scope filters to a Qdrant must clause.
func qdrantFilter(filters core.Filters) map[string]interface{} {
	if len(filters) == 0 {
		return nil
	}
	must := make([]map[string]interface{}, 0, len(filters))
	for k, v := range filters {
		must = append(must, map[string]interface{}{
			"key":   k,
			"match": map[string]interface{}{"value": v},
		})
	}
	return map[string]interface{}{"must": must}
}

type point struct {
	ID      string                 `json:"id"`
	Vector  []float32              `json:"vector,omitempty"`
	Payload map[string]interface{} `json:"payload,omitempty"`
}

// Insert stores vectors with ids and payloads.
func (s *Store) Insert(ctx context.Context, vectors [][]float32, ids []string, payloads []map[string]interface{}) error {
	if len(vectors) != len(ids) || len(ids) != len(payloads) {
		return fmt.Errorf("insert: mismatched lengths (%d vectors, %d ids, %d payloads)", len(vectors), len(ids), len(payloads))
	}

	points := make([]point, len(ids))
	for i, id := range ids {
		points[i] = point{ID: id, Vector: vectors[i], Payload: payloads[i]}
	}
	body := map[string]interface{}{"points": points}
	if _, err := s.do(ctx, http.MethodPut, "/collections/"+s.cfg.Collection+"/points?wait=true", body); err != nil {
		return fmt.Errorf("upsert points: %w", err)
	}
	return nil
}

// Update replaces the vector and payload for an existing id.
func (s *Store) Update(ctx context.Context, id string, vector []float32, payload map[string]interface{}) error {
	return s.Insert(ctx, [][]float32{vector}, []string{id}, []map[string]interface{}{payload})
}

// Delete removes a record permanently.
func (s *Store) Delete(ctx context.Context, id string) error {
	body := map[string]interface{}{"points": []string{id}}
	if _, err := s.do(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points/delete?wait=true", body); err != nil {
		return fmt.Errorf("delete point: %w", err)
	}
	return nil
}

// Get retrieves a record by id.
func (s *Store) Get(ctx context.Context, id string) (*store.Record, error) {
	body := map[string]interface{}{
		"ids":          []string{id},
		"with_payload": true,
	}
	respBody, err := s.do(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points", body)
	if err != nil {
		return nil, fmt.Errorf("get point: %w", err)
	}

	var response struct {
		Result []point `json:"result"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if len(response.Result) == 0 {
		return nil, store.ErrNotFound
	}
	return &store.Record{ID: response.Result[0].ID, Payload: response.Result[0].Payload}, nil
}

// Search returns up to limit records ranked by similarity, restricted
// to the filter partition.
func (s *Store) Search(ctx context.Context, vector []float32, limit int, filters core.Filters) ([]store.Record, error) {
	body := map[string]interface{}{
		"vector":       vector,
		"limit":        limit,
		"with_payload": true,
	}
	if f := qdrantFilter(filters); f != nil {
		body["filter"] = f
	}

	respBody, err := s.do(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points/search", body)
	if err != nil {
		return nil, fmt.Errorf("search: %w", err)
	}

	var response struct {
		Result []struct {
			ID      string                 `json:"id"`
			Score   float32                `json:"score"`
			Payload map[string]interface{} `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	records := make([]store.Record, len(response.Result))
	for i, r := range response.Result {
		records[i] = store.Record{ID: r.ID, Score: r.Score, Payload: r.Payload}
	}
	return records, nil
}

// List returns up to limit records matching the filters via scroll.
// A non-positive limit lists the whole partition.
func (s *Store) List(ctx context.Context, filters core.Filters, limit int) ([]store.Record, error) {
	if limit <= 0 {
		limit = 10000
	}
	body := map[string]interface{}{
		"limit":        limit,
		"with_payload": true,
	}
	if f := qdrantFilter(filters); f != nil {
		body["filter"] = f
	}

	respBody, err := s.do(ctx, http.MethodPost, "/collections/"+s.cfg.Collection+"/points/scroll", body)
	if err != nil {
		return nil, fmt.Errorf("scroll: %w", err)
	}

	var response struct {
		Result struct {
			Points []point `json:"points"`
		} `json:"result"`
	}
	if err := json.Unmarshal(respBody, &response); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}

	records := make([]store.Record, len(response.Result.Points))
	for i, p := range response.Result.Points {
		records[i] = store.Record{ID: p.ID, Payload: p.Payload}
	}
	return records, nil
}

// DeleteCollection drops and recreates the collection.
func (s *Store) DeleteCollection(ctx context.Context) error {
	if _, err := s.do(ctx, http.MethodDelete, "/collections/"+s.cfg.Collection, nil); err != nil {
		return fmt.Errorf("delete collection: %w", err)
	}
	return s.ensureCollection(ctx)
}
