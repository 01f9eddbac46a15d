// Package embedder defines the text-to-vector contract used by the
// similarity retriever and the memory store writer.
//
// Implementations:
//   - embedder/mock: deterministic hash-based vectors for tests
//   - embedder/onnx: local all-MiniLM-L6-v2 via ONNX Runtime (build tag "onnx")
//   - embedder/cached: ristretto-backed decorator for any Embedder
package embedder

import "context"

// Embedder converts text to a fixed-length vector.
type Embedder interface {
	// Embed converts a single text to an embedding vector.
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the embedding vector size.
	Dimensions() int
}
