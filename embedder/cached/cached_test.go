package cached_test

import (
	"context"
	"testing"

	"github.com/feb-co/mem0-avater/embedder/cached"
	"github.com/feb-co/mem0-avater/embedder/mock"
)

// countingEmbedder tracks how often the inner embedder is hit.
type countingEmbedder struct {
	inner *mock.Embedder
	calls int
}

func (c *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	c.calls++
	return c.inner.Embed(ctx, text)
}

func (c *countingEmbedder) Dimensions() int { return c.inner.Dimensions() }

func TestCachedEmbedder(t *testing.T) {
	ctx := context.Background()
	inner := &countingEmbedder{inner: mock.New()}

	e, err := cached.New(inner, 100)
	if err != nil {
		t.Fatalf("Failed to create cached embedder: %v", err)
	}
	defer e.Close()

	first, err := e.Embed(ctx, "likes tennis")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	if len(first) != inner.Dimensions() {
		t.Fatalf("Vector size = %d, want %d", len(first), inner.Dimensions())
	}
	if inner.calls != 1 {
		t.Fatalf("Expected 1 inner call, got %d", inner.calls)
	}

	// ristretto admits writes asynchronously; a repeat call must still
	// return the same vector whether it hits the cache or not.
	second, err := e.Embed(ctx, "likes tennis")
	if err != nil {
		t.Fatalf("Embed failed: %v", err)
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("Vectors diverged at %d", i)
		}
	}
	if inner.calls > 2 {
		t.Errorf("Inner embedder called %d times for identical text", inner.calls)
	}

	if e.Dimensions() != inner.Dimensions() {
		t.Errorf("Dimensions = %d, want %d", e.Dimensions(), inner.Dimensions())
	}
}
