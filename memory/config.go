package memory

import (
	"fmt"

	"github.com/feb-co/mem0-avater/embedder"
	"github.com/feb-co/mem0-avater/llm"
	"github.com/feb-co/mem0-avater/memory/graph"
	"github.com/feb-co/mem0-avater/storage"
	"github.com/feb-co/mem0-avater/store"
	"github.com/feb-co/mem0-avater/telemetry"
)

// API output-shape versions. V10 is the legacy flat shape and is
// deprecated; V11 returns {results, relations}.
const (
	V10 = "v1.0"
	V11 = "v1.1"
)

// DefaultSearchLimit is the neighborhood size used per candidate fact
// during reconciliation.
const DefaultSearchLimit = 5

// Config wires the external collaborators into a Memory. LLM,
// Embedder, Store and History are required; everything else has a
// default.
type Config struct {
	// LLM generates fact extractions and reconciliation decisions.
	LLM llm.Generator

	// Embedder turns text into vectors.
	Embedder embedder.Embedder

	// Store is the vector index.
	Store store.VectorStore

	// History is the relational ledger and profile database.
	History *storage.SQLiteManager

	// APIVersion selects the output shape, V10 (deprecated) or V11.
	// Default: V10.
	APIVersion string

	// UserName is substituted into observation prompts. Default "USER".
	UserName string

	// CustomPrompt overrides the fact-retrieval system prompt.
	CustomPrompt string

	// SearchLimit is the per-candidate neighbor count. Default 5.
	SearchLimit int

	// ObservationMode switches Add's vector path from fact extraction
	// to the observation pipeline plus verbatim session storage.
	ObservationMode bool
}

// Option configures optional facade behavior.
type Option func(*Memory)

// WithGraph enables the knowledge-graph path. Graph results are only
// surfaced in the V11 output shape.
func WithGraph(g graph.Store) Option {
	return func(m *Memory) {
		m.graph = g
		m.enableGraph = g != nil
	}
}

// WithTelemetry sets the event sink. Default: telemetry.Noop.
func WithTelemetry(t telemetry.Client) Option {
	return func(m *Memory) {
		if t != nil {
			m.telemetry = t
		}
	}
}

func (c *Config) validate() error {
	if c.LLM == nil {
		return fmt.Errorf("LLM is required")
	}
	if c.Embedder == nil {
		return fmt.Errorf("Embedder is required")
	}
	if c.Store == nil {
		return fmt.Errorf("Store is required")
	}
	if c.History == nil {
		return fmt.Errorf("History is required")
	}
	switch c.APIVersion {
	case "":
		c.APIVersion = V10
	case V10, V11:
	default:
		return fmt.Errorf("unknown APIVersion %q", c.APIVersion)
	}
	if c.UserName == "" {
		c.UserName = "USER"
	}
	if c.SearchLimit <= 0 {
		c.SearchLimit = DefaultSearchLimit
	}
	return nil
}
