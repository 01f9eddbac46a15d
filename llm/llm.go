// Package llm defines the text-generation contract consumed by the
// memory and profile pipelines.
//
// Implementations:
//   - llm/anthropic: Claude-backed generator (production)
//   - llm/mock: scripted generator for tests
package llm

import (
	"context"

	"github.com/feb-co/mem0-avater/core"
)

// Generator produces a text completion for a conversation.
// Implementations must honor WithJSONResponse by returning output
// that parses as a single JSON object.
type Generator interface {
	Generate(ctx context.Context, messages []core.Message, opts ...GenerateOption) (string, error)
}

// Options holds per-call generation settings.
type Options struct {
	// JSONResponse requests a structured JSON-object response.
	JSONResponse bool

	// MaxTokens overrides the generator's default response budget.
	MaxTokens int64
}

// GenerateOption configures a single Generate call.
type GenerateOption func(*Options)

// WithJSONResponse requests a JSON-object response mode.
func WithJSONResponse() GenerateOption {
	return func(o *Options) {
		o.JSONResponse = true
	}
}

// WithMaxTokens overrides the response token budget for one call.
func WithMaxTokens(n int64) GenerateOption {
	return func(o *Options) {
		o.MaxTokens = n
	}
}

// ApplyOptions folds a list of options into an Options value.
func ApplyOptions(opts ...GenerateOption) Options {
	var o Options
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
