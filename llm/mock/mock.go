// Package mock provides a scripted llm.Generator for tests.
package mock

import (
	"context"
	"sync"

	"github.com/feb-co/mem0-avater/core"
	"github.com/feb-co/mem0-avater/llm"
)

// Generator replays a fixed queue of responses. When the queue is
// exhausted the last response is repeated. An optional Func takes
// precedence over the queue so tests can respond per-prompt.
type Generator struct {
	mu        sync.Mutex
	responses []string
	next      int
	err       error

	// Func, when set, computes the response from the prompt.
	Func func(messages []core.Message) (string, error)

	// Calls records every conversation passed to Generate.
	Calls [][]core.Message
}

// New creates a mock generator that replays the given responses in order.
func New(responses ...string) *Generator {
	return &Generator{responses: responses}
}

// FailWith makes every subsequent Generate call return err.
func (g *Generator) FailWith(err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.err = err
}

// Generate returns the next scripted response.
func (g *Generator) Generate(ctx context.Context, messages []core.Message, opts ...llm.GenerateOption) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.Calls = append(g.Calls, messages)

	if g.err != nil {
		return "", g.err
	}
	if g.Func != nil {
		return g.Func(messages)
	}
	if len(g.responses) == 0 {
		return "", nil
	}
	resp := g.responses[g.next]
	if g.next < len(g.responses)-1 {
		g.next++
	}
	return resp, nil
}

// CallCount returns how many times Generate has been invoked.
func (g *Generator) CallCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.Calls)
}
