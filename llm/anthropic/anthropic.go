// Package anthropic implements llm.Generator on the Claude API.
package anthropic

import (
	"context"
	"fmt"
	"strings"

	sdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/feb-co/mem0-avater/core"
	"github.com/feb-co/mem0-avater/llm"
)

// DefaultModel is used when Config.Model is empty.
const DefaultModel = "claude-sonnet-4-20250514"

// Config configures the Claude generator.
type Config struct {
	// Model is the Claude model to use. Defaults to DefaultModel.
	Model string

	// MaxTokens is the default maximum response tokens. Defaults to 4096.
	MaxTokens int64
}

// Generator calls the Claude Messages API.
type Generator struct {
	client    *sdk.Client
	model     string
	maxTokens int64
}

// New creates a Claude-backed generator from an existing client.
func New(client *sdk.Client, cfg Config) (*Generator, error) {
	if client == nil {
		return nil, fmt.Errorf("anthropic client is required")
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}
	maxTokens := cfg.MaxTokens
	if maxTokens == 0 {
		maxTokens = 4096
	}
	return &Generator{
		client:    client,
		model:     model,
		maxTokens: maxTokens,
	}, nil
}

// Generate runs one completion. System-role messages become the system
// prompt; JSON response mode is requested by prefilling the assistant
// turn with an opening brace, which Claude continues as a JSON object.
func (g *Generator) Generate(ctx context.Context, messages []core.Message, opts ...llm.GenerateOption) (string, error) {
	o := llm.ApplyOptions(opts...)

	var system []sdk.TextBlockParam
	var turns []sdk.MessageParam
	for _, m := range messages {
		switch m.Role {
		case core.RoleSystem:
			system = append(system, sdk.TextBlockParam{Text: m.Content})
		case core.RoleAssistant:
			turns = append(turns, sdk.NewAssistantMessage(sdk.NewTextBlock(m.Content)))
		default:
			turns = append(turns, sdk.NewUserMessage(sdk.NewTextBlock(m.Content)))
		}
	}

	if o.JSONResponse {
		turns = append(turns, sdk.NewAssistantMessage(sdk.NewTextBlock("{")))
	}

	maxTokens := g.maxTokens
	if o.MaxTokens > 0 {
		maxTokens = o.MaxTokens
	}

	params := sdk.MessageNewParams{
		Model:     sdk.Model(g.model),
		MaxTokens: maxTokens,
		Messages:  turns,
	}
	if len(system) > 0 {
		params.System = system
	}

	resp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("claude API error: %w", err)
	}

	var text strings.Builder
	for _, block := range resp.Content {
		if block.Type == "text" {
			text.WriteString(block.Text)
		}
	}

	out := strings.TrimSpace(text.String())
	if o.JSONResponse && !strings.HasPrefix(out, "{") {
		out = "{" + out
	}
	return out, nil
}
