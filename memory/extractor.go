package memory

import (
	"context"
	"log"
	"regexp"
	"strings"

	"github.com/feb-co/mem0-avater/core"
	"github.com/feb-co/mem0-avater/llm"
)

// defaultObservationCount is how many observation slots the model is
// asked to fill per batch.
const defaultObservationCount = 5

// extractFacts asks the model for candidate facts as a {"facts": [...]}
// object. A parse or model failure degrades to an empty list; an empty
// conversation degrades to "nothing to add".
func (m *Memory) extractFacts(ctx context.Context, messages []core.Message) []string {
	parsed := parseMessages(messages)

	systemPrompt := factRetrievalSystemPrompt
	if m.customPrompt != "" {
		systemPrompt = m.customPrompt
	}
	userPrompt := "Input: " + parsed

	response, err := m.llm.Generate(ctx, []core.Message{
		{Role: core.RoleSystem, Content: systemPrompt},
		{Role: core.RoleUser, Content: userPrompt},
	}, llm.WithJSONResponse())
	if err != nil {
		log.Printf("[MEMORY] Fact extraction call failed: %v", err)
		return nil
	}

	var parsedResponse struct {
		Facts []string `json:"facts"`
	}
	if err := llm.UnmarshalJSON(response, &parsedResponse); err != nil {
		log.Printf("[MEMORY] Error parsing extracted facts: %v", err)
		return nil
	}
	return parsedResponse.Facts
}

// extractObservations runs the observation extractor over the user's
// turns and parses its constrained line grammar.
func (m *Memory) extractObservations(ctx context.Context, messages []core.Message) []string {
	parsed := parseUserMessages(messages)

	systemPrompt, userPrompt := observationPrompts(m.userName, defaultObservationCount, parsed)
	if m.customPrompt != "" {
		systemPrompt = m.customPrompt
	}

	response, err := m.llm.Generate(ctx, []core.Message{
		{Role: core.RoleSystem, Content: systemPrompt},
		{Role: core.RoleUser, Content: userPrompt},
	})
	if err != nil {
		log.Printf("[MEMORY] Observation extraction call failed: %v", err)
		return nil
	}
	return parseObservations(response)
}

var observationGroupPattern = regexp.MustCompile(`<(.*?)>`)

// parseObservations extracts informative snippets from the response
// line grammar. Each line is expected to look like
//
//	Information: <index> <> <text or "None"> <keywords>
//
// The third angle-bracket group carries the information; lines with
// fewer than three groups, or whose value is "None" or "Repeat", are
// non-informative and dropped. Over- and under-production relative to
// the requested count is tolerated.
func parseObservations(response string) []string {
	var results []string
	for _, line := range strings.Split(response, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		groups := observationGroupPattern.FindAllStringSubmatch(line, -1)
		if len(groups) < 3 {
			continue
		}
		value := strings.TrimSpace(groups[2][1])
		if value == "" || value == "None" || value == "Repeat" {
			continue
		}
		results = append(results, value)
	}
	return results
}
