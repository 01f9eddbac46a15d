package memory

import (
	"context"
	"log"
	"strconv"

	"github.com/feb-co/mem0-avater/core"
	"github.com/feb-co/mem0-avater/llm"
)

// retrievedMemory is one {id, text} pair in the old-memory working set
// shown to the model during reconciliation.
type retrievedMemory struct {
	ID   string `json:"id"`
	Text string `json:"text"`
}

// plannerDecision is one item of the model's batch decision list.
type plannerDecision struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Event     string `json:"event"`
	OldMemory string `json:"old_memory"`
}

type plannerResponse struct {
	Memory []plannerDecision `json:"memory"`
}

// reconcile runs the retrieval + planning + apply loop for a batch of
// candidate facts. It never returns an error: an unparseable decision
// response yields zero effects, and a failing decision is skipped
// without aborting its siblings.
func (m *Memory) reconcile(ctx context.Context, facts []string, metadata map[string]interface{}, filters core.Filters) []core.MemoryEvent {
	if len(facts) == 0 {
		log.Printf("[PLANNER] No new facts extracted, nothing to reconcile")
		return nil
	}

	oldMemories, embeddings := m.retrieveNeighbors(ctx, facts, filters)
	log.Printf("[PLANNER] Total existing memories: %d", len(oldMemories))

	// Real ids are remapped to small sequential integers before the
	// model sees them; an id coming back that misses the reverse map is
	// a hallucination and the decision carrying it is dropped.
	idMap := make(map[string]string, len(oldMemories))
	remapped := make([]retrievedMemory, len(oldMemories))
	for i, mem := range oldMemories {
		key := strconv.Itoa(i)
		idMap[key] = mem.ID
		remapped[i] = retrievedMemory{ID: key, Text: mem.Text}
	}

	prompt := updateMemoryPrompt(remapped, facts)
	response, err := m.llm.Generate(ctx, core.UserMessage(prompt), llm.WithJSONResponse())
	if err != nil {
		log.Printf("[PLANNER] Decision call failed: %v", err)
		return nil
	}

	var parsed plannerResponse
	if err := llm.UnmarshalJSON(response, &parsed); err != nil {
		log.Printf("[PLANNER] Unparseable decision response: %v", err)
		return nil
	}

	var events []core.MemoryEvent
	for _, decision := range parsed.Memory {
		switch decision.Event {
		case core.EventAdd:
			id, err := m.createMemory(ctx, decision.Text, embeddings, metadata)
			if err != nil {
				log.Printf("[PLANNER] ADD failed: %v", err)
				continue
			}
			events = append(events, core.MemoryEvent{ID: id, Memory: decision.Text, Event: core.EventAdd})

		case core.EventUpdate:
			realID, ok := idMap[decision.ID]
			if !ok {
				log.Printf("[PLANNER] UPDATE references unknown id %q, skipping", decision.ID)
				continue
			}
			if err := m.updateMemory(ctx, realID, decision.Text, embeddings, metadata); err != nil {
				log.Printf("[PLANNER] UPDATE failed: %v", err)
				continue
			}
			events = append(events, core.MemoryEvent{
				ID:             realID,
				Memory:         decision.Text,
				Event:          core.EventUpdate,
				PreviousMemory: decision.OldMemory,
			})

		case core.EventDelete:
			realID, ok := idMap[decision.ID]
			if !ok {
				log.Printf("[PLANNER] DELETE references unknown id %q, skipping", decision.ID)
				continue
			}
			if err := m.deleteMemory(ctx, realID); err != nil {
				log.Printf("[PLANNER] DELETE failed: %v", err)
				continue
			}
			events = append(events, core.MemoryEvent{ID: realID, Memory: decision.Text, Event: core.EventDelete})

		case core.EventNone:
			log.Printf("[PLANNER] NOOP for memory")

		default:
			log.Printf("[PLANNER] Unknown event %q, skipping", decision.Event)
		}
	}
	return events
}

// retrieveNeighbors embeds each candidate and accumulates its top-K
// neighbors into one flat working set. Duplicates across candidates
// are allowed. The embeddings map is returned so the writer can reuse
// them instead of re-embedding on ADD/UPDATE.
func (m *Memory) retrieveNeighbors(ctx context.Context, facts []string, filters core.Filters) ([]retrievedMemory, map[string][]float32) {
	var oldMemories []retrievedMemory
	embeddings := make(map[string][]float32, len(facts))

	for _, fact := range facts {
		vector, err := m.embedder.Embed(ctx, fact)
		if err != nil {
			log.Printf("[PLANNER] Failed to embed %q: %v", truncate(fact, 50), err)
			continue
		}
		embeddings[fact] = vector

		neighbors, err := m.store.Search(ctx, vector, m.searchLimit, filters)
		if err != nil {
			log.Printf("[PLANNER] Neighbor search failed for %q: %v", truncate(fact, 50), err)
			continue
		}
		for _, rec := range neighbors {
			oldMemories = append(oldMemories, retrievedMemory{ID: rec.ID, Text: rec.Data()})
		}
	}
	return oldMemories, embeddings
}
