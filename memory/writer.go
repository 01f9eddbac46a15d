package memory

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/feb-co/mem0-avater/core"
)

// The writer applies one ADD/UPDATE/DELETE to the vector store and the
// history ledger. It is the unit of consistency per memory id; callers
// serialize mutations for one id within a decision batch.

// createMemory persists a new memory and appends its ADD history
// entry. A cached embedding from extraction-time retrieval is reused
// so identical text is never embedded twice.
func (m *Memory) createMemory(ctx context.Context, data string, cachedEmbeddings map[string][]float32, metadata map[string]interface{}) (string, error) {
	log.Printf("[MEMORY] Creating memory %q", truncate(data, 80))

	vector, ok := cachedEmbeddings[data]
	if !ok {
		var err error
		vector, err = m.embedder.Embed(ctx, data)
		if err != nil {
			return "", fmt.Errorf("embed memory: %w", err)
		}
	}

	memoryID := uuid.New().String()
	now := time.Now().Format(time.RFC3339)

	payload := cloneMetadata(metadata)
	payload["data"] = data
	payload["hash"] = contentHash(data)
	payload["created_at"] = now
	payload["updated_at"] = now

	if err := m.store.Insert(ctx, [][]float32{vector}, []string{memoryID}, []map[string]interface{}{payload}); err != nil {
		return "", fmt.Errorf("insert memory: %w", err)
	}
	if err := m.db.AddHistory(ctx, memoryID, nil, &data, core.EventAdd, now, now, false); err != nil {
		return "", fmt.Errorf("record ADD history: %w", err)
	}
	return memoryID, nil
}

// updateMemory replaces a memory's text, preserving its id, creation
// timestamp, scope keys and content hash lineage, and appends an
// UPDATE history entry carrying the prior text.
func (m *Memory) updateMemory(ctx context.Context, memoryID, data string, cachedEmbeddings map[string][]float32, metadata map[string]interface{}) error {
	log.Printf("[MEMORY] Updating memory %s", memoryID)

	existing, err := m.store.Get(ctx, memoryID)
	if err != nil {
		return fmt.Errorf("fetch memory %s: %w", memoryID, err)
	}
	prevValue := existing.Data()
	now := time.Now().Format(time.RFC3339)

	payload := cloneMetadata(metadata)
	payload["data"] = data
	payload["hash"] = contentHash(data)
	payload["updated_at"] = now
	if createdAt, ok := existing.Payload["created_at"]; ok {
		payload["created_at"] = createdAt
	}
	// The owner partition of a memory never changes on update.
	for _, key := range []string{core.FilterUserID, core.FilterAgentID, core.FilterRunID} {
		if v, ok := existing.Payload[key]; ok {
			payload[key] = v
		}
	}

	vector, ok := cachedEmbeddings[data]
	if !ok {
		vector, err = m.embedder.Embed(ctx, data)
		if err != nil {
			return fmt.Errorf("embed memory: %w", err)
		}
	}

	if err := m.store.Update(ctx, memoryID, vector, payload); err != nil {
		return fmt.Errorf("update memory %s: %w", memoryID, err)
	}
	createdAt, _ := payload["created_at"].(string)
	if err := m.db.AddHistory(ctx, memoryID, &prevValue, &data, core.EventUpdate, createdAt, now, false); err != nil {
		return fmt.Errorf("record UPDATE history: %w", err)
	}
	return nil
}

// deleteMemory removes a memory from the vector store and appends a
// DELETE history entry with a null new value.
func (m *Memory) deleteMemory(ctx context.Context, memoryID string) error {
	log.Printf("[MEMORY] Deleting memory %s", memoryID)

	existing, err := m.store.Get(ctx, memoryID)
	if err != nil {
		return fmt.Errorf("fetch memory %s: %w", memoryID, err)
	}
	prevValue := existing.Data()

	if err := m.store.Delete(ctx, memoryID); err != nil {
		return fmt.Errorf("delete memory %s: %w", memoryID, err)
	}
	createdAt, _ := existing.Payload["created_at"].(string)
	now := time.Now().Format(time.RFC3339)
	if err := m.db.AddHistory(ctx, memoryID, &prevValue, nil, core.EventDelete, createdAt, now, true); err != nil {
		return fmt.Errorf("record DELETE history: %w", err)
	}
	return nil
}

// contentHash digests the fact text for idempotence checks.
func contentHash(data string) string {
	sum := md5.Sum([]byte(data))
	return hex.EncodeToString(sum[:])
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}
