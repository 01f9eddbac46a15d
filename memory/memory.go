package memory

import (
	"context"
	"errors"
	"log"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/feb-co/mem0-avater/core"
	"github.com/feb-co/mem0-avater/embedder"
	"github.com/feb-co/mem0-avater/llm"
	"github.com/feb-co/mem0-avater/memory/graph"
	"github.com/feb-co/mem0-avater/storage"
	"github.com/feb-co/mem0-avater/store"
	"github.com/feb-co/mem0-avater/telemetry"
)

// historyDB is the slice of the relational store the facade needs.
// *storage.SQLiteManager satisfies it.
type historyDB interface {
	AddHistory(ctx context.Context, memoryID string, prevValue, newValue *string, event, createdAt, updatedAt string, isDeleted bool) error
	GetHistory(ctx context.Context, memoryID string) ([]storage.HistoryEntry, error)
	Reset(ctx context.Context) error
}

// Memory is the conversational-memory facade. One instance is safe for
// concurrent use; separate Add calls may interleave (last writer wins
// on racing updates to the same memory id).
type Memory struct {
	llm          llm.Generator
	embedder     embedder.Embedder
	store        store.VectorStore
	db           historyDB
	graph        graph.Store
	telemetry    telemetry.Client
	enableGraph  bool
	version      string
	userName     string
	customPrompt string
	searchLimit  int
	observation  bool
}

// New builds a Memory from its collaborators. Configuration errors are
// fatal and reported here, never at call time.
func New(cfg Config, opts ...Option) (*Memory, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	m := &Memory{
		llm:          cfg.LLM,
		embedder:     cfg.Embedder,
		store:        cfg.Store,
		db:           cfg.History,
		graph:        graph.Noop{},
		telemetry:    telemetry.Noop{},
		version:      cfg.APIVersion,
		userName:     cfg.UserName,
		customPrompt: cfg.CustomPrompt,
		searchLimit:  cfg.SearchLimit,
		observation:  cfg.ObservationMode,
	}
	for _, opt := range opts {
		opt(m)
	}
	m.capture("memory.init", map[string]interface{}{"version": m.version})
	return m, nil
}

// AddOptions scopes and annotates one Add call. At least one of
// UserID, AgentID, RunID must be set.
type AddOptions struct {
	UserID  string
	AgentID string
	RunID   string

	// Metadata is stored verbatim on every memory the call creates,
	// minus reserved keys which the writer owns.
	Metadata map[string]interface{}
}

// AddResult reports the mutations one Add call made. Relations is only
// populated in the v1.1 output shape with a graph store configured.
type AddResult struct {
	Results   []core.MemoryEvent `json:"results"`
	Relations []graph.Relation   `json:"relations,omitempty"`
}

// SearchResult is the result shape shared by Search and GetAll.
type SearchResult struct {
	Results   []core.MemoryItem `json:"results"`
	Relations []graph.Relation  `json:"relations,omitempty"`
}

// Add extracts facts from the conversation, reconciles them against
// existing memories, and persists the outcome. The vector path and the
// graph path run concurrently; Add joins both before returning.
func (m *Memory) Add(ctx context.Context, messages []core.Message, opts AddOptions) (*AddResult, error) {
	metadata := cloneMetadata(opts.Metadata)
	filters := core.OwnerScope(opts.UserID, opts.AgentID, opts.RunID)
	for k, v := range filters {
		metadata[k] = v
	}
	if err := filters.Validate(); err != nil {
		return nil, err
	}

	var (
		results   []core.MemoryEvent
		relations []graph.Relation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		results = m.addToVectorStore(gctx, messages, metadata, filters)
		return nil
	})
	g.Go(func() error {
		relations = m.addToGraph(gctx, messages, filters)
		return nil
	})
	_ = g.Wait()

	m.capture("memory.add", map[string]interface{}{
		"version": m.version,
		"keys":    filterKeys(filters),
	})

	if m.version == V11 {
		return &AddResult{Results: results, Relations: relations}, nil
	}
	m.warnDeprecated("add")
	return &AddResult{Results: results}, nil
}

// AddText is Add for a raw string, normalized to a single user turn.
func (m *Memory) AddText(ctx context.Context, text string, opts AddOptions) (*AddResult, error) {
	return m.Add(ctx, core.UserMessage(text), opts)
}

// addToVectorStore runs the vector-path pipeline. It never returns an
// error: extraction and reconciliation failures degrade to an empty
// result per the add contract.
func (m *Memory) addToVectorStore(ctx context.Context, messages []core.Message, metadata map[string]interface{}, filters core.Filters) []core.MemoryEvent {
	if m.observation {
		return m.addObservations(ctx, messages, metadata, filters)
	}

	facts := m.extractFacts(ctx, messages)
	return m.reconcile(ctx, facts, metadata, filters)
}

// addObservations runs the observation pipeline plus verbatim session
// storage. Observations are reconciled under a dedicated agent scope;
// raw session chunks are stored untouched under a context scope.
func (m *Memory) addObservations(ctx context.Context, messages []core.Message, metadata map[string]interface{}, filters core.Filters) []core.MemoryEvent {
	obsMetadata := cloneMetadata(metadata)
	obsMetadata[core.FilterAgentID] = "observation"
	observations := m.extractObservations(ctx, messages)
	results := m.reconcile(ctx, observations, obsMetadata, filters)

	ctxMetadata := cloneMetadata(metadata)
	ctxMetadata[core.FilterAgentID] = "context"
	for _, session := range splitSessions(messages) {
		id, err := m.createMemory(ctx, session, nil, ctxMetadata)
		if err != nil {
			log.Printf("[MEMORY] Failed to store session chunk: %v", err)
			continue
		}
		results = append(results, core.MemoryEvent{ID: id, Memory: session, Event: core.EventAdd})
	}
	return results
}

func (m *Memory) addToGraph(ctx context.Context, messages []core.Message, filters core.Filters) []graph.Relation {
	if !m.enableGraph || m.version != V11 {
		return nil
	}
	var parts []string
	for _, msg := range messages {
		if msg.Role != core.RoleSystem {
			parts = append(parts, msg.Content)
		}
	}
	relations, err := m.graph.Add(ctx, strings.Join(parts, "\n"), filters)
	if err != nil {
		log.Printf("[MEMORY] Graph add failed: %v", err)
		return nil
	}
	return relations
}

// Get retrieves one memory by id. Returns (nil, nil) when the id does
// not exist.
func (m *Memory) Get(ctx context.Context, memoryID string) (*core.MemoryItem, error) {
	m.capture("memory.get", map[string]interface{}{"memory_id": memoryID})
	rec, err := m.store.Get(ctx, memoryID)
	if errors.Is(err, store.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	item := recordToItem(*rec, false)
	return &item, nil
}

// GetAllOptions scopes a GetAll or DeleteAll call.
type GetAllOptions struct {
	UserID  string
	AgentID string
	RunID   string
	Limit   int
}

// GetAll lists memories in the owner partition. Similarity scores are
// stripped since no query was involved.
func (m *Memory) GetAll(ctx context.Context, opts GetAllOptions) (*SearchResult, error) {
	filters := core.OwnerScope(opts.UserID, opts.AgentID, opts.RunID)
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	m.capture("memory.get_all", map[string]interface{}{"filters": len(filters), "limit": limit})

	var (
		items     []core.MemoryItem
		relations []graph.Relation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		records, err := m.store.List(gctx, filters, limit)
		if err != nil {
			return err
		}
		items = make([]core.MemoryItem, len(records))
		for i, rec := range records {
			items[i] = recordToItem(rec, false)
		}
		return nil
	})
	if m.enableGraph && m.version == V11 {
		g.Go(func() error {
			var err error
			relations, err = m.graph.GetAll(gctx, filters, limit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if m.version == V11 {
		return &SearchResult{Results: items, Relations: relations}, nil
	}
	m.warnDeprecated("get_all")
	return &SearchResult{Results: items}, nil
}

// SearchOptions scopes a Search call. At least one of UserID, AgentID,
// RunID must be set.
type SearchOptions struct {
	UserID  string
	AgentID string
	RunID   string
	Limit   int
}

// Search embeds the query and returns the nearest memories in the
// owner partition, ranked by similarity.
func (m *Memory) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	filters := core.OwnerScope(opts.UserID, opts.AgentID, opts.RunID)
	if err := filters.Validate(); err != nil {
		return nil, err
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = 100
	}
	m.capture("memory.search", map[string]interface{}{"filters": len(filters), "limit": limit, "version": m.version})

	var (
		items     []core.MemoryItem
		relations []graph.Relation
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		vector, err := m.embedder.Embed(gctx, query)
		if err != nil {
			return err
		}
		records, err := m.store.Search(gctx, vector, limit, filters)
		if err != nil {
			return err
		}
		items = make([]core.MemoryItem, len(records))
		for i, rec := range records {
			items[i] = recordToItem(rec, true)
		}
		return nil
	})
	if m.enableGraph && m.version == V11 {
		g.Go(func() error {
			var err error
			relations, err = m.graph.Search(gctx, query, filters, limit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if m.version == V11 {
		return &SearchResult{Results: items, Relations: relations}, nil
	}
	m.warnDeprecated("search")
	return &SearchResult{Results: items}, nil
}

// Update replaces the text of one memory and appends an UPDATE history
// entry.
func (m *Memory) Update(ctx context.Context, memoryID, data string) error {
	m.capture("memory.update", map[string]interface{}{"memory_id": memoryID})
	return m.updateMemory(ctx, memoryID, data, nil, nil)
}

// Delete removes one memory and appends a DELETE history entry.
func (m *Memory) Delete(ctx context.Context, memoryID string) error {
	m.capture("memory.delete", map[string]interface{}{"memory_id": memoryID})
	return m.deleteMemory(ctx, memoryID)
}

// DeleteAll removes every memory in the owner partition, one DELETE
// history entry each. A full wipe with no filter is Reset, not this.
func (m *Memory) DeleteAll(ctx context.Context, opts GetAllOptions) error {
	filters := core.OwnerScope(opts.UserID, opts.AgentID, opts.RunID)
	if !filters.HasOwnerScope() {
		return errors.New("at least one filter is required to delete all memories; use Reset to wipe the store")
	}
	m.capture("memory.delete_all", map[string]interface{}{"filters": len(filters)})

	records, err := m.store.List(ctx, filters, 0)
	if err != nil {
		return err
	}
	for _, rec := range records {
		if err := m.deleteMemory(ctx, rec.ID); err != nil {
			log.Printf("[MEMORY] Failed to delete memory %s: %v", rec.ID, err)
		}
	}
	log.Printf("[MEMORY] Deleted %d memories", len(records))

	if m.enableGraph && m.version == V11 {
		if err := m.graph.DeleteAll(ctx, filters); err != nil {
			log.Printf("[MEMORY] Graph delete_all failed: %v", err)
		}
	}
	return nil
}

// History returns the change ledger for one memory, oldest first.
func (m *Memory) History(ctx context.Context, memoryID string) ([]core.HistoryEntry, error) {
	m.capture("memory.history", map[string]interface{}{"memory_id": memoryID})
	rows, err := m.db.GetHistory(ctx, memoryID)
	if err != nil {
		return nil, err
	}
	entries := make([]core.HistoryEntry, len(rows))
	for i, row := range rows {
		entries[i] = core.HistoryEntry{
			ID:        row.ID,
			MemoryID:  row.MemoryID,
			PrevValue: row.PrevValue,
			NewValue:  row.NewValue,
			Event:     row.Event,
			CreatedAt: row.CreatedAt,
			UpdatedAt: row.UpdatedAt,
			IsDeleted: row.IsDeleted,
		}
	}
	return entries, nil
}

// Reset wipes the vector store, the history ledger and all profiles.
func (m *Memory) Reset(ctx context.Context) error {
	log.Printf("[MEMORY] Resetting all memories")
	if err := m.store.DeleteCollection(ctx); err != nil {
		return err
	}
	if err := m.db.Reset(ctx); err != nil {
		return err
	}
	m.capture("memory.reset", nil)
	return nil
}

func (m *Memory) capture(event string, properties map[string]interface{}) {
	m.telemetry.Capture(event, properties)
}

func (m *Memory) warnDeprecated(op string) {
	log.Printf("[MEMORY] The v1.0 %s output format is deprecated; set APIVersion to %q for the {results, relations} shape", op, V11)
}

// recordToItem converts a stored record to the facade result row.
// Score is carried only for search results.
func recordToItem(rec store.Record, withScore bool) core.MemoryItem {
	item := core.MemoryItem{
		ID:     rec.ID,
		Memory: rec.Data(),
	}
	if s, ok := rec.Payload["hash"].(string); ok {
		item.Hash = s
	}
	if s, ok := rec.Payload["created_at"].(string); ok {
		item.CreatedAt = s
	}
	if s, ok := rec.Payload["updated_at"].(string); ok {
		item.UpdatedAt = s
	}
	if s, ok := rec.Payload[core.FilterUserID].(string); ok {
		item.UserID = s
	}
	if s, ok := rec.Payload[core.FilterAgentID].(string); ok {
		item.AgentID = s
	}
	if s, ok := rec.Payload[core.FilterRunID].(string); ok {
		item.RunID = s
	}
	if withScore {
		item.Score = rec.Score
	}
	for k, v := range rec.Payload {
		if _, reserved := core.ReservedPayloadKeys[k]; reserved {
			continue
		}
		if item.Metadata == nil {
			item.Metadata = make(map[string]interface{})
		}
		item.Metadata[k] = v
	}
	return item
}

// splitSessions chunks a conversation into user turns, each with the
// assistant reply that follows it when present.
func splitSessions(messages []core.Message) []string {
	var sessions []string
	for i := 0; i < len(messages); i++ {
		if messages[i].Role != core.RoleUser {
			continue
		}
		chunk := "user: " + messages[i].Content
		if i+1 < len(messages) && messages[i+1].Role == core.RoleAssistant {
			chunk += "\nassistant: " + messages[i+1].Content
		}
		sessions = append(sessions, chunk)
	}
	return sessions
}

func cloneMetadata(metadata map[string]interface{}) map[string]interface{} {
	out := make(map[string]interface{}, len(metadata))
	for k, v := range metadata {
		out[k] = v
	}
	return out
}

func filterKeys(filters core.Filters) []string {
	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	return keys
}
