package core

// Memory mutation events, as recorded in the history ledger and
// returned by the reconciliation planner.
const (
	EventAdd    = "ADD"
	EventUpdate = "UPDATE"
	EventDelete = "DELETE"
	EventNone   = "NONE"
)

// Reserved payload keys. Everything else in a vector payload is
// user-supplied metadata.
var ReservedPayloadKeys = map[string]struct{}{
	"user_id":    {},
	"agent_id":   {},
	"run_id":     {},
	"hash":       {},
	"data":       {},
	"created_at": {},
	"updated_at": {},
}

// MemoryItem is one stored fact as returned by the facade.
type MemoryItem struct {
	ID        string                 `json:"id"`
	Memory    string                 `json:"memory"`
	Hash      string                 `json:"hash,omitempty"`
	CreatedAt string                 `json:"created_at,omitempty"`
	UpdatedAt string                 `json:"updated_at,omitempty"`
	Score     float32                `json:"score,omitempty"`
	UserID    string                 `json:"user_id,omitempty"`
	AgentID   string                 `json:"agent_id,omitempty"`
	RunID     string                 `json:"run_id,omitempty"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// MemoryEvent reports one applied reconciliation decision.
type MemoryEvent struct {
	ID             string `json:"id,omitempty"`
	Memory         string `json:"memory"`
	Event          string `json:"event"`
	PreviousMemory string `json:"previous_memory,omitempty"`
}

// HistoryEntry is one append-only row in the change-history ledger.
// PrevValue is nil for ADD; NewValue is nil for DELETE.
type HistoryEntry struct {
	ID        string  `json:"id"`
	MemoryID  string  `json:"memory_id"`
	PrevValue *string `json:"prev_value"`
	NewValue  *string `json:"new_value"`
	Event     string  `json:"event"`
	CreatedAt string  `json:"created_at"`
	UpdatedAt string  `json:"updated_at"`
	IsDeleted bool    `json:"is_deleted"`
}
