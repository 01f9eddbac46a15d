package core

import "errors"

// ErrMissingScope is returned when a memory-affecting call carries
// none of user_id, agent_id, or run_id.
var ErrMissingScope = errors.New("one of the filters: user_id, agent_id or run_id is required")

// Owner-scope filter keys. Every memory belongs to exactly one owner
// partition identified by these keys.
const (
	FilterUserID  = "user_id"
	FilterAgentID = "agent_id"
	FilterRunID   = "run_id"
)

var scopeKeys = []string{FilterUserID, FilterAgentID, FilterRunID}

// Filters restricts vector-store queries and deletions to an owner
// partition, optionally with extra metadata keys.
type Filters map[string]string

// OwnerScope builds a filter set from the three scope identifiers,
// skipping empty ones.
func OwnerScope(userID, agentID, runID string) Filters {
	f := Filters{}
	if userID != "" {
		f[FilterUserID] = userID
	}
	if agentID != "" {
		f[FilterAgentID] = agentID
	}
	if runID != "" {
		f[FilterRunID] = runID
	}
	return f
}

// HasOwnerScope reports whether at least one scope key is present.
func (f Filters) HasOwnerScope() bool {
	for _, key := range scopeKeys {
		if f[key] != "" {
			return true
		}
	}
	return false
}

// Validate returns ErrMissingScope when no owner scope is set.
func (f Filters) Validate() error {
	if !f.HasOwnerScope() {
		return ErrMissingScope
	}
	return nil
}

// Clone returns an independent copy.
func (f Filters) Clone() Filters {
	out := make(Filters, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Matches reports whether a payload satisfies every filter entry.
func (f Filters) Matches(payload map[string]interface{}) bool {
	for k, want := range f {
		got, ok := payload[k].(string)
		if !ok || got != want {
			return false
		}
	}
	return true
}
