// Package memory implements the conversational-memory facade: it
// extracts durable facts from chat transcripts, reconciles them against
// previously stored memories, and persists the result as embedded
// vectors plus an append-only change history.
//
// Architecture:
//   - Extractors: fact mode (one JSON model call) and observation mode
//     (a constrained line grammar over batched sentences)
//   - Retriever: per-candidate nearest-neighbor lookup building the
//     old-memory working set for reconciliation
//   - Planner: one batched ADD/UPDATE/DELETE/NONE decision call, with
//     integer id remapping so the model never sees a real storage id
//   - Writer: applies each decision to the vector store and appends a
//     history ledger entry; failures are isolated per decision
//
// The facade fans the vector path and the optional graph path out
// concurrently and joins both before returning. Owner scope (user_id /
// agent_id / run_id) partitions everything; calls without a scope fail
// with core.ErrMissingScope before any work starts.
package memory
