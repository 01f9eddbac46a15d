package profile

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/feb-co/mem0-avater/core"
	"github.com/feb-co/mem0-avater/llm"
	"github.com/feb-co/mem0-avater/telemetry"
)

// ErrAmbiguousOwner is returned when more than one of user_id,
// agent_id, run_id is supplied; a profile belongs to exactly one.
var ErrAmbiguousOwner = errors.New("only one of user_id, agent_id or run_id can be provided")

// DB is the slice of the relational store the merger needs.
// *storage.SQLiteManager satisfies it.
type DB interface {
	GetProfile(ctx context.Context, ownerID string) (string, bool, error)
	InsertProfile(ctx context.Context, ownerID, profileJSON, now string) error
	UpdateProfile(ctx context.Context, ownerID, profileJSON, now string) error
}

// Merger classifies conversation turns against the owner's stored
// profile and schedules incremental merges. Classification is
// synchronous; the merge itself is fire-and-forget.
type Merger struct {
	llm       llm.Generator
	db        DB
	schema    *Schema
	telemetry telemetry.Client

	merges sync.WaitGroup
}

// Config wires a Merger. LLM and DB are required; Schema defaults to
// DefaultSchema and Telemetry to a no-op sink.
type Config struct {
	LLM       llm.Generator
	DB        DB
	Schema    *Schema
	Telemetry telemetry.Client
}

// New builds a Merger. Configuration errors are fatal.
func New(cfg Config) (*Merger, error) {
	if cfg.LLM == nil {
		return nil, errors.New("LLM is required")
	}
	if cfg.DB == nil {
		return nil, errors.New("DB is required")
	}
	if cfg.Schema == nil {
		cfg.Schema = DefaultSchema()
	}
	if cfg.Telemetry == nil {
		cfg.Telemetry = telemetry.Noop{}
	}
	return &Merger{
		llm:       cfg.LLM,
		db:        cfg.DB,
		schema:    cfg.Schema,
		telemetry: cfg.Telemetry,
	}, nil
}

// AddOptions names the profile owner. Exactly one field must be set.
type AddOptions struct {
	UserID  string
	AgentID string
	RunID   string
}

func (o AddOptions) ownerID() (string, error) {
	var ids []string
	for _, id := range []string{o.UserID, o.AgentID, o.RunID} {
		if id != "" {
			ids = append(ids, id)
		}
	}
	switch len(ids) {
	case 0:
		return "", core.ErrMissingScope
	case 1:
		return ids[0], nil
	default:
		return "", ErrAmbiguousOwner
	}
}

// Add analyzes a conversation turn against the owner's profile. The
// two classifiers run concurrently; if either fires, a merge is
// scheduled in the background and Add returns without awaiting it.
// Callers needing freshness must poll GetProfile afterwards.
func (m *Merger) Add(ctx context.Context, messages []core.Message, opts AddOptions) error {
	ownerID, err := opts.ownerID()
	if err != nil {
		return err
	}

	profile, err := m.loadProfile(ctx, ownerID)
	if err != nil {
		return err
	}

	var conflict, nonConflict bool
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		conflict = m.classifyConflict(gctx, profile, messages)
		return nil
	})
	g.Go(func() error {
		nonConflict = m.classifyNonConflict(gctx, messages)
		return nil
	})
	_ = g.Wait()

	m.telemetry.Capture("profile.add", map[string]interface{}{
		"conflict":     conflict,
		"non_conflict": nonConflict,
	})

	if conflict || nonConflict {
		m.merges.Add(1)
		go func() {
			defer m.merges.Done()
			// Deliberately detached from the caller's context; the
			// triggering request returns before the merge completes.
			m.mergeProfile(context.Background(), ownerID, messages, profile)
		}()
	}
	return nil
}

// GetProfile returns the owner's profile, lazily empty when no row
// exists yet.
func (m *Merger) GetProfile(ctx context.Context, ownerID string) (*Profile, error) {
	return m.loadProfile(ctx, ownerID)
}

// Flush blocks until all scheduled merges have completed. Intended
// for shutdown and tests, not for per-call freshness.
func (m *Merger) Flush() {
	m.merges.Wait()
}

func (m *Merger) loadProfile(ctx context.Context, ownerID string) (*Profile, error) {
	raw, found, err := m.db.GetProfile(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	if !found || raw == "" {
		return m.schema.NewProfile(), nil
	}
	profile, err := m.schema.ParseProfile(raw)
	if err != nil {
		log.Printf("[PROFILE] Corrupt profile row for %s, starting empty: %v", ownerID, err)
		return m.schema.NewProfile(), nil
	}
	return profile, nil
}

// classifyConflict reports whether the turn directly conflicts with
// the stored profile. Model errors default to false: never overwrite
// profile data on an uncertain signal.
func (m *Merger) classifyConflict(ctx context.Context, profile *Profile, messages []core.Message) bool {
	response, err := m.llm.Generate(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "You are a helpful assistant."},
		{Role: core.RoleUser, Content: conflictPrompt(m.schema, profile, messages)},
	})
	if err != nil {
		log.Printf("[PROFILE] Conflict classifier failed: %v", err)
		return false
	}
	return normalizeLabel(response) == "a"
}

// classifyNonConflict reports whether the turn carries new profile
// information ("a") or an explicit refusal ("c").
func (m *Merger) classifyNonConflict(ctx context.Context, messages []core.Message) bool {
	response, err := m.llm.Generate(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "You are a helpful assistant."},
		{Role: core.RoleUser, Content: nonConflictPrompt(m.schema, messages)},
	})
	if err != nil {
		log.Printf("[PROFILE] Non-conflict classifier failed: %v", err)
		return false
	}
	label := normalizeLabel(response)
	return label == "a" || label == "c"
}

// mergeProfile asks the model for a full incremental merge patch and
// applies it key by key, then writes the row back with
// insert-if-absent-else-update semantics.
func (m *Merger) mergeProfile(ctx context.Context, ownerID string, messages []core.Message, profile *Profile) {
	response, err := m.llm.Generate(ctx, []core.Message{
		{Role: core.RoleSystem, Content: "You are a helpful assistant."},
		{Role: core.RoleUser, Content: extractPrompt(m.schema, profile, messages)},
	}, llm.WithJSONResponse())
	if err != nil {
		log.Printf("[PROFILE] Merge extraction failed for %s: %v", ownerID, err)
		return
	}

	var patch map[string]string
	if err := llm.UnmarshalJSON(response, &patch); err != nil {
		log.Printf("[PROFILE] Unparseable merge patch for %s: %v", ownerID, err)
		return
	}
	for key, value := range patch {
		if !profile.SetValue(key, value) {
			log.Printf("[PROFILE] Dropping unknown profile key %q", key)
		}
	}

	if err := m.storeProfile(ctx, ownerID, profile); err != nil {
		log.Printf("[PROFILE] Failed to store profile for %s: %v", ownerID, err)
	}
}

func (m *Merger) storeProfile(ctx context.Context, ownerID string, profile *Profile) error {
	row, err := profile.JSON()
	if err != nil {
		return err
	}
	now := time.Now().Format(time.RFC3339)
	_, found, err := m.db.GetProfile(ctx, ownerID)
	if err != nil {
		return err
	}
	if !found {
		return m.db.InsertProfile(ctx, ownerID, row, now)
	}
	return m.db.UpdateProfile(ctx, ownerID, row, now)
}

// normalizeLabel reduces a classifier response to its category letter.
func normalizeLabel(response string) string {
	label := strings.ToLower(strings.TrimSpace(response))
	label = strings.Trim(label, ".\"'")
	if len(label) > 1 {
		// Some models answer "category: a" or "a." despite instructions.
		if idx := strings.LastIndexByte(label, ':'); idx >= 0 {
			label = strings.TrimSpace(label[idx+1:])
		}
	}
	return label
}
