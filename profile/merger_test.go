package profile_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/feb-co/mem0-avater/core"
	llmmock "github.com/feb-co/mem0-avater/llm/mock"
	"github.com/feb-co/mem0-avater/profile"
	"github.com/feb-co/mem0-avater/storage"
)

func newTestMerger(t *testing.T, gen *llmmock.Generator) (*profile.Merger, *storage.SQLiteManager) {
	t.Helper()
	db, err := storage.New(":memory:")
	if err != nil {
		t.Fatalf("Failed to create db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m, err := profile.New(profile.Config{LLM: gen, DB: db})
	if err != nil {
		t.Fatalf("Failed to create merger: %v", err)
	}
	return m, db
}

// classify routes the scripted responses: the conflict classifier
// prompt contains "History Profile", the non-conflict one "three
// categories", the extraction one "profile_dict".
func scriptedLLM(conflict, nonConflict, patch string) *llmmock.Generator {
	gen := &llmmock.Generator{}
	gen.Func = func(messages []core.Message) (string, error) {
		prompt := messages[len(messages)-1].Content
		switch {
		case strings.Contains(prompt, "profile_dict"):
			return patch, nil
		case strings.Contains(prompt, "History Profile"):
			return conflict, nil
		default:
			return nonConflict, nil
		}
	}
	return gen
}

func TestRefusalSetsRefusedFlag(t *testing.T) {
	ctx := context.Background()

	gen := scriptedLLM("b", "c", `{"Name": "refuse"}`)
	m, _ := newTestMerger(t, gen)

	err := m.Add(ctx, core.UserMessage("I'd rather not tell you my name."), profile.AddOptions{UserID: "alice"})
	if err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	m.Flush()

	p, err := m.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	name := p.Get("Name")
	if !name.Refused {
		t.Errorf("Expected Name.Refused to be true")
	}
	if name.Value != nil {
		t.Errorf("Expected Name.Value nil, got %q", *name.Value)
	}
}

func TestMergeInsertsThenUpdates(t *testing.T) {
	ctx := context.Background()

	gen := scriptedLLM("b", "a", `{"Name": "Alice"}`)
	m, db := newTestMerger(t, gen)

	if err := m.Add(ctx, core.UserMessage("My name is Alice."), profile.AddOptions{UserID: "alice"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	m.Flush()

	if _, found, _ := db.GetProfile(ctx, "alice"); !found {
		t.Fatalf("Expected a profile row after first merge")
	}

	// Second turn updates the existing row in place.
	gen.Func = scriptedLLM("a", "b", `{"Name": "Alicia"}`).Func
	if err := m.Add(ctx, core.UserMessage("Actually, call me Alicia."), profile.AddOptions{UserID: "alice"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	m.Flush()

	p, err := m.GetProfile(ctx, "alice")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if v := p.Get("Name").Value; v == nil || *v != "Alicia" {
		t.Errorf("Name = %v, want Alicia", v)
	}
}

func TestIrrelevantTurnTriggersNoMerge(t *testing.T) {
	ctx := context.Background()

	gen := scriptedLLM("b", "b", `{"Name": "ShouldNeverHappen"}`)
	m, db := newTestMerger(t, gen)

	if err := m.Add(ctx, core.UserMessage("What's the weather like?"), profile.AddOptions{UserID: "alice"}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	m.Flush()

	if _, found, _ := db.GetProfile(ctx, "alice"); found {
		t.Errorf("Irrelevant turn must not create a profile row")
	}
}

func TestClassifierErrorDefaultsToFalse(t *testing.T) {
	ctx := context.Background()

	gen := llmmock.New()
	gen.FailWith(fmt.Errorf("model unavailable"))
	m, db := newTestMerger(t, gen)

	if err := m.Add(ctx, core.UserMessage("My name is Alice."), profile.AddOptions{UserID: "alice"}); err != nil {
		t.Fatalf("Add should not propagate classifier errors: %v", err)
	}
	m.Flush()

	if _, found, _ := db.GetProfile(ctx, "alice"); found {
		t.Errorf("Failed classifiers must not trigger a merge")
	}
}

func TestExactlyOneOwner(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMerger(t, llmmock.New("b"))

	err := m.Add(ctx, core.UserMessage("hi"), profile.AddOptions{})
	if !errors.Is(err, core.ErrMissingScope) {
		t.Errorf("No owner: err = %v, want ErrMissingScope", err)
	}

	err = m.Add(ctx, core.UserMessage("hi"), profile.AddOptions{UserID: "alice", AgentID: "bot"})
	if !errors.Is(err, profile.ErrAmbiguousOwner) {
		t.Errorf("Two owners: err = %v, want ErrAmbiguousOwner", err)
	}
}

func TestGetProfileLazilyEmpty(t *testing.T) {
	ctx := context.Background()
	m, _ := newTestMerger(t, llmmock.New("b"))

	p, err := m.GetProfile(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetProfile failed: %v", err)
	}
	if p == nil {
		t.Fatalf("Expected an empty profile, got nil")
	}
	if d := p.Get("Name"); d == nil || d.Value != nil || d.Refused {
		t.Errorf("Expected empty Name detail, got %+v", d)
	}
}
