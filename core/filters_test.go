package core

import (
	"errors"
	"testing"
)

func TestOwnerScope(t *testing.T) {
	f := OwnerScope("alice", "", "run7")
	if f[FilterUserID] != "alice" || f[FilterRunID] != "run7" {
		t.Errorf("Unexpected filters: %v", f)
	}
	if _, ok := f[FilterAgentID]; ok {
		t.Errorf("Empty agent_id should be skipped")
	}
}

func TestValidate(t *testing.T) {
	if err := (Filters{}).Validate(); !errors.Is(err, ErrMissingScope) {
		t.Errorf("Empty filters: err = %v, want ErrMissingScope", err)
	}
	if err := (Filters{"category": "sports"}).Validate(); !errors.Is(err, ErrMissingScope) {
		t.Errorf("Non-scope filters: err = %v, want ErrMissingScope", err)
	}
	if err := (Filters{FilterUserID: "alice"}).Validate(); err != nil {
		t.Errorf("Scoped filters should validate, got %v", err)
	}
}

func TestMatches(t *testing.T) {
	f := Filters{FilterUserID: "alice"}
	if !f.Matches(map[string]interface{}{"user_id": "alice", "data": "x"}) {
		t.Errorf("Expected match")
	}
	if f.Matches(map[string]interface{}{"user_id": "bob"}) {
		t.Errorf("Different owner must not match")
	}
	if f.Matches(map[string]interface{}{"data": "x"}) {
		t.Errorf("Missing owner key must not match")
	}
}
