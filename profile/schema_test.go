package profile

import "testing"

func TestSetValue(t *testing.T) {
	p := DefaultSchema().NewProfile()

	if !p.SetValue("Name", "Alice") {
		t.Fatalf("Name is a declared key")
	}
	d := p.Get("Name")
	if d.Value == nil || *d.Value != "Alice" {
		t.Errorf("Name value = %v, want Alice", d.Value)
	}

	// Replacement is outright, not a merge.
	p.SetValue("Name", "Alicia")
	if *p.Get("Name").Value != "Alicia" {
		t.Errorf("Name value = %q, want Alicia", *p.Get("Name").Value)
	}
}

func TestSetValueRefuse(t *testing.T) {
	p := DefaultSchema().NewProfile()
	p.SetValue("Name", "Alice")
	p.SetValue("Name", "refuse")

	d := p.Get("Name")
	if !d.Refused {
		t.Errorf("Expected Refused to be set")
	}
	if d.Value != nil {
		t.Errorf("Refused attribute should have nil value, got %q", *d.Value)
	}

	// A later real value clears the refusal.
	p.SetValue("Name", "Alice")
	d = p.Get("Name")
	if d.Refused || d.Value == nil || *d.Value != "Alice" {
		t.Errorf("Expected refusal cleared, got %+v", d)
	}
}

func TestUnknownKeyDropped(t *testing.T) {
	p := DefaultSchema().NewProfile()
	if p.SetValue("Shoe Size", "42") {
		t.Errorf("Undeclared key must be dropped")
	}
	if p.Get("Shoe Size") != nil {
		t.Errorf("Undeclared key must not be persisted")
	}
}

func TestProfileRoundTrip(t *testing.T) {
	schema := DefaultSchema()
	p := schema.NewProfile()
	p.SetValue("Name", "Alice")
	p.SetValue("Hobby", "tennis, chess")
	p.SetValue("Age", "refuse")

	raw, err := p.JSON()
	if err != nil {
		t.Fatalf("JSON failed: %v", err)
	}

	restored, err := schema.ParseProfile(raw)
	if err != nil {
		t.Fatalf("ParseProfile failed: %v", err)
	}
	if v := restored.Get("Name").Value; v == nil || *v != "Alice" {
		t.Errorf("Name = %v, want Alice", v)
	}
	if v := restored.Get("Hobby").Value; v == nil || *v != "tennis, chess" {
		t.Errorf("Hobby = %v, want tennis, chess", v)
	}
	if !restored.Get("Age").Refused {
		t.Errorf("Age refusal lost in round-trip")
	}
}

func TestParseProfileDropsUnknownKeys(t *testing.T) {
	schema := DefaultSchema()
	raw := `{"basic": {"Name": {"value": "Alice"}, "Shoe Size": {"value": "42"}}}`

	p, err := schema.ParseProfile(raw)
	if err != nil {
		t.Fatalf("ParseProfile failed: %v", err)
	}
	if v := p.Get("Name").Value; v == nil || *v != "Alice" {
		t.Errorf("Name = %v, want Alice", v)
	}
	if p.Get("Shoe Size") != nil {
		t.Errorf("Unknown key survived parsing")
	}
}

func TestKnownValues(t *testing.T) {
	p := DefaultSchema().NewProfile()
	p.SetValue("Name", "Alice")
	p.SetValue("Age", "refuse")

	known := p.KnownValues()
	if len(known) != 1 {
		t.Fatalf("Expected 1 known value, got %d: %v", len(known), known)
	}
	if known["Name"]["value"] != "Alice" {
		t.Errorf("KnownValues = %v", known)
	}
}
