// Package profile maintains a structured per-owner attribute store:
// three fixed categories of typed attributes, a pair of conflict
// classifiers deciding whether a conversation turn should touch the
// profile, and an incremental model-driven merge applied with
// read-modify-write semantics.
package profile

import (
	"encoding/json"
	"fmt"
)

// refusedValue is the sentinel the extraction prompt uses when the
// user declines to share an attribute.
const refusedValue = "refuse"

// Field declares one profile attribute and the description shown to
// the model during extraction.
type Field struct {
	Key         string
	Description string
}

// Schema declares which attributes a profile may hold, grouped into
// the three fixed categories. Keys outside the schema are dropped from
// model-generated merge patches.
type Schema struct {
	Basic    []Field
	WorkLife []Field
	Domain   []Field
}

// DefaultSchema covers general personal, work-life and investment
// attributes.
func DefaultSchema() *Schema {
	return &Schema{
		Basic: []Field{
			{"Name", "The user's name or preferred form of address."},
			{"Age", "The user's age or age range."},
			{"Gender", "The user's gender."},
			{"Nationality", "The user's nationality or place of birth."},
			{"Language", "Languages the user speaks."},
			{"Resident", "Where the user currently lives."},
			{"Profession Background", "The user's job title or professional role."},
			{"Education Background", "The user's education history."},
			{"Family Status", "The user's marital and family situation."},
			{"Hobby", "Activities the user enjoys; can hold multiple values."},
			{"Personality", "Traits describing how the user behaves and communicates."},
			{"Pets", "Pets the user keeps."},
		},
		WorkLife: []Field{
			{"Current Project and Responsibility", "What the user is working on now."},
			{"Life Goal and Aspiration", "Long-term goals the user wants to reach."},
			{"Long-term Career Vision", "Where the user wants their career to go."},
			{"Personal Interest", "Topics the user cares about; can hold multiple values."},
			{"Values and Ethics", "Principles the user holds."},
			{"Work Life Balance", "How the user balances work and personal life."},
			{"Achievements", "Accomplishments the user is proud of."},
			{"Challenges and Solutions", "Difficulties the user faces and how they handle them."},
		},
		Domain: []Field{
			{"Investment Goal", "What the user wants from investing; can hold multiple values."},
			{"Type of Investor", "The user's investing style or self-description."},
			{"Year of Investment Experience/Level", "How long or at what level the user has invested."},
			{"Asset Allocation", "How the user distributes their assets."},
			{"Income and Expense", "The user's income and spending situation."},
			{"Risk/Loss Tolerance", "How much risk or loss the user accepts, as a descriptive phrase."},
			{"Financial Planning/Investment Strategy", "The user's overall financial approach."},
			{"Current Investment Status", "What the user currently holds or is doing in the market."},
		},
	}
}

// Keys returns every declared attribute key across the categories.
func (s *Schema) Keys() []string {
	keys := make([]string, 0, len(s.Basic)+len(s.WorkLife)+len(s.Domain))
	for _, group := range [][]Field{s.Basic, s.WorkLife, s.Domain} {
		for _, f := range group {
			keys = append(keys, f.Key)
		}
	}
	return keys
}

// Descriptions renders "**key**: description" lines for the extraction
// prompt.
func (s *Schema) Descriptions() []string {
	var lines []string
	for _, group := range [][]Field{s.Basic, s.WorkLife, s.Domain} {
		for _, f := range group {
			lines = append(lines, fmt.Sprintf("**%s**: %s", f.Key, f.Description))
		}
	}
	return lines
}

// Detail is one attribute's state: an optional value plus whether the
// user explicitly refused to share it.
type Detail struct {
	Value   *string `json:"value"`
	Refused bool    `json:"refused,omitempty"`
}

// Profile is one owner's attribute record, keyed by category. All
// schema keys are present; undeclared keys never are.
type Profile struct {
	Basic    map[string]*Detail `json:"basic"`
	WorkLife map[string]*Detail `json:"work_life"`
	Domain   map[string]*Detail `json:"domain"`

	schema *Schema
}

// NewProfile builds an empty profile with every schema key declared.
func (s *Schema) NewProfile() *Profile {
	p := &Profile{
		Basic:    make(map[string]*Detail, len(s.Basic)),
		WorkLife: make(map[string]*Detail, len(s.WorkLife)),
		Domain:   make(map[string]*Detail, len(s.Domain)),
		schema:   s,
	}
	for _, f := range s.Basic {
		p.Basic[f.Key] = &Detail{}
	}
	for _, f := range s.WorkLife {
		p.WorkLife[f.Key] = &Detail{}
	}
	for _, f := range s.Domain {
		p.Domain[f.Key] = &Detail{}
	}
	return p
}

// ParseProfile rebuilds a profile from its stored JSON row. Keys not
// declared in the schema are dropped; keys missing from the row are
// restored empty.
func (s *Schema) ParseProfile(raw string) (*Profile, error) {
	var stored Profile
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("parse profile row: %w", err)
	}
	p := s.NewProfile()
	copyKnown := func(dst, src map[string]*Detail) {
		for key := range dst {
			if d, ok := src[key]; ok && d != nil {
				dst[key] = d
			}
		}
	}
	copyKnown(p.Basic, stored.Basic)
	copyKnown(p.WorkLife, stored.WorkLife)
	copyKnown(p.Domain, stored.Domain)
	return p, nil
}

// JSON serializes the profile for its database row.
func (p *Profile) JSON() (string, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return "", fmt.Errorf("marshal profile: %w", err)
	}
	return string(data), nil
}

// Get returns the detail for a declared key, or nil for unknown keys.
func (p *Profile) Get(key string) *Detail {
	for _, category := range []map[string]*Detail{p.Basic, p.WorkLife, p.Domain} {
		if d, ok := category[key]; ok {
			return d
		}
	}
	return nil
}

// SetValue applies one merge-patch entry. The value "refuse" marks the
// attribute as refused and clears it; any other string replaces the
// value outright. Unknown keys are dropped and reported false.
func (p *Profile) SetValue(key, value string) bool {
	d := p.Get(key)
	if d == nil {
		return false
	}
	if value == refusedValue {
		d.Refused = true
		d.Value = nil
		return true
	}
	v := value
	d.Value = &v
	d.Refused = false
	return true
}

// KnownValues returns the attributes that currently hold a value, in
// the {"key": {"value": ...}} shape the prompts interpolate.
func (p *Profile) KnownValues() map[string]map[string]string {
	out := make(map[string]map[string]string)
	for _, category := range []map[string]*Detail{p.Basic, p.WorkLife, p.Domain} {
		for key, d := range category {
			if d.Value == nil || *d.Value == "" || *d.Value == "None" {
				continue
			}
			out[key] = map[string]string{"value": *d.Value}
		}
	}
	return out
}
