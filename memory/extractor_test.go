package memory

import (
	"reflect"
	"testing"

	"github.com/feb-co/mem0-avater/core"
)

func TestParseObservations(t *testing.T) {
	tests := []struct {
		name     string
		response string
		want     []string
	}{
		{
			name:     "none line yields nothing",
			response: "Information: <1> <> <None> <>",
			want:     nil,
		},
		{
			name:     "informative line yields third group",
			response: "Information: <2> <> <Works at Acme> <Acme, work>",
			want:     []string{"Works at Acme"},
		},
		{
			name:     "repeat line yields nothing",
			response: "Information: <3> <> <Repeat> <>",
			want:     nil,
		},
		{
			name: "mixed block with thoughts",
			response: `Thought: The first sentence mentions employment.
Information: <1> <> <Works at Acme> <Acme, work>
Thought: Nothing in the second.
Information: <2> <> <None> <>
Information: <3> <> <Has two cats> <cats, pets>`,
			want: []string{"Works at Acme", "Has two cats"},
		},
		{
			name:     "malformed line with fewer than three groups",
			response: "Information: <1> <only two>",
			want:     nil,
		},
		{
			name:     "empty response",
			response: "",
			want:     nil,
		},
		{
			name: "overproduced lines are all parsed",
			response: `Information: <1> <> <Fact one> <a>
Information: <2> <> <Fact two> <b>
Information: <3> <> <Fact three> <c>
Information: <4> <> <Fact four> <d>
Information: <5> <> <Fact five> <e>
Information: <6> <> <Fact six> <f>`,
			want: []string{"Fact one", "Fact two", "Fact three", "Fact four", "Fact five", "Fact six"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := parseObservations(tt.response)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("parseObservations() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestParseMessages(t *testing.T) {
	messages := []core.Message{
		{Role: core.RoleSystem, Content: "be helpful"},
		{Role: core.RoleUser, Content: "hi"},
		{Role: core.RoleAssistant, Content: "hello"},
	}
	want := "system: be helpful\nuser: hi\nassistant: hello\n"
	if got := parseMessages(messages); got != want {
		t.Errorf("parseMessages() = %q, want %q", got, want)
	}

	wantUser := "user: hi\n"
	if got := parseUserMessages(messages); got != wantUser {
		t.Errorf("parseUserMessages() = %q, want %q", got, wantUser)
	}
}

func TestSplitSessions(t *testing.T) {
	messages := []core.Message{
		{Role: core.RoleUser, Content: "first question"},
		{Role: core.RoleAssistant, Content: "first answer"},
		{Role: core.RoleUser, Content: "second question"},
	}
	got := splitSessions(messages)
	want := []string{
		"user: first question\nassistant: first answer",
		"user: second question",
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("splitSessions() = %v, want %v", got, want)
	}
}
