package llm

import "testing"

func TestUnmarshalJSON(t *testing.T) {
	type facts struct {
		Facts []string `json:"facts"`
	}

	tests := []struct {
		name     string
		response string
		want     int
		wantErr  bool
	}{
		{
			name:     "clean object",
			response: `{"facts": ["a", "b"]}`,
			want:     2,
		},
		{
			name:     "markdown fenced",
			response: "```json\n{\"facts\": [\"a\"]}\n```",
			want:     1,
		},
		{
			name:     "trailing comma repaired",
			response: `{"facts": ["a", "b",]}`,
			want:     2,
		},
		{
			name:     "single quotes repaired",
			response: `{'facts': ['a']}`,
			want:     1,
		},
		{
			name:     "not json at all",
			response: `I'm sorry, I can't help with that.`,
			wantErr:  true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got facts
			err := UnmarshalJSON(tt.response, &got)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Expected an error, got facts=%v", got.Facts)
				}
				return
			}
			if err != nil {
				t.Fatalf("UnmarshalJSON failed: %v", err)
			}
			if len(got.Facts) != tt.want {
				t.Errorf("Got %d facts, want %d", len(got.Facts), tt.want)
			}
		})
	}
}
