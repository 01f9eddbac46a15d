package llm

import (
	"encoding/json"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

// UnmarshalJSON parses model output into v, tolerating the junk models
// wrap JSON in: markdown fences, leading prose, trailing commas. A
// strict parse is attempted first; on failure the payload is run
// through jsonrepair and parsed again.
func UnmarshalJSON(response string, v interface{}) error {
	payload := stripFences(response)
	if err := json.Unmarshal([]byte(payload), v); err == nil {
		return nil
	}
	repaired, err := jsonrepair.JSONRepair(payload)
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(repaired), v)
}

// stripFences removes a surrounding markdown code fence when present.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
