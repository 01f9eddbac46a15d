package core

// Message is a single turn in a conversation.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Conversation roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// UserMessage wraps raw text as a single-turn user conversation.
func UserMessage(text string) []Message {
	return []Message{{Role: RoleUser, Content: text}}
}
