package domain

type ChatRole string

const (
	RoleUser      ChatRole = "user"
	RoleAssistant ChatRole = "assistant"
)

// ChatErrorText is shown in the thread when the chat service fails.
const ChatErrorText = "Error occurred. Please try again."

type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

// ChatThread is append-only for the lifetime of an open chat overlay.
type ChatThread struct {
	messages []ChatMessage
}

func (t *ChatThread) Append(role ChatRole, text string) {
	t.messages = append(t.messages, ChatMessage{Role: role, Text: text})
}

func (t *ChatThread) Messages() []ChatMessage {
	return append([]ChatMessage(nil), t.messages...)
}

func (t *ChatThread) Len() int {
	return len(t.messages)
}

func (t *ChatThread) Reset() {
	t.messages = nil
}
