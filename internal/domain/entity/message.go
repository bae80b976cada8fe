package entity

type MessageRole string

const (
	RoleSystem    MessageRole = "system"
	RoleUser      MessageRole = "user"
	RoleAssistant MessageRole = "assistant"
)

// Message is one entry of the chat transcript sent to the model.
// Name carries few-shot example attribution (example_user /
// example_assistant) on preamble system messages. Turn is the loop
// iteration the message belongs to, -1 for preamble messages.
type Message struct {
	Role    MessageRole
	Content string
	Name    string
	Turn    int
}
