package chat

// Role identifies the author of one conversational turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one immutable conversational turn. Ordering across a history is
// significant; it is turn order, never sorted by any other key.
type Message struct {
	Role    Role
	Content string
}
