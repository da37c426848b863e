package relay

// Role identifies the speaker of a Turn.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Turn represents a single message in a conversation.
type Turn struct {
	Role    Role   `json:"role"`    // "system", "user" or "assistant"
	Content string `json:"content"` // Message content
}

// NewTurn creates a turn with the given role and content.
func NewTurn(role Role, content string) Turn {
	return Turn{Role: role, Content: content}
}

// Valid reports whether the role is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	}
	return false
}
