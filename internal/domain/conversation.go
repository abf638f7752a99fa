package domain

// Role identifies the author of a conversation turn.
type Role string

const (
	// RoleSystem carries standing instructions.
	RoleSystem Role = "system"
	// RoleUser carries a question from the client.
	RoleUser Role = "user"
	// RoleAssistant carries generated answers. Retrieved context is also
	// injected under this role so the standard three-role chat contract
	// stays usable without a custom context role.
	RoleAssistant Role = "assistant"
)

// Turn is a single message in a session's conversation.
type Turn struct {
	Role    Role
	Content string
}
