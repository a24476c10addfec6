package model

// ChatRole is the author of a chat message
type ChatRole string

const (
	ChatRoleUser  ChatRole = "user"
	ChatRoleModel ChatRole = "model"
)

// ChatMessage is one turn of a chat session
type ChatMessage struct {
	Role ChatRole `json:"role"`
	Text string   `json:"text"`
}

const (
	// ChatGreeting opens every new chat session
	ChatGreeting = "Hello! I'm your PlantOps Orchestrator. How can I help your garden grow today?"

	// ChatFallbackNotice replaces a reply the engine failed to produce
	ChatFallbackNotice = "I'm sorry, I encountered an error connecting to my botanical database."
)
