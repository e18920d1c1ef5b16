package models

// Event names pushed to connected viewers
const (
	EventMessageCreated   = "message_created"
	EventMessageStatus    = "message_status"
	EventMessageFailed    = "message_failed"
	EventConversationRead = "conversation_read"
)

// Event is a frame written to a viewer's websocket
type Event struct {
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

// StatusChange is the payload of a message_status event
type StatusChange struct {
	ConversationID string         `json:"conversationId"`
	MessageID      string         `json:"messageId"`
	Status         DeliveryStatus `json:"status"`
}

// ConversationRead is the payload of a conversation_read event
type ConversationRead struct {
	ConversationID string `json:"conversationId"`
	UnreadCount    int    `json:"unreadCount"`
}
