package models

// ConversationSummary is one row of the directory
type ConversationSummary struct {
	ID          string      `json:"id"`
	Counterpart Counterpart `json:"counterpart"`
	Secondary   string      `json:"secondary"`
	Online      bool        `json:"online"`
	UnreadCount int         `json:"unreadCount"`
	Secure      bool        `json:"secure"`
	LastMessage *Message    `json:"lastMessage,omitempty"`
}

// Summarize builds the directory row for a conversation
func Summarize(c Conversation) ConversationSummary {
	s := ConversationSummary{
		ID:          c.ID,
		Counterpart: c.Counterpart,
		Secondary:   c.Counterpart.Secondary(),
		Online:      c.Online,
		UnreadCount: c.UnreadCount,
		Secure:      c.Secure,
	}
	if last, ok := c.LastMessage(); ok {
		s.LastMessage = &last
	}
	return s
}

// DirectoryResponse is returned by the conversation list endpoint
type DirectoryResponse struct {
	Conversations []ConversationSummary `json:"conversations"`
	Query         string                `json:"query,omitempty"`
}

// AttachmentRequest describes a file chosen by the sender
type AttachmentRequest struct {
	Kind        AttachmentKind `json:"kind"`
	DisplayName string         `json:"displayName"`
	SizeBytes   uint64         `json:"sizeBytes"`
}

// SendMessageRequest is the body of the send endpoint
type SendMessageRequest struct {
	Text       string             `json:"text"`
	Attachment *AttachmentRequest `json:"attachment,omitempty"`
}

// DraftRequest is the body of the draft endpoint
type DraftRequest struct {
	Text string `json:"text"`
}
