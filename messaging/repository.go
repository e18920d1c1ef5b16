package messaging

import (
	"context"
	"time"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// Repository is the storage collaborator sessions load from and write through to
type Repository interface {
	// LoadConversations returns the viewer's conversations with their messages in order
	LoadConversations(ctx context.Context, viewer models.Viewer) ([]models.Conversation, error)
	SaveMessage(ctx context.Context, msg models.Message) error
	// UpdateStatus moves a message from one status to the next. It reports
	// false when the stored message was not in the expected status.
	UpdateStatus(ctx context.Context, messageID string, from, to models.DeliveryStatus) (bool, error)
	ResetUnread(ctx context.Context, conversationID string, role models.Role) error
	IncrementUnread(ctx context.Context, conversationID string, role models.Role) error
	// StalledMessages returns messages sent before the cutoff that have not been read
	StalledMessages(ctx context.Context, before time.Time) ([]models.Message, error)
}

// Publisher pushes events to a connected viewer
type Publisher interface {
	Publish(viewerID string, evt models.Event)
}

// NopPublisher drops every event
type NopPublisher struct{}

// Publish implements Publisher
func (NopPublisher) Publish(string, models.Event) {}
