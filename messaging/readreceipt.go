package messaging

import (
	"context"

	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// OnConversationOpened acknowledges a conversation the viewer just opened.
// The unread count drops to zero and counterpart messages are shown as read.
// Opening an already acknowledged conversation changes nothing.
func (s *Session) OnConversationOpened(conversationID string) (models.Conversation, error) {
	s.mu.Lock()
	conv, ack := s.markOpened(conversationID)
	s.mu.Unlock()
	if ack == nil {
		return models.Conversation{}, ErrConversationNotFound
	}
	return s.acknowledged(conv, ack), nil
}

// openAck describes what opening a conversation changed
type openAck struct {
	changed bool
	ids     []string
}

// markOpened clears the unread state in the store. The caller holds s.mu.
// A nil ack means the conversation does not exist.
func (s *Session) markOpened(conversationID string) (models.Conversation, *openAck) {
	ack := &openAck{}
	conv, changed := s.store.Update(conversationID, func(c models.Conversation) (models.Conversation, bool) {
		before := c.UnreadCount
		next, ids := c.MarkRead()
		ack.ids = ids
		return next, before != 0 || len(ids) > 0
	})
	if changed {
		ack.changed = true
		return conv, ack
	}
	c, ok := s.store.Get(conversationID)
	if !ok {
		return models.Conversation{}, nil
	}
	return c, ack
}

// acknowledged persists the reset and tells the viewer's other devices.
// It runs after the session lock is released.
func (s *Session) acknowledged(conv models.Conversation, ack *openAck) models.Conversation {
	if !ack.changed {
		return conv
	}
	if s.opts.Repository != nil {
		role := s.viewer.Role
		s.opts.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
			defer cancel()
			if err := s.opts.Repository.ResetUnread(ctx, conv.ID, role); err != nil {
				zap.S().Errorw("failed to reset unread count",
					"error", err,
					"conversationId", conv.ID,
					"role", role,
				)
			}
		})
	}
	zap.S().Debugw("conversation opened",
		"conversationId", conv.ID,
		"viewer", s.viewer.ID,
		"acknowledged", len(ack.ids),
	)
	s.publish(models.EventConversationRead, models.ConversationRead{ConversationID: conv.ID, UnreadCount: 0})
	return conv
}
