package messaging

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// Manager owns the live session of every connected viewer and hands
// messages from a sender's session to the counterpart's.
type Manager struct {
	opts Options

	mu       sync.Mutex
	sessions map[string]*Session
}

// NewManager creates a manager whose sessions share opts
func NewManager(opts Options) *Manager {
	return &Manager{
		opts:     opts.withDefaults(),
		sessions: make(map[string]*Session),
	}
}

// Open returns the viewer's live session, loading their conversations from
// the repository the first time.
func (m *Manager) Open(ctx context.Context, viewer models.Viewer) (*Session, error) {
	if s, ok := m.Session(viewer.ID); ok {
		return s, nil
	}

	var convs []models.Conversation
	if m.opts.Repository != nil {
		var err error
		convs, err = m.opts.Repository.LoadConversations(ctx, viewer)
		if err != nil {
			return nil, err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[viewer.ID]; ok {
		// opened concurrently while we were loading
		return s, nil
	}
	s := NewSession(viewer, convs, m.opts)
	s.onSent = m.route
	m.sessions[viewer.ID] = s
	activeSessions.Set(float64(len(m.sessions)))
	zap.S().Infow("session opened",
		"viewer", viewer.ID,
		"role", viewer.Role,
		"conversations", len(convs),
	)
	return s, nil
}

// Session returns the live session of a viewer
func (m *Manager) Session(viewerID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[viewerID]
	return s, ok
}

// route hands a stored message to the counterpart. A live session raises its
// own stored unread count; without one it is raised here.
func (m *Manager) route(from *Session, conv models.Conversation, msg models.Message) {
	if to, ok := m.Session(conv.Counterpart.ID); ok {
		if _, err := to.Receive(msg); err == nil {
			return
		}
		zap.S().Warnw("counterpart session has no such conversation",
			"conversationId", msg.ConversationID,
			"viewer", conv.Counterpart.ID,
		)
	}
	if m.opts.Repository == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), m.opts.PersistTimeout)
	defer cancel()
	if err := m.opts.Repository.IncrementUnread(ctx, msg.ConversationID, from.viewer.Role.Counterpart()); err != nil {
		zap.S().Errorw("failed to raise unread count",
			"error", err,
			"conversationId", msg.ConversationID,
		)
	}
}

// owner finds the live session holding a message written by role
func (m *Manager) owner(role models.Role, conversationID string) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.viewer.Role != role {
			continue
		}
		if _, ok := s.store.Get(conversationID); ok {
			return s, true
		}
	}
	return nil, false
}

// RecoverStalled finishes the acknowledgement of messages sent before the
// cutoff that never reached read, e.g. because the process restarted while
// their timers were pending. Messages with a pending task are left alone.
// It returns the number of messages advanced.
func (m *Manager) RecoverStalled(ctx context.Context, before time.Time) (int, error) {
	if m.opts.Repository == nil {
		return 0, nil
	}
	stalled, err := m.opts.Repository.StalledMessages(ctx, before)
	if err != nil {
		return 0, err
	}

	advanced := 0
	for _, msg := range stalled {
		if err := ctx.Err(); err != nil {
			return advanced, err
		}
		if s, ok := m.owner(msg.SenderRole, msg.ConversationID); ok {
			if s.tracker.Pending(msg.ID) {
				continue
			}
			if s.finish(msg.ConversationID, msg.ID) {
				advanced++
			}
			continue
		}
		if m.finishStored(ctx, msg) {
			advanced++
		}
	}
	if advanced > 0 {
		zap.S().Infow("recovered stalled messages", "count", advanced, "before", before)
	}
	return advanced, nil
}

// finish walks a live message to read one guarded step at a time
func (s *Session) finish(conversationID, messageID string) bool {
	moved := false
	for {
		conv, ok := s.store.Get(conversationID)
		if !ok {
			return moved
		}
		i := conv.Index(messageID)
		if i < 0 {
			return moved
		}
		from := conv.Messages[i].Status
		to, ok := from.Next()
		if !ok || !s.applyStatus(conversationID, messageID, from, to) {
			return moved
		}
		moved = true
	}
}

// finishStored walks a message nobody has loaded to read in storage only
func (m *Manager) finishStored(ctx context.Context, msg models.Message) bool {
	moved := false
	from := msg.Status
	for {
		to, ok := from.Next()
		if !ok {
			return moved
		}
		applied, err := m.opts.Repository.UpdateStatus(ctx, msg.ID, from, to)
		if err != nil {
			zap.S().Errorw("failed to recover message status", "error", err, "messageId", msg.ID)
			return moved
		}
		if !applied {
			return moved
		}
		statusTransitions.WithLabelValues(string(to)).Inc()
		moved = true
		from = to
	}
}

// Shutdown stops the delivery trackers of every session
func (m *Manager) Shutdown() {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, s := range m.sessions {
		s.tracker.Stop()
		delete(m.sessions, id)
	}
	activeSessions.Set(0)
}
