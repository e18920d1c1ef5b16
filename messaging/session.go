package messaging

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// Options configures sessions created by a Manager
type Options struct {
	Repository     Repository
	Publisher      Publisher
	Scheduler      Scheduler
	Now            func() time.Time
	DeliveredAfter time.Duration
	ReadAfter      time.Duration
	DividerGap     time.Duration
	// PersistTimeout bounds every repository write made in the background
	PersistTimeout time.Duration
	// Go runs background work; defaults to a new goroutine
	Go func(func())
	// PreselectFirst opens the most recent conversation when a session starts
	PreselectFirst bool
}

func (o Options) withDefaults() Options {
	if o.Publisher == nil {
		o.Publisher = NopPublisher{}
	}
	if o.Scheduler == nil {
		o.Scheduler = ClockScheduler()
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	if o.DeliveredAfter <= 0 {
		o.DeliveredAfter = time.Second
	}
	if o.ReadAfter <= 0 {
		o.ReadAfter = 1500 * time.Millisecond
	}
	if o.DividerGap <= 0 {
		o.DividerGap = DefaultDividerGap
	}
	if o.PersistTimeout <= 0 {
		o.PersistTimeout = 10 * time.Second
	}
	if o.Go == nil {
		o.Go = func(f func()) { go f() }
	}
	return o
}

// SentHook is called after a message has been stored
type SentHook func(from *Session, conv models.Conversation, msg models.Message)

// Session is one viewer's view of their conversations. It is the only writer
// of its store.
type Session struct {
	viewer  models.Viewer
	opts    Options
	store   *Store
	tracker *DeliveryTracker
	onSent  SentHook

	mu           sync.Mutex // guards active, drafts and unreadAtOpen
	active       string
	drafts       map[string]string
	unreadAtOpen map[string]int
}

// NewSession creates a session over already loaded conversations
func NewSession(viewer models.Viewer, convs []models.Conversation, opts Options) *Session {
	opts = opts.withDefaults()
	s := &Session{
		viewer:       viewer,
		opts:         opts,
		store:        NewStore(convs),
		drafts:       make(map[string]string),
		unreadAtOpen: make(map[string]int),
	}
	s.tracker = NewDeliveryTracker(opts.Scheduler, opts.DeliveredAfter, opts.ReadAfter, s.applyStatus)
	if opts.PreselectFirst {
		if list := s.ListConversations(); len(list) > 0 {
			_, _ = s.Select(list[0].ID)
		}
	}
	return s
}

// Viewer returns the session owner
func (s *Session) Viewer() models.Viewer {
	return s.viewer
}

// Tracker exposes the delivery tracker for the session's own messages
func (s *Session) Tracker() *DeliveryTracker {
	return s.tracker
}

// ListConversations returns the directory sorted by recency
func (s *Session) ListConversations() []models.Conversation {
	return SortByRecency(s.store.All())
}

// Search returns the sorted directory filtered by query
func (s *Session) Search(query string) []models.Conversation {
	return Filter(s.ListConversations(), query)
}

// Conversation returns one conversation by id
func (s *Session) Conversation(id string) (models.Conversation, error) {
	c, ok := s.store.Get(id)
	if !ok {
		return models.Conversation{}, ErrConversationNotFound
	}
	return c, nil
}

// Active returns the active conversation, if one is selected
func (s *Session) Active() (models.Conversation, bool) {
	s.mu.Lock()
	id := s.active
	s.mu.Unlock()
	if id == "" {
		return models.Conversation{}, false
	}
	return s.store.Get(id)
}

// Select makes a conversation the active one and acknowledges it. Choosing
// the conversation and clearing its unread count happen under the session
// lock, so an inbound message lands either before (and is read) or after
// (and sees the conversation active).
func (s *Session) Select(id string) (models.Conversation, error) {
	s.mu.Lock()
	c, ok := s.store.Get(id)
	if !ok {
		s.mu.Unlock()
		return models.Conversation{}, ErrConversationNotFound
	}
	s.active = id
	s.unreadAtOpen[id] = c.UnreadCount
	conv, ack := s.markOpened(id)
	s.mu.Unlock()
	return s.acknowledged(conv, ack), nil
}

// SetDraft stores the compose text for a conversation
func (s *Session) SetDraft(conversationID, text string) error {
	if _, ok := s.store.Get(conversationID); !ok {
		return ErrConversationNotFound
	}
	s.mu.Lock()
	s.drafts[conversationID] = text
	s.mu.Unlock()
	return nil
}

// Draft returns the compose text for a conversation
func (s *Session) Draft(conversationID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.drafts[conversationID]
}

// SendDraft sends the stored compose text
func (s *Session) SendDraft(conversationID string) (models.Message, error) {
	return s.Send(conversationID, s.Draft(conversationID))
}

// Send composes a text message from the viewer
func (s *Session) Send(conversationID, text string) (models.Message, error) {
	return s.SendWithAttachment(conversationID, text, nil)
}

// SendWithAttachment composes a message from the viewer. Blank text is
// rejected even when an attachment is present; nothing changes in that case.
// Storage happens in the background and never blocks the caller.
func (s *Session) SendWithAttachment(conversationID, text string, att *models.Attachment) (models.Message, error) {
	if _, ok := s.store.Get(conversationID); !ok {
		return models.Message{}, ErrConversationNotFound
	}
	msg, err := models.NewMessage(conversationID, s.viewer.Role, text, att, s.opts.Now())
	if err != nil {
		return models.Message{}, err
	}
	if msg.Text == "" {
		return models.Message{}, ErrEmptyMessage
	}

	s.mu.Lock()
	active := s.active == conversationID
	s.mu.Unlock()
	conv, _ := s.store.Update(conversationID, func(c models.Conversation) (models.Conversation, bool) {
		return c.Append(msg, active), true
	})
	msg = conv.Messages[len(conv.Messages)-1]

	s.mu.Lock()
	delete(s.drafts, conversationID)
	s.mu.Unlock()

	messagesSent.WithLabelValues(string(s.viewer.Role)).Inc()
	s.publish(models.EventMessageCreated, msg)
	s.opts.Go(func() { s.persist(conv, msg) })
	return msg, nil
}

// Retry stores a failed message again. The failed flag is cleared before
// storage is attempted, so a second retry of the same message gets
// ErrNotFailed instead of storing and routing it twice.
func (s *Session) Retry(messageID string) (models.Message, error) {
	convID, ok := s.store.ConversationOf(messageID)
	if !ok {
		return models.Message{}, ErrMessageNotFound
	}
	conv, claimed := s.store.Update(convID, func(c models.Conversation) (models.Conversation, bool) {
		i := c.Index(messageID)
		if i < 0 || !c.Messages[i].Failed {
			return c, false
		}
		return c.WithFailed(messageID, false)
	})
	i := conv.Index(messageID)
	if i < 0 {
		return models.Message{}, ErrMessageNotFound
	}
	msg := conv.Messages[i]
	if !claimed {
		return msg, ErrNotFailed
	}
	s.opts.Go(func() { s.persist(conv, msg) })
	return msg, nil
}

// persist writes a new message through to the repository, then starts the
// delivery sequence and hands it to the counterpart.
func (s *Session) persist(conv models.Conversation, msg models.Message) {
	if s.opts.Repository != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		err := s.opts.Repository.SaveMessage(ctx, msg)
		cancel()
		if err != nil {
			sendFailures.Inc()
			zap.S().Errorw("failed to store message",
				"error", err,
				"conversationId", msg.ConversationID,
				"messageId", msg.ID,
			)
			if c, ok := s.store.Update(msg.ConversationID, func(c models.Conversation) (models.Conversation, bool) {
				return c.WithFailed(msg.ID, true)
			}); ok {
				msg = c.Messages[c.Index(msg.ID)]
			} else {
				msg.Failed = true
			}
			s.publish(models.EventMessageFailed, msg)
			return
		}
	}
	s.tracker.Track(msg.ConversationID, msg.ID)
	if s.onSent != nil {
		s.onSent(s, conv, msg)
	}
}

// Receive appends a message written by the counterpart. It reports whether
// the conversation was active, in which case the message is read at once.
// Otherwise the stored unread count is raised before the session lock is
// released, so a Select that follows resets it afterwards.
func (s *Session) Receive(msg models.Message) (bool, error) {
	s.mu.Lock()
	active := s.active == msg.ConversationID

	conv, ok := s.store.Update(msg.ConversationID, func(c models.Conversation) (models.Conversation, bool) {
		if c.Index(msg.ID) >= 0 {
			return c, false
		}
		next := c.Append(msg, active)
		if active {
			next, _ = next.MarkRead()
		}
		return next, true
	})
	if !ok {
		_, exists := s.store.Get(msg.ConversationID)
		s.mu.Unlock()
		if !exists {
			return false, ErrConversationNotFound
		}
		return active, nil
	}
	if !active && s.opts.Repository != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		if err := s.opts.Repository.IncrementUnread(ctx, msg.ConversationID, s.viewer.Role); err != nil {
			zap.S().Errorw("failed to raise unread count",
				"error", err,
				"conversationId", msg.ConversationID,
			)
		}
		cancel()
	}
	s.mu.Unlock()

	s.publish(models.EventMessageCreated, conv.Messages[len(conv.Messages)-1])
	return active, nil
}

// applyStatus is the guarded transition used by the delivery tracker
func (s *Session) applyStatus(conversationID, messageID string, from, to models.DeliveryStatus) bool {
	if err := CanAdvance(from, to).Error(); err != nil {
		zap.S().Warnw("rejected status transition", "messageId", messageID, "error", err)
		return false
	}
	if _, ok := s.store.Update(conversationID, func(c models.Conversation) (models.Conversation, bool) {
		return c.WithStatus(messageID, from, to)
	}); !ok {
		zap.S().Debugw("dropped stale status transition",
			"conversationId", conversationID,
			"messageId", messageID,
			"to", to,
		)
		return false
	}
	statusTransitions.WithLabelValues(string(to)).Inc()

	if s.opts.Repository != nil {
		ctx, cancel := context.WithTimeout(context.Background(), s.opts.PersistTimeout)
		if _, err := s.opts.Repository.UpdateStatus(ctx, messageID, from, to); err != nil {
			zap.S().Errorw("failed to store status", "error", err, "messageId", messageID, "status", to)
		}
		cancel()
	}
	s.publish(models.EventMessageStatus, models.StatusChange{
		ConversationID: conversationID,
		MessageID:      messageID,
		Status:         to,
	})
	return true
}

// ActiveThread returns the rendering plan for the active conversation, or the
// empty-state plan when none is selected
func (s *Session) ActiveThread() Thread {
	c, ok := s.Active()
	if !ok {
		return EmptyThread()
	}
	return s.threadFor(c)
}

// ThreadFor returns the rendering plan for any of the viewer's conversations
func (s *Session) ThreadFor(conversationID string) (Thread, error) {
	c, ok := s.store.Get(conversationID)
	if !ok {
		return Thread{}, ErrConversationNotFound
	}
	return s.threadFor(c), nil
}

func (s *Session) threadFor(c models.Conversation) Thread {
	s.mu.Lock()
	unread, opened := s.unreadAtOpen[c.ID]
	s.mu.Unlock()
	if !opened {
		unread = c.UnreadCount
	}
	return BuildThread(c, s.viewer.Role, unread, s.opts.DividerGap, s.opts.Now())
}

func (s *Session) publish(event string, data interface{}) {
	s.opts.Publisher.Publish(s.viewer.ID, models.Event{Event: event, Data: data})
}
