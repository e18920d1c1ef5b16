package messaging

import (
	"sync"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// Store is a session's single-owner arena of conversations. Entries are
// replaced whole on every change, so values handed out never change under
// the caller.
type Store struct {
	mu       sync.RWMutex
	convs    map[string]models.Conversation
	order    []string
	messages map[string]string // message id -> conversation id
}

// NewStore creates a store holding the given conversations
func NewStore(convs []models.Conversation) *Store {
	s := &Store{
		convs:    make(map[string]models.Conversation, len(convs)),
		messages: make(map[string]string),
	}
	for _, c := range convs {
		if _, dup := s.convs[c.ID]; dup {
			continue
		}
		s.convs[c.ID] = c
		s.order = append(s.order, c.ID)
		for _, m := range c.Messages {
			s.messages[m.ID] = c.ID
		}
	}
	return s
}

// Get returns the conversation with the given id
func (s *Store) Get(id string) (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.convs[id]
	return c, ok
}

// All returns every conversation in load order
func (s *Store) All() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]models.Conversation, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, s.convs[id])
	}
	return out
}

// ConversationOf returns the id of the conversation holding a message
func (s *Store) ConversationOf(messageID string) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.messages[messageID]
	return id, ok
}

// Update replaces a conversation with the result of fn. fn reports whether
// it changed anything; nothing is written when it did not or when the
// conversation does not exist.
func (s *Store) Update(id string, fn func(models.Conversation) (models.Conversation, bool)) (models.Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.convs[id]
	if !ok {
		return models.Conversation{}, false
	}
	next, changed := fn(c)
	if !changed {
		return c, false
	}
	s.convs[id] = next
	for _, m := range next.Messages {
		s.messages[m.ID] = id
	}
	return next, true
}
