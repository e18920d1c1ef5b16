package models

import "time"

// Counterpart is the participant on the other side of the viewer's conversation
type Counterpart struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
	Role   Role   `json:"role"`
	// Specialty is set when the counterpart is a clinician
	Specialty string `json:"specialty,omitempty"`
	// Condition is set when the counterpart is a patient
	Condition string `json:"condition,omitempty"`
}

// Secondary returns the descriptive field shown under the counterpart's name
func (c Counterpart) Secondary() string {
	if c.Role == RoleClinician {
		return c.Specialty
	}
	return c.Condition
}

// Conversation is the viewer-relative view of a clinician/patient thread.
// Values are treated as immutable: every change produces a new Conversation.
type Conversation struct {
	ID          string      `json:"id"`
	Counterpart Counterpart `json:"counterpart"`
	Online      bool        `json:"online"`
	Messages    []Message   `json:"messages"`
	UnreadCount int         `json:"unreadCount"`
	Secure      bool        `json:"secure"`
}

// LastMessage returns the most recent message, if any
func (c Conversation) LastMessage() (Message, bool) {
	if len(c.Messages) == 0 {
		return Message{}, false
	}
	last := c.Messages[0]
	for _, m := range c.Messages[1:] {
		if last.Before(m) {
			last = m
		}
	}
	return last, true
}

// Index returns the position of the message with the given id, or -1
func (c Conversation) Index(messageID string) int {
	for i := range c.Messages {
		if c.Messages[i].ID == messageID {
			return i
		}
	}
	return -1
}

// Append returns a copy of c with m added at the end. The message gets the
// next sequence number and its send time is clamped so the sequence stays
// ordered. A counterpart message raises the unread count unless the
// conversation is active.
func (c Conversation) Append(m Message, active bool) Conversation {
	m.ConversationID = c.ID
	m.Seq = 1
	if n := len(c.Messages); n > 0 {
		prev := c.Messages[n-1]
		m.Seq = prev.Seq + 1
		if m.SentAt.Before(prev.SentAt) {
			m.SentAt = prev.SentAt
		}
	}

	msgs := make([]Message, len(c.Messages), len(c.Messages)+1)
	copy(msgs, c.Messages)
	c.Messages = append(msgs, m)

	if m.SenderRole == c.Counterpart.Role && !active {
		c.UnreadCount++
	}
	return c
}

// WithStatus returns a copy of c where the message moved from one status to
// another. It reports false, leaving c untouched, when the message is missing
// or is no longer in the expected status.
func (c Conversation) WithStatus(messageID string, from, to DeliveryStatus) (Conversation, bool) {
	i := c.Index(messageID)
	if i < 0 || c.Messages[i].Status != from {
		return c, false
	}
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	msgs[i].Status = to
	c.Messages = msgs
	return c, true
}

// WithFailed returns a copy of c with the failed flag of a message set
func (c Conversation) WithFailed(messageID string, failed bool) (Conversation, bool) {
	i := c.Index(messageID)
	if i < 0 {
		return c, false
	}
	msgs := make([]Message, len(c.Messages))
	copy(msgs, c.Messages)
	msgs[i].Failed = failed
	c.Messages = msgs
	return c, true
}

// MarkRead returns a copy of c with no unread messages: the unread count is
// zero and every counterpart message is read. The ids of the counterpart
// messages that changed are returned.
func (c Conversation) MarkRead() (Conversation, []string) {
	c.UnreadCount = 0
	var changed []string
	var msgs []Message
	for i, m := range c.Messages {
		if m.SenderRole != c.Counterpart.Role || m.Status == StatusRead {
			continue
		}
		if msgs == nil {
			msgs = make([]Message, len(c.Messages))
			copy(msgs, c.Messages)
		}
		msgs[i].Status = StatusRead
		changed = append(changed, m.ID)
	}
	if msgs != nil {
		c.Messages = msgs
	}
	return c, changed
}

// LastActivity is the send time of the latest message, or the zero time
func (c Conversation) LastActivity() time.Time {
	if m, ok := c.LastMessage(); ok {
		return m.SentAt
	}
	return time.Time{}
}
