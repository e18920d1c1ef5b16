package messaging

import (
	"time"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// DefaultDividerGap is the silence after which a new time divider is shown
const DefaultDividerGap = 30 * time.Minute

// ThreadItem is one rendered row of a thread
type ThreadItem struct {
	Message models.Message `json:"message"`
	Sender  string         `json:"sender"`
	// Divider is set when a time divider precedes this message
	Divider *Divider `json:"divider,omitempty"`
}

// Divider marks a time gap before a message
type Divider struct {
	At    time.Time `json:"at"`
	Label string    `json:"label"`
}

// Thread is the rendering plan for one conversation
type Thread struct {
	Empty          bool                 `json:"empty"`
	Conversation   *models.Conversation `json:"conversation,omitempty"`
	Items          []ThreadItem         `json:"items"`
	UnreadBoundary int                  `json:"unreadBoundary"`
	ScrollTo       string               `json:"scrollTo,omitempty"`
}

// DividerPositions returns, for each message, whether a divider precedes it.
// The first message always gets one; later ones when the gap to the previous
// message exceeds gap.
func DividerPositions(msgs []models.Message, gap time.Duration) []bool {
	out := make([]bool, len(msgs))
	for i := range msgs {
		if i == 0 {
			out[i] = true
			continue
		}
		out[i] = msgs[i].SentAt.Sub(msgs[i-1].SentAt) > gap
	}
	return out
}

// GroupWithDividers annotates messages with the dividers that precede them.
// Labels are relative to now.
func GroupWithDividers(msgs []models.Message, viewer models.Role, gap time.Duration, now time.Time) []ThreadItem {
	marks := DividerPositions(msgs, gap)
	items := make([]ThreadItem, len(msgs))
	for i, m := range msgs {
		items[i] = ThreadItem{Message: m, Sender: m.SenderFor(viewer).String()}
		if marks[i] {
			items[i].Divider = &Divider{At: m.SentAt, Label: DividerLabel(m.SentAt, now)}
		}
	}
	return items
}

// UnreadBoundary returns the index of the first of the last `unread`
// counterpart messages, or -1 when nothing is unread.
func UnreadBoundary(msgs []models.Message, viewer models.Role, unread int) int {
	if unread <= 0 {
		return -1
	}
	boundary := -1
	for i := len(msgs) - 1; i >= 0 && unread > 0; i-- {
		if msgs[i].SenderFor(viewer) == models.SenderCounterpart {
			boundary = i
			unread--
		}
	}
	return boundary
}

// BuildThread produces the rendering plan for a conversation. unreadAtOpen is
// the unread count the conversation had when the viewer opened it.
func BuildThread(conv models.Conversation, viewer models.Role, unreadAtOpen int, gap time.Duration, now time.Time) Thread {
	t := Thread{
		Conversation:   &conv,
		Items:          GroupWithDividers(conv.Messages, viewer, gap, now),
		UnreadBoundary: UnreadBoundary(conv.Messages, viewer, unreadAtOpen),
	}
	if n := len(conv.Messages); n > 0 {
		t.ScrollTo = conv.Messages[n-1].ID
	}
	return t
}

// EmptyThread is the plan shown when no conversation is active
func EmptyThread() Thread {
	return Thread{Empty: true, Items: []ThreadItem{}, UnreadBoundary: -1}
}

// DividerLabel formats a divider: clock time today, "Yesterday 15:04" for
// the day before, a short date otherwise.
func DividerLabel(at, now time.Time) string {
	at = at.In(now.Location())
	switch {
	case sameDay(at, now):
		return at.Format("15:04")
	case sameDay(at, now.AddDate(0, 0, -1)):
		return "Yesterday " + at.Format("15:04")
	case at.Year() == now.Year():
		return at.Format("Jan 2, 15:04")
	default:
		return at.Format("Jan 2 2006, 15:04")
	}
}

func sameDay(a, b time.Time) bool {
	y1, m1, d1 := a.Date()
	y2, m2, d2 := b.Date()
	return y1 == y2 && m1 == m2 && d1 == d2
}
