package messaging

import (
	"sort"
	"strings"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

// Matches reports whether the counterpart's name or secondary field contains
// query, ignoring case. A blank query matches everything.
func Matches(c models.Conversation, query string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return true
	}
	if strings.Contains(strings.ToLower(c.Counterpart.Name), q) {
		return true
	}
	return strings.Contains(strings.ToLower(c.Counterpart.Secondary()), q)
}

// Filter keeps the conversations matching query, preserving their order
func Filter(convs []models.Conversation, query string) []models.Conversation {
	out := make([]models.Conversation, 0, len(convs))
	for _, c := range convs {
		if Matches(c, query) {
			out = append(out, c)
		}
	}
	return out
}

// SortByRecency returns a copy ordered by latest message, newest first.
// Conversations without messages go last; ties keep their input order.
func SortByRecency(convs []models.Conversation) []models.Conversation {
	out := make([]models.Conversation, len(convs))
	copy(out, convs)
	sort.SliceStable(out, func(i, j int) bool {
		a, aok := out[i].LastMessage()
		b, bok := out[j].LastMessage()
		switch {
		case aok && bok:
			return a.SentAt.After(b.SentAt)
		case aok:
			return true
		default:
			return false
		}
	})
	return out
}
