package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var base = time.Date(2024, 3, 4, 10, 0, 0, 0, time.UTC)

func testConversation() Conversation {
	return Conversation{
		ID:          "conv-a",
		Counterpart: Counterpart{ID: "p1", Name: "Maria Lopez", Role: RolePatient, Condition: "Hypertension"},
		Secure:      true,
	}
}

func msgAt(id string, role Role, at time.Time) Message {
	return Message{ID: id, SenderRole: role, Text: id, SentAt: at, Status: StatusSent}
}

func TestAppendIsOrderedAndCopies(t *testing.T) {
	c := testConversation()
	c1 := c.Append(msgAt("m1", RoleClinician, base), true)
	c2 := c1.Append(msgAt("m2", RolePatient, base.Add(time.Minute)), true)

	assert.Len(t, c1.Messages, 1)
	assert.Len(t, c2.Messages, 2)
	assert.Equal(t, int64(1), c2.Messages[0].Seq)
	assert.Equal(t, int64(2), c2.Messages[1].Seq)
	assert.Equal(t, "conv-a", c2.Messages[1].ConversationID)

	// a skewed clock never reorders the sequence
	c3 := c2.Append(msgAt("m3", RoleClinician, base), true)
	for i := 0; i+1 < len(c3.Messages); i++ {
		assert.False(t, c3.Messages[i+1].SentAt.Before(c3.Messages[i].SentAt))
	}
	last, ok := c3.LastMessage()
	assert.True(t, ok)
	assert.Equal(t, "m3", last.ID)
}

func TestAppendCountsUnreadOnlyWhenInactive(t *testing.T) {
	c := testConversation()
	c = c.Append(msgAt("m1", RolePatient, base), false)
	assert.Equal(t, 1, c.UnreadCount)

	c = c.Append(msgAt("m2", RolePatient, base), true)
	assert.Equal(t, 1, c.UnreadCount)

	c = c.Append(msgAt("m3", RoleClinician, base), false)
	assert.Equal(t, 1, c.UnreadCount)
}

func TestLastMessageEmpty(t *testing.T) {
	_, ok := testConversation().LastMessage()
	assert.False(t, ok)
	assert.True(t, testConversation().LastActivity().IsZero())
}

func TestWithStatusGuards(t *testing.T) {
	c := testConversation().Append(msgAt("m1", RoleClinician, base), true)

	_, ok := c.WithStatus("m1", StatusDelivered, StatusRead)
	assert.False(t, ok)

	_, ok = c.WithStatus("missing", StatusSent, StatusDelivered)
	assert.False(t, ok)

	next, ok := c.WithStatus("m1", StatusSent, StatusDelivered)
	assert.True(t, ok)
	assert.Equal(t, StatusDelivered, next.Messages[0].Status)
	assert.Equal(t, StatusSent, c.Messages[0].Status)
}

func TestMarkRead(t *testing.T) {
	c := testConversation()
	c = c.Append(msgAt("m1", RolePatient, base), false)
	c = c.Append(msgAt("m2", RoleClinician, base), false)
	c = c.Append(msgAt("m3", RolePatient, base), false)
	assert.Equal(t, 2, c.UnreadCount)

	read, changed := c.MarkRead()
	assert.Equal(t, 0, read.UnreadCount)
	assert.Equal(t, []string{"m1", "m3"}, changed)
	assert.Equal(t, StatusSent, read.Messages[1].Status)
	assert.Equal(t, StatusSent, c.Messages[0].Status)

	again, changed := read.MarkRead()
	assert.Equal(t, 0, again.UnreadCount)
	assert.Empty(t, changed)
}

func TestViewFor(t *testing.T) {
	rec := ConversationRecord{
		ID:        "conv-a",
		Clinician: ParticipantRecord{ID: "d1", Name: "Dr. Chen", Specialty: "Cardiology", Online: true},
		Patient:   ParticipantRecord{ID: "p1", Name: "Maria Lopez", Condition: "Hypertension"},
		Unread:    map[string]int{"patient": 2, "clinician": -1},
	}

	pv := rec.ViewFor(RolePatient, nil)
	assert.Equal(t, "Dr. Chen", pv.Counterpart.Name)
	assert.Equal(t, "Cardiology", pv.Counterpart.Secondary())
	assert.True(t, pv.Online)
	assert.Equal(t, 2, pv.UnreadCount)

	cv := rec.ViewFor(RoleClinician, nil)
	assert.Equal(t, "Hypertension", cv.Counterpart.Secondary())
	assert.Equal(t, 0, cv.UnreadCount)
	assert.True(t, cv.Secure)
}
