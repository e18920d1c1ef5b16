package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewMessageRejectsBlankText(t *testing.T) {
	_, err := NewMessage("c1", RoleClinician, "   \n\t", nil, time.Now())
	assert.ErrorIs(t, err, ErrEmptyMessage)
}

func TestNewMessageAllowsAttachmentOnly(t *testing.T) {
	m, err := NewMessage("c1", RolePatient, "", NewAttachment(AttachmentImage, "rash.jpg", 2_400_000), time.Now())
	assert.NoError(t, err)
	assert.Equal(t, "2.4 MB", m.Attachment.SizeLabel)
	assert.Equal(t, StatusSent, m.Status)
	assert.NotEmpty(t, m.ID)
}

func TestNewMessageTrimsText(t *testing.T) {
	m, err := NewMessage("c1", RolePatient, "  hello  ", nil, time.Now())
	assert.NoError(t, err)
	assert.Equal(t, "hello", m.Text)
	assert.Equal(t, RolePatient, m.SenderRole)
}

func TestDeliveryStatusOrder(t *testing.T) {
	next, ok := StatusSent.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusDelivered, next)

	next, ok = StatusDelivered.Next()
	assert.True(t, ok)
	assert.Equal(t, StatusRead, next)

	_, ok = StatusRead.Next()
	assert.False(t, ok)
	assert.True(t, StatusRead.Terminal())

	prev, ok := StatusRead.Previous()
	assert.True(t, ok)
	assert.Equal(t, StatusDelivered, prev)
	_, ok = StatusSent.Previous()
	assert.False(t, ok)

	assert.Equal(t, 0, DeliveryStatus("lost").Rank())
	_, ok = DeliveryStatus("lost").Next()
	assert.False(t, ok)
}

func TestSenderFor(t *testing.T) {
	m := Message{SenderRole: RoleClinician}
	assert.Equal(t, SenderSelf, m.SenderFor(RoleClinician))
	assert.Equal(t, SenderCounterpart, m.SenderFor(RolePatient))
	assert.Equal(t, "counterpart", SenderCounterpart.String())
}

func TestRoleCounterpart(t *testing.T) {
	assert.Equal(t, RolePatient, RoleClinician.Counterpart())
	assert.Equal(t, RoleClinician, RolePatient.Counterpart())
	assert.False(t, Role("admin").Valid())
}
