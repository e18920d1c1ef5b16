package messaging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/clinic-messaging-api/models"
)

func TestOnConversationOpenedIsIdempotent(t *testing.T) {
	h := newHarness(t, Options{})

	c, err := h.s.OnConversationOpened("conv-b")
	require.NoError(t, err)
	assert.Equal(t, 0, c.UnreadCount)
	assert.Equal(t, models.StatusRead, c.Messages[0].Status)

	c, err = h.s.OnConversationOpened("conv-b")
	require.NoError(t, err)
	assert.Equal(t, 0, c.UnreadCount)

	assert.Equal(t, 1, h.repo.resets["conv-b/clinician"])
	assert.Equal(t, []string{models.EventConversationRead}, h.pub.Names(clinician.ID))
}

func TestOnConversationOpenedAlreadyRead(t *testing.T) {
	h := newHarness(t, Options{})

	c, err := h.s.OnConversationOpened("conv-a")
	require.NoError(t, err)
	assert.Equal(t, 0, c.UnreadCount)
	assert.Empty(t, h.repo.resets)
}

func TestOnConversationOpenedUnknown(t *testing.T) {
	h := newHarness(t, Options{})
	_, err := h.s.OnConversationOpened("nope")
	assert.ErrorIs(t, err, ErrConversationNotFound)
}
