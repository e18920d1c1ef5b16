package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSummarize(t *testing.T) {
	c := testConversation()
	empty := Summarize(c)
	assert.Nil(t, empty.LastMessage)
	assert.Equal(t, "Hypertension", empty.Secondary)
	assert.True(t, empty.Secure)

	c = c.Append(msgAt("m1", RolePatient, base), false)
	c = c.Append(msgAt("m2", RoleClinician, base.Add(time.Minute)), false)
	s := Summarize(c)
	require.NotNil(t, s.LastMessage)
	assert.Equal(t, "m2", s.LastMessage.ID)
	assert.Equal(t, 1, s.UnreadCount)
}
