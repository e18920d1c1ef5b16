package templates

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRenderUnreadDigestEmail(t *testing.T) {
	out := RenderUnreadDigestEmail("<Jane>", 3, 1, "https://clinic.example/app")

	assert.Contains(t, out, "Hi &lt;Jane&gt;,")
	assert.Contains(t, out, `<span class="count">3</span> unread in 1 conversation.`)
	assert.Contains(t, out, `href="https://clinic.example/app"`)
	assert.False(t, strings.Contains(out, "<Jane>"))
}

func TestRenderUnreadDigestEmailNoName(t *testing.T) {
	assert.Contains(t, RenderUnreadDigestEmail("", 2, 2, ""), "Hi there,")
}

func TestDigestText(t *testing.T) {
	assert.Equal(t,
		"You have 1 unread message waiting in 2 conversations. Sign in to read them: https://x",
		DigestText(1, 2, "https://x"))
}
