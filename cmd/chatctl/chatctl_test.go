package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/linesmerrill/clinic-messaging-api/api"
	"github.com/linesmerrill/clinic-messaging-api/models"
)

func writeFile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoadFixturesDemoFile(t *testing.T) {
	f, err := loadFixtures(filepath.Join("..", "..", "fixtures", "demo.yaml"))
	require.NoError(t, err)
	require.Len(t, f.Conversations, 2)
	require.Len(t, f.Messages, 4)

	assert.Equal(t, "Cardiology", f.Conversations[0].Clinician.Specialty)
	assert.Equal(t, 1, f.Conversations[0].Unread["clinician"])
	assert.Equal(t, time.Date(2024, 3, 14, 9, 50, 0, 0, time.UTC), f.Messages[3].SentAt.UTC())
	require.NotNil(t, f.Messages[3].Attachment)
	assert.Equal(t, models.StatusDelivered, f.Messages[3].Status)
}

func TestLoadFixturesRejects(t *testing.T) {
	_, err := loadFixtures(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	_, err = loadFixtures(writeFile(t, "conversations: [\n"))
	assert.ErrorContains(t, err, "failed to parse fixtures")

	_, err = loadFixtures(writeFile(t, `
conversations:
  - id: conv-a
messages:
  - conversationId: conv-b
    senderRole: patient
    text: hi
`))
	assert.ErrorContains(t, err, `unknown conversation "conv-b"`)

	_, err = loadFixtures(writeFile(t, `
conversations:
  - id: conv-a
messages:
  - conversationId: conv-a
    senderRole: nurse
    text: hi
`))
	assert.ErrorContains(t, err, `unknown sender role "nurse"`)
}

func TestRenderDirectory(t *testing.T) {
	color.NoColor = true
	at := time.Date(2024, 3, 14, 9, 50, 0, 0, time.UTC)

	var buf bytes.Buffer
	renderDirectory(&buf, []models.Conversation{
		{
			ID:          "conv-a",
			Counterpart: models.Counterpart{Name: "Jane Cooper", Role: models.RolePatient, Condition: "Hypertension"},
			Online:      true,
			UnreadCount: 2,
			Messages: []models.Message{{
				SenderRole: models.RolePatient,
				Text:       strings.Repeat("x", 80),
				SentAt:     at,
				Attachment: &models.Attachment{DisplayName: "bp-log.pdf", SizeLabel: "48 kB"},
			}},
		},
		{ID: "conv-b", Counterpart: models.Counterpart{Name: "Robert Fox", Role: models.RolePatient}},
	})

	out := buf.String()
	assert.Contains(t, out, "conv-a  Jane Cooper (Hypertension) [online] 2 unread")
	assert.Contains(t, out, strings.Repeat("x", 57)+"... [bp-log.pdf, 48 kB]")
	assert.Contains(t, out, "conv-b  Robert Fox () [offline]\n")

	buf.Reset()
	renderDirectory(&buf, nil)
	assert.Equal(t, "No conversations\n", buf.String())
}

func TestTokenCmd(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	var out bytes.Buffer
	cmd := TokenCmd()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--viewer", "doc-1", "--name", "Dr. Adams", "--role", "clinician"})
	require.NoError(t, cmd.Execute())

	token := strings.TrimSpace(out.String())
	info, err := api.NewAuthenticator("test-secret").ValidateToken(context.Background(), nil, token)
	require.NoError(t, err)
	assert.Equal(t, "doc-1", info.ID())
	assert.Equal(t, []string{"clinician"}, info.Groups())
}

func TestTokenCmdRejectsRole(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	cmd := TokenCmd()
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--viewer", "doc-1", "--role", "admin"})
	assert.ErrorContains(t, cmd.Execute(), `unknown role "admin"`)
}
