package cli

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/conversation"
	"github.com/pantpujan017/ai-chatbot-appointment-system/internal/logging"
)

type cannedCompleter struct{}

func (cannedCompleter) Complete(context.Context, string) (string, error) {
	return "We are open on weekdays.", nil
}

func newTestManager() *conversation.Manager {
	assistant := conversation.NewAssistant(cannedCompleter{})
	return conversation.NewManager(assistant, conversation.NewMemoryStore(), conversation.NewLocalLocker(), logging.Discard())
}

func TestRunChat(t *testing.T) {
	in := strings.NewReader(strings.Join([]string{
		"When are you open?",
		"",
		"call me",
		"John Doe",
		"/form",
		"/reset",
		"/form",
		"/quit",
		"never read",
	}, "\n"))
	var out bytes.Buffer

	require.NoError(t, runChat(context.Background(), newTestManager(), in, &out))

	got := out.String()
	assert.Contains(t, got, chatGreeting)
	assert.Contains(t, got, "We are open on weekdays.")
	assert.Contains(t, got, "What's your full name?")
	assert.Contains(t, got, "Thank you, John Doe!")
	assert.Contains(t, got, "waiting for: phone")
	assert.Contains(t, got, "Conversation cleared.")
	assert.Contains(t, got, "state: idle")
	assert.NotContains(t, got, "never read")
}

func TestRunChat_EOF(t *testing.T) {
	var out bytes.Buffer
	err := runChat(context.Background(), newTestManager(), strings.NewReader("hello"), &out)
	require.NoError(t, err)
	assert.Contains(t, out.String(), "We are open on weekdays.")
}

func TestIngestCmd(t *testing.T) {
	t.Chdir(t.TempDir())
	dbPath := filepath.Join(t.TempDir(), "docs.db")
	t.Setenv("DOCUMENTS_DB", dbPath)

	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "faq.md"), []byte("# FAQ\n\nWe open at nine."), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "logo.png"), []byte{0x89, 0x50}, 0o600))
	single := filepath.Join(t.TempDir(), "pricing.txt")
	require.NoError(t, os.WriteFile(single, []byte("A first consultation is free."), 0o600))

	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"ingest", dir, single})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "pricing.txt: 1 chunks")
	assert.Contains(t, out.String(), "Ingested 2 documents (2 chunks)")
	assert.FileExists(t, dbPath)
}

func TestIngestCmd_RequiresArgs(t *testing.T) {
	var out bytes.Buffer
	root := NewRootCmd()
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"ingest"})

	assert.Error(t, root.Execute())
}
