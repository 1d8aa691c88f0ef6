package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter_ProdIsJSON(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "api-server", "prod").Info("started", "port", "8080")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "api-server", entry["service"])
	assert.Equal(t, "started", entry["msg"])
	assert.Equal(t, "8080", entry["port"])
}

func TestNewWithWriter_DevIsText(t *testing.T) {
	var buf bytes.Buffer
	NewWithWriter(&buf, "assistant", "dev").Debug("turn")

	assert.Contains(t, buf.String(), "service=assistant")
	assert.Contains(t, buf.String(), "msg=turn")
}
