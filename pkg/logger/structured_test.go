package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitWriter_JSONFields(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("production", &buf)

	l := WithRequestID("req-1")
	l.Info().Str("page", "Home").Msg("rendered")

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "angple-wiki", entry["service"])
	assert.Equal(t, "req-1", entry["request_id"])
	assert.Equal(t, "Home", entry["page"])
	assert.Equal(t, "rendered", entry["message"])
}

func TestInitWriter_ProductionSkipsDebug(t *testing.T) {
	var buf bytes.Buffer
	InitWriter("production", &buf)

	GetLogger().Debug().Msg("hidden")
	assert.Empty(t, buf.String())

	InitWriter("dev", &buf)
	GetLogger().Debug().Msg("shown")
	assert.Contains(t, buf.String(), "shown")
}
