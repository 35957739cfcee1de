package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWritesJSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	log := Component(New(&buf, false), "cli")

	log.Info().Int("clusters", 3).Msg("done")

	var event map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &event))
	assert.Equal(t, "info", event["level"])
	assert.Equal(t, "cli", event["component"])
	assert.Equal(t, "done", event["message"])
	assert.Equal(t, float64(3), event["clusters"])
	assert.Contains(t, event, "time")
}

func TestVerboseControlsDebug(t *testing.T) {
	var quiet, loud bytes.Buffer

	quietLog := New(&quiet, false)
	loudLog := New(&loud, true)
	quietLog.Debug().Msg("hidden")
	loudLog.Debug().Msg("shown")

	assert.Empty(t, quiet.String())
	assert.True(t, strings.Contains(loud.String(), "shown"))
}
