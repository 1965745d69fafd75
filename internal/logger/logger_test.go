package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gstfiling/internal/logger"
)

func TestSetupWriter_JSONWithComponent(t *testing.T) {
	var buf bytes.Buffer
	logger.SetupWriter(logger.Config{Level: "debug", Format: "json"}, &buf)

	l := logger.WithComponent("service")
	l.Debug().Str("gstin", "29ABCDE1234F1Z5").Msg("transition")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "service", line["component"])
	assert.Equal(t, "29ABCDE1234F1Z5", line["gstin"])
	assert.Equal(t, "debug", line["level"])
}

func TestSetupWriter_UnknownLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.SetupWriter(logger.Config{Level: "chatty"}, &buf)

	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
	l.Debug().Msg("hidden")
	assert.Zero(t, buf.Len())
}

func TestSetupWriter_EmptyLevelIsInfo(t *testing.T) {
	var buf bytes.Buffer
	l := logger.SetupWriter(logger.Config{}, &buf)
	assert.Equal(t, zerolog.InfoLevel, l.GetLevel())
}
