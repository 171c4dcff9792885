package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("info", "json", &buf)
	require.NoError(t, err)

	log.Debug("скрыто")
	log.Info("сессия создана")
	require.NoError(t, log.Sync())

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "сессия создана", entry["message"])
	assert.Contains(t, entry, "timestamp")
}

func TestNew_Console(t *testing.T) {
	var buf bytes.Buffer
	log, err := New("DEBUG", "console", &buf)
	require.NoError(t, err)

	log.Debug("отладка")
	require.NoError(t, log.Sync())

	assert.Contains(t, buf.String(), "отладка")
}

func TestNew_Invalid(t *testing.T) {
	_, err := New("loud", "json", &bytes.Buffer{})
	assert.Error(t, err)

	_, err = New("info", "xml", &bytes.Buffer{})
	assert.ErrorIs(t, err, ErrUnknownFormat)
}
