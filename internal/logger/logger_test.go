package logger_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/templui/pacekeeper/internal/logger"
)

func TestNewProductionWritesJSONAtInfo(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.Options{})

	log.Debug("hidden")
	log.Info("goal period materialized", "user_id", "u1", "interval", "weekly")

	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[0], &rec))
	assert.Equal(t, "INFO", rec["level"])
	assert.Equal(t, "goal period materialized", rec["msg"])
	assert.Equal(t, "weekly", rec["interval"])
}

func TestNewDevelopmentWritesTextAtDebug(t *testing.T) {
	var buf bytes.Buffer
	log := logger.New(&buf, logger.Options{Dev: true})

	log.Debug("resolving window", "interval", "daily")

	assert.Contains(t, buf.String(), "level=DEBUG")
	assert.Contains(t, buf.String(), "interval=daily")
}

func TestFlushWithoutSentry(t *testing.T) {
	assert.NotPanics(t, func() { logger.Flush(10 * time.Millisecond) })
}
