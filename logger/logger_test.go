package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBufferedLogger() (*ZeroLogger, *bytes.Buffer) {
	var buf bytes.Buffer
	zl := zerolog.New(&buf)
	return FromZerolog(zl), &buf
}

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	return entry
}

func TestNewRespectsLevel(t *testing.T) {
	log := New("error", false)
	require.NotNil(t, log)
	assert.Equal(t, zerolog.ErrorLevel, log.zlog.GetLevel())
}

func TestNewDefaultsToInfoOnInvalidLevel(t *testing.T) {
	log := New("nonsense", false)
	assert.Equal(t, zerolog.InfoLevel, log.zlog.GetLevel())
}

func TestEventLevelsAndMessage(t *testing.T) {
	log, buf := newBufferedLogger()

	log.Warn().Msg("pool nearly exhausted")

	entry := decodeLine(t, buf)
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "pool nearly exhausted", entry["message"])
}

func TestEventFields(t *testing.T) {
	log, buf := newBufferedLogger()

	log.Info().
		Str("vendor", "postgresql").
		Int("open_statements", 3).
		Int64("execute_count", 42).
		Uint64("bytes", 1024).
		Dur("elapsed", 1500*time.Millisecond).
		Interface("extra", map[string]any{"k": "v"}).
		Msg("stats")

	entry := decodeLine(t, buf)
	assert.Equal(t, "postgresql", entry["vendor"])
	assert.Equal(t, float64(3), entry["open_statements"])
	assert.Equal(t, float64(42), entry["execute_count"])
	assert.Equal(t, float64(1024), entry["bytes"])
	assert.Equal(t, float64(1500), entry["elapsed"])
}

func TestEventErr(t *testing.T) {
	log, buf := newBufferedLogger()

	log.Error().Err(errors.New("cursor already closed")).Msg("close failed")

	entry := decodeLine(t, buf)
	assert.Equal(t, "cursor already closed", entry["error"])
}

func TestEventMsgf(t *testing.T) {
	log, buf := newBufferedLogger()

	log.Debug().Msgf("closed %d of %d handles", 2, 3)

	entry := decodeLine(t, buf)
	assert.Equal(t, "closed 2 of 3 handles", entry["message"])
}

func TestWithFieldsAttachesToAllEvents(t *testing.T) {
	log, buf := newBufferedLogger()

	log.WithFields(map[string]any{"conn_id": "abc"}).Info().Msg("adopted")

	entry := decodeLine(t, buf)
	assert.Equal(t, "abc", entry["conn_id"])
}

func TestWithContextReturnsSameLoggerForPlainContext(t *testing.T) {
	log, _ := newBufferedLogger()
	assert.Equal(t, Logger(log), log.WithContext(context.Background()))
	assert.Equal(t, Logger(log), log.WithContext("not a context"))
}
