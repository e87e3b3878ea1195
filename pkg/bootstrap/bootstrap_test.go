package bootstrap

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &m))
	return m
}

func TestLogger_CloudLoggingKeys(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "capture", slog.LevelInfo)

	logger.Info("hello")

	m := decodeLine(t, &buf)
	assert.Equal(t, "hello", m["message"])
	assert.Equal(t, "INFO", m["severity"])
	assert.Equal(t, "capture", m["service"])
}

func TestComponentHandler_BoundComponent(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "capture", slog.LevelInfo).With("component", "upload")

	logger.Info("Blob written")

	m := decodeLine(t, &buf)
	assert.Equal(t, "[upload] Blob written", m["message"])
	assert.Equal(t, "upload", m["component"])
}

func TestComponentHandler_RecordComponentWins(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "capture", slog.LevelInfo).With("component", "upload")

	logger.Info("published", "component", "pubsub")

	m := decodeLine(t, &buf)
	assert.Equal(t, "[pubsub] published", m["message"])
}

func TestLogger_LevelFilter(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, "capture", slog.LevelWarn)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("warn"))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}

func TestLoadConfig(t *testing.T) {
	t.Setenv("GOOGLE_CLOUD_PROJECT", "demo-project")
	t.Setenv("FIREBASE_STORAGE_BUCKET", "")
	t.Setenv("CLASSIFIER_URL", "http://localhost:9000/predict")
	t.Setenv("ENABLE_PUBLISH", "true")
	t.Setenv("SENTRY_ENVIRONMENT", "")

	cfg := LoadConfig()

	assert.Equal(t, "demo-project", cfg.ProjectID)
	assert.Equal(t, "demo-project.appspot.com", cfg.StorageBucket)
	assert.Equal(t, "http://localhost:9000/predict", cfg.ClassifierURL)
	assert.True(t, cfg.EnablePublish)
	assert.Equal(t, "development", cfg.Environment)
}
