package logger

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/sidekiq-metrics-agent/pkg/config"
)

// Init is process-global, so the whole lifecycle lives in one test.
func TestLoggerLifecycle(t *testing.T) {
	dir := t.TempDir()

	assert.NotNil(t, GetLogger(), "pre-init fallback logger must be usable")

	cfg := &config.ZapLogConfig{
		Level:     "debug",
		Format:    "json",
		Path:      dir,
		MaxAge:    1,
		MaxSizeMB: 10,
	}
	require.NoError(t, Init(cfg))
	require.NoError(t, Init(cfg), "repeated Init must be a no-op")

	Debug("debug line", zap.String("k", "v"))
	Info("cycle finished", zap.Int("measurements", 15))
	Warn("registry slow")
	Error("sink rejected batch")
	_ = Sync() // stdout refuses fsync on some platforms

	matches, err := filepath.Glob(filepath.Join(dir, "metrics-agent-*.log"))
	require.NoError(t, err)
	require.NotEmpty(t, matches, "a rotated log file must exist under the configured path")

	content, err := os.ReadFile(matches[0])
	require.NoError(t, err)
	assert.Contains(t, string(content), "cycle finished")
	assert.Contains(t, string(content), "sink rejected batch")
	assert.Contains(t, string(content), `"goid"`)
}
