package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNewLevels(t *testing.T) {
	tests := []struct {
		name   string
		level  string
		enable zap.AtomicLevel
	}{
		{"debug level", "debug", zap.NewAtomicLevelAt(zap.DebugLevel)},
		{"warn level", "warn", zap.NewAtomicLevelAt(zap.WarnLevel)},
		{"default info", "", zap.NewAtomicLevelAt(zap.InfoLevel)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(Config{Level: tt.level, Environment: "test"})
			require.NoError(t, err)
			assert.True(t, logger.Core().Enabled(tt.enable.Level()))
		})
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")
	t.Setenv("ENVIRONMENT", "")

	cfg := LoadConfig()
	assert.Equal(t, "info", cfg.Level)
	assert.Equal(t, "production", cfg.Environment)
}
