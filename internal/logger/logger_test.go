package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		level string
		check zapcore.Level
		want  bool
	}{
		{"debug", zap.DebugLevel, true},
		{"info", zap.DebugLevel, false},
		{"info", zap.InfoLevel, true},
		{"warn", zap.InfoLevel, false},
		{"error", zap.WarnLevel, false},
		{"bogus", zap.InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.check.String(), func(t *testing.T) {
			log, err := New(tt.level)
			require.NoError(t, err)
			assert.Equal(t, tt.want, log.Core().Enabled(tt.check))
		})
	}
}
