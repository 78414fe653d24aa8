package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestInit(t *testing.T) {
	t.Cleanup(func() { Logger = nil })

	tests := []struct {
		env       string
		debugOn   bool
		infoLevel bool
	}{
		{env: "production", debugOn: false, infoLevel: true},
		{env: "development", debugOn: true, infoLevel: true},
		{env: "", debugOn: true, infoLevel: true},
	}
	for _, tt := range tests {
		t.Run(tt.env, func(t *testing.T) {
			require.NoError(t, Init(tt.env))
			require.NotNil(t, Logger)
			assert.Equal(t, tt.debugOn, Logger.Core().Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.infoLevel, Logger.Core().Enabled(zapcore.InfoLevel))
		})
	}
}

func TestGet_FallsBackWhenUninitialized(t *testing.T) {
	Logger = nil
	assert.NotNil(t, Get())
	Sync()
}
