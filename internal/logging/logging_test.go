package logging

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNew(t *testing.T) {
	tests := []struct {
		name    string
		verbose bool
		debugOn bool
		warnOn  bool
	}{
		{name: "verbose logs debug", verbose: true, debugOn: true, warnOn: true},
		{name: "quiet logs warnings only", verbose: false, debugOn: false, warnOn: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := New(tt.verbose)
			require.NoError(t, err)
			core := logger.Desugar().Core()
			assert.Equal(t, tt.debugOn, core.Enabled(zapcore.DebugLevel))
			assert.Equal(t, tt.warnOn, core.Enabled(zapcore.WarnLevel))
		})
	}
}

func TestNop(t *testing.T) {
	assert.False(t, Nop().Desugar().Core().Enabled(zapcore.ErrorLevel))
}
