package logging_test

import (
	"testing"

	"github.com/dargueta/fatimg/utilities/logging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNew__Verbose(t *testing.T) {
	logger, err := logging.New(true)
	require.NoError(t, err)
	assert.True(t, logger.Desugar().Core().Enabled(zap.DebugLevel))
}

func TestNew__Quiet(t *testing.T) {
	logger, err := logging.New(false)
	require.NoError(t, err)

	core := logger.Desugar().Core()
	assert.False(t, core.Enabled(zap.InfoLevel))
	assert.True(t, core.Enabled(zap.WarnLevel))
}

func TestNop(t *testing.T) {
	core := logging.Nop().Desugar().Core()
	assert.False(t, core.Enabled(zap.ErrorLevel))
}
